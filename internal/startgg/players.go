package startgg

import (
	"context"
	"fmt"
)

const playerQuery = `query Player($playerId: ID!) {
  player(id: $playerId) {
    id gamerTag prefix
    user { id slug images { url type } }
  }
}`

const currentUserQuery = `query CurrentUser {
  currentUser { id slug name player { gamerTag } }
}`

const eventEntrantsQuery = `query EventEntrants($eventId: ID!, $page: Int!, $perPage: Int!) {
  event(id: $eventId) {
    id
    entrants(query: { page: $page, perPage: $perPage }) {
      nodes {
        id name
        participants { id player { id gamerTag prefix } user { id slug } }
      }
    }
  }
}`

const entrantsPerPage = 100

// Player fetches a player profile and the images of its user account.
func (c *Client) Player(ctx context.Context, playerID string) (*Player, error) {
	var data struct {
		Player *Player `json:"player"`
	}
	if err := c.do(ctx, "Player", playerQuery, map[string]any{"playerId": playerID}, &data); err != nil {
		return nil, err
	}
	if data.Player == nil {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	return data.Player, nil
}

// CurrentUser returns the account that owns the token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var data struct {
		CurrentUser *User `json:"currentUser"`
	}
	if err := c.do(ctx, "CurrentUser", currentUserQuery, nil, &data); err != nil {
		return nil, err
	}
	if data.CurrentUser == nil {
		return nil, fmt.Errorf("current user: %w", ErrNotFound)
	}
	return data.CurrentUser, nil
}

// EventEntrants pages through every entrant of an event.
func (c *Client) EventEntrants(ctx context.Context, eventID string) ([]Entrant, error) {
	var all []Entrant
	for page := 1; ; page++ {
		var data struct {
			Event *Event `json:"event"`
		}
		vars := map[string]any{"eventId": eventID, "page": page, "perPage": entrantsPerPage}
		if err := c.do(ctx, "EventEntrants", eventEntrantsQuery, vars, &data); err != nil {
			return nil, err
		}
		if data.Event == nil {
			return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		if data.Event.Entrants == nil || len(data.Event.Entrants.Nodes) == 0 {
			return all, nil
		}
		all = append(all, data.Event.Entrants.Nodes...)
		if len(data.Event.Entrants.Nodes) < entrantsPerPage {
			return all, nil
		}
	}
}
