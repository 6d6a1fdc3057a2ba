package startgg

import (
	"context"
	"fmt"
)

const adminTournamentsQuery = `query AdminTournaments($perPage: Int!) {
  currentUser {
    id
    tournaments(query: { perPage: $perPage, filter: { tournamentView: "admin" } }) {
      nodes { id name slug startAt endAt images { url type } }
    }
  }
}`

const tournamentEventsQuery = `query TournamentEvents($tournamentId: ID!) {
  tournament(id: $tournamentId) {
    id name
    events { id name slug }
  }
}`

const adminTournamentsPerPage = 50

// AdminTournaments lists the tournaments the token's user administers.
func (c *Client) AdminTournaments(ctx context.Context) ([]Tournament, error) {
	var data struct {
		CurrentUser *struct {
			Tournaments *struct {
				Nodes []Tournament `json:"nodes"`
			} `json:"tournaments"`
		} `json:"currentUser"`
	}
	vars := map[string]any{"perPage": adminTournamentsPerPage}
	if err := c.do(ctx, "AdminTournaments", adminTournamentsQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.CurrentUser == nil || data.CurrentUser.Tournaments == nil {
		return nil, nil
	}
	return data.CurrentUser.Tournaments.Nodes, nil
}

// TournamentEvents returns a tournament with its event list.
func (c *Client) TournamentEvents(ctx context.Context, tournamentID string) (*Tournament, error) {
	var data struct {
		Tournament *Tournament `json:"tournament"`
	}
	if err := c.do(ctx, "TournamentEvents", tournamentEventsQuery, map[string]any{"tournamentId": tournamentID}, &data); err != nil {
		return nil, err
	}
	if data.Tournament == nil {
		return nil, fmt.Errorf("tournament %s: %w", tournamentID, ErrNotFound)
	}
	return data.Tournament, nil
}
