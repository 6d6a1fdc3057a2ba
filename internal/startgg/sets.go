package startgg

import (
	"context"
	"fmt"
)

const characterFields = `characters { id name images { url type } }`

const setSlotFields = `slots {
      id
      entrant { id name participants { id player { id gamerTag prefix } } }
      standing { stats { score { value } } }
    }`

const eventSetsQuery = `query EventSets($eventId: ID!, $perPage: Int!) {
  event(id: $eventId) {
    id
    name
    tournament { id name }
    videogame { id name slug displayName images { url type } ` + characterFields + ` }
    sets(filters: { showByes: false }, perPage: $perPage) {
      nodes {
        id state round winnerId totalGames startedAt
        ` + setSlotFields + `
      }
    }
  }
}`

const setDetailsQuery = `query SetDetails($setId: ID!) {
  set(id: $setId) {
    id state round winnerId totalGames startedAt
    ` + setSlotFields + `
    games {
      id orderNum winnerId entrant1Score entrant2Score
      selections { entrant { id } character { id name images { url type } } }
    }
    event { videogame { id name ` + characterFields + ` } }
  }
}`

const setResultFields = `id state winnerId startedAt
    games { id orderNum winnerId entrant1Score entrant2Score selections { entrant { id } character { id name } } }`

const markSetInProgressMutation = `mutation MarkSetInProgress($setId: ID!) {
  markSetInProgress(setId: $setId) { ` + setResultFields + ` }
}`

const resetSetMutation = `mutation ResetSet($setId: ID!, $resetDependentSets: Boolean) {
  resetSet(setId: $setId, resetDependentSets: $resetDependentSets) { ` + setResultFields + ` }
}`

const updateBracketSetMutation = `mutation UpdateBracketSet($setId: ID!, $winnerId: ID, $isDQ: Boolean, $gameData: [BracketSetGameDataInput]) {
  updateBracketSet(setId: $setId, winnerId: $winnerId, isDQ: $isDQ, gameData: $gameData) { ` + setResultFields + ` }
}`

const reportBracketSetMutation = `mutation ReportBracketSet($setId: ID!, $winnerId: ID!, $gameData: [BracketSetGameDataInput]) {
  reportBracketSet(setId: $setId, winnerId: $winnerId, gameData: $gameData) { ` + setResultFields + ` }
}`

// EventSetsPerPage is the page size of the set listing. Only the first page
// is read.
const EventSetsPerPage = 100

// EventSets lists the non-bye sets of an event together with the event's
// videogame and character list.
func (c *Client) EventSets(ctx context.Context, eventID string) (*Event, error) {
	var data struct {
		Event *Event `json:"event"`
	}
	vars := map[string]any{"eventId": eventID, "perPage": EventSetsPerPage}
	if err := c.do(ctx, "EventSets", eventSetsQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Event == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	return data.Event, nil
}

// SetDetails fetches one set with its games and the videogame's characters.
func (c *Client) SetDetails(ctx context.Context, setID string) (*Set, error) {
	var data struct {
		Set *Set `json:"set"`
	}
	if err := c.do(ctx, "SetDetails", setDetailsQuery, map[string]any{"setId": setID}, &data); err != nil {
		return nil, err
	}
	if data.Set == nil {
		return nil, fmt.Errorf("set %s: %w", setID, ErrNotFound)
	}
	return data.Set, nil
}

func (c *Client) MarkSetInProgress(ctx context.Context, setID string) (*Set, error) {
	var data struct {
		Set *Set `json:"markSetInProgress"`
	}
	if err := c.do(ctx, "MarkSetInProgress", markSetInProgressMutation, map[string]any{"setId": setID}, &data); err != nil {
		return nil, err
	}
	return data.Set, nil
}

func (c *Client) ResetSet(ctx context.Context, setID string, resetDependentSets bool) (*Set, error) {
	var data struct {
		Set *Set `json:"resetSet"`
	}
	vars := map[string]any{"setId": setID, "resetDependentSets": resetDependentSets}
	if err := c.do(ctx, "ResetSet", resetSetMutation, vars, &data); err != nil {
		return nil, err
	}
	return data.Set, nil
}

// UpdateBracketSet records progress without completing the set.
func (c *Client) UpdateBracketSet(ctx context.Context, in UpdateBracketSetInput) (*Set, error) {
	var data struct {
		Set *Set `json:"updateBracketSet"`
	}
	if err := c.do(ctx, "UpdateBracketSet", updateBracketSetMutation, in, &data); err != nil {
		return nil, err
	}
	return data.Set, nil
}

// ReportBracketSet completes a set. The remote returns every set the report
// touched, which includes downstream sets in the bracket.
func (c *Client) ReportBracketSet(ctx context.Context, in ReportBracketSetInput) ([]Set, error) {
	var data struct {
		Sets []Set `json:"reportBracketSet"`
	}
	if err := c.do(ctx, "ReportBracketSet", reportBracketSetMutation, in, &data); err != nil {
		return nil, err
	}
	return data.Sets, nil
}
