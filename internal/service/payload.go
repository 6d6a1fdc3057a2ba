package service

import (
	"github.com/dom/bracket-sync/internal/bracket"
	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
)

// Save and submit are different remote operations with different contracts
// and are shaped by separate builders. Only the per-game mapping is shared.

// buildSavePayload shapes a non-terminal update. The set winner is always
// sent as null whatever the local set holds.
func buildSavePayload(set *domain.Set, isDQ bool) (startgg.UpdateBracketSetInput, error) {
	a, b, ok := set.EntrantIDs()
	if !ok {
		return startgg.UpdateBracketSetInput{}, &domain.ValidationError{SetID: set.ID, Reason: domain.ErrMissingEntrant}
	}
	return startgg.UpdateBracketSetInput{
		SetID:    set.ID,
		WinnerID: nil,
		IsDQ:     isDQ,
		GameData: gameData(set.Games, a, b),
	}, nil
}

// buildSubmitPayload shapes the terminal report. The winner is the set's
// explicit one or, failing that, the one derived from game results.
func buildSubmitPayload(set *domain.Set) (startgg.ReportBracketSetInput, error) {
	a, b, ok := set.EntrantIDs()
	if !ok {
		return startgg.ReportBracketSetInput{}, &domain.ValidationError{SetID: set.ID, Reason: domain.ErrMissingEntrant}
	}
	winner, err := bracket.ResolveWinner(set)
	if err != nil {
		return startgg.ReportBracketSetInput{}, err
	}
	return startgg.ReportBracketSetInput{
		SetID:    set.ID,
		WinnerID: winner,
		GameData: gameData(set.Games, a, b),
	}, nil
}

func gameData(games []domain.Game, entrantA, entrantB string) []startgg.GameDataInput {
	if len(games) == 0 {
		return nil
	}
	out := make([]startgg.GameDataInput, 0, len(games))
	for _, g := range games {
		out = append(out, gameDataInput(g, entrantA, entrantB))
	}
	return out
}

func gameDataInput(g domain.Game, entrantA, entrantB string) startgg.GameDataInput {
	in := startgg.GameDataInput{
		GameNum:       g.OrderNum,
		WinnerID:      g.WinnerID,
		Entrant1Score: g.Scores[0],
		Entrant2Score: g.Scores[1],
	}
	entrants := [2]string{entrantA, entrantB}
	for i, charID := range g.CharacterIDs {
		if charID == nil {
			continue
		}
		in.Selections = append(in.Selections, startgg.SelectionInput{
			EntrantID:   entrants[i],
			CharacterID: *charID,
		})
	}
	return in
}
