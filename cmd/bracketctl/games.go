package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dom/bracket-sync/internal/domain"
)

type gameResult struct {
	GameNum int
	Slot    int // 1 or 2
}

// parseGames reads "1:1,2:2,3:1". Game numbers must run from 1 without gaps.
func parseGames(s string) ([]gameResult, error) {
	var results []gameResult
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		num, slot, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("game %q: expected game:slot", part)
		}
		gameNum, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil || gameNum < 1 {
			return nil, fmt.Errorf("game %q: invalid game number", part)
		}
		slotNum, err := strconv.Atoi(strings.TrimSpace(slot))
		if err != nil || (slotNum != 1 && slotNum != 2) {
			return nil, fmt.Errorf("game %q: slot must be 1 or 2", part)
		}
		if seen[gameNum] {
			return nil, fmt.Errorf("game %d listed twice", gameNum)
		}
		seen[gameNum] = true
		results = append(results, gameResult{GameNum: gameNum, Slot: slotNum})
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no games given")
	}

	sort.Slice(results, func(i, j int) bool { return results[i].GameNum < results[j].GameNum })
	for i, r := range results {
		if r.GameNum != i+1 {
			return nil, fmt.Errorf("game %d missing", i+1)
		}
	}
	return results, nil
}

// setEditor is the part of the bracket service the report command drives.
type setEditor interface {
	ExpandSet(ctx context.Context, setID string) (*domain.Set, error)
	AddGame(ctx context.Context, setID string) (*domain.Set, error)
	DeleteGame(ctx context.Context, setID string, index int) (*domain.Set, error)
	SetGameWinner(ctx context.Context, setID string, index int, candidateID string) (*domain.Set, error)
}

// applyResults makes the set's games match results. Winners already in
// place are left alone, since choosing the current winner again clears it.
func applyResults(ctx context.Context, editor setEditor, setID string, results []gameResult) error {
	set, err := editor.ExpandSet(ctx, setID)
	if err != nil {
		return err
	}
	entrantA, entrantB, ok := set.EntrantIDs()
	if !ok {
		return &domain.ValidationError{SetID: setID, Reason: domain.ErrMissingEntrant}
	}

	for len(set.Games) < len(results) {
		if set, err = editor.AddGame(ctx, setID); err != nil {
			return err
		}
	}
	for len(set.Games) > len(results) {
		before := len(set.Games)
		if set, err = editor.DeleteGame(ctx, setID, len(set.Games)-1); err != nil {
			return err
		}
		if len(set.Games) == before {
			break
		}
	}

	for i, r := range results {
		winner := entrantA
		if r.Slot == 2 {
			winner = entrantB
		}
		if current := set.Games[i].WinnerID; current != nil && *current == winner {
			continue
		}
		if set, err = editor.SetGameWinner(ctx, setID, i, winner); err != nil {
			return err
		}
	}
	return nil
}
