package bracket_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dom/bracket-sync/internal/bracket"
	"github.com/dom/bracket-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	entrantA = "1001"
	entrantB = "1002"
)

// newSet builds a set between entrantA and entrantB with games numbered
// orderNums.
func newSet(orderNums ...int) *domain.Set {
	set := &domain.Set{
		ID:    "500",
		State: domain.SetStateInProgress,
		Slots: [2]domain.Slot{
			{ID: "s1", Entrant: &domain.Entrant{ID: entrantA, Name: "Alpha"}},
			{ID: "s2", Entrant: &domain.Entrant{ID: entrantB, Name: "Bravo"}},
		},
		Videogame: &domain.Videogame{ID: "1386", Name: "Smash Ultimate", Characters: []domain.Character{
			{ID: "c1", Name: "Mario"},
			{ID: "c2", Name: "Link"},
		}},
		Games: []domain.Game{},
	}
	for _, n := range orderNums {
		set.Games = append(set.Games, domain.Game{ID: fmt.Sprintf("g%d", n), OrderNum: n})
	}
	return set
}

func TestAddGame(t *testing.T) {
	tests := []struct {
		name      string
		orderNums []int
		wantOrder int
	}{
		{name: "empty set starts at one", wantOrder: 1},
		{name: "follows highest", orderNums: []int{1, 2, 3}, wantOrder: 4},
		{name: "gaps use max not length", orderNums: []int{1, 5}, wantOrder: 6},
		{name: "unsorted input", orderNums: []int{3, 1}, wantOrder: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := newSet(tt.orderNums...)

			game := bracket.AddGame(set)

			assert.Equal(t, tt.wantOrder, game.OrderNum)
			assert.True(t, strings.HasPrefix(game.ID, domain.TempGameIDPrefix))
			assert.True(t, game.IsTemporary())
			assert.Nil(t, game.WinnerID)
			assert.Equal(t, [2]*int{}, game.Scores)
			assert.Equal(t, [2]*string{}, game.CharacterIDs)
			assert.Len(t, set.Games, len(tt.orderNums)+1)
			assert.True(t, set.IsDirty)
		})
	}
}

func TestDeleteGame_NeverBelowOne(t *testing.T) {
	set := newSet(1, 2, 3)

	assert.True(t, bracket.DeleteGame(set, 1))
	assert.Equal(t, []int{1, 3}, orderNums(set))

	assert.True(t, bracket.DeleteGame(set, 0))
	assert.Equal(t, []int{3}, orderNums(set))

	set.IsDirty = false
	assert.False(t, bracket.DeleteGame(set, 0))
	assert.Len(t, set.Games, 1)
	assert.False(t, set.IsDirty)
}

func TestDeleteGame_InvalidIndexPanics(t *testing.T) {
	set := newSet(1, 2)
	assert.Panics(t, func() { bracket.DeleteGame(set, 2) })
	assert.Panics(t, func() { bracket.DeleteGame(set, -1) })
}

func TestSetGameWinner(t *testing.T) {
	t.Run("sets one-zero split for first slot", func(t *testing.T) {
		set := newSet(1)
		bracket.SetGameWinner(set, 0, entrantA)

		game := set.Games[0]
		require.NotNil(t, game.WinnerID)
		assert.Equal(t, entrantA, *game.WinnerID)
		assert.Equal(t, 1, *game.Scores[0])
		assert.Equal(t, 0, *game.Scores[1])
		assert.True(t, set.IsDirty)
	})

	t.Run("sets one-zero split for second slot", func(t *testing.T) {
		set := newSet(1)
		bracket.SetGameWinner(set, 0, entrantB)

		assert.Equal(t, 0, *set.Games[0].Scores[0])
		assert.Equal(t, 1, *set.Games[0].Scores[1])
	})

	t.Run("overwrites entered scores", func(t *testing.T) {
		set := newSet(1)
		bracket.SetGameScore(set, 0, 0, domain.Ptr(3))
		bracket.SetGameScore(set, 0, 1, domain.Ptr(2))

		bracket.SetGameWinner(set, 0, entrantB)

		assert.Equal(t, 0, *set.Games[0].Scores[0])
		assert.Equal(t, 1, *set.Games[0].Scores[1])
	})

	t.Run("applied twice clears winner and zeroes scores", func(t *testing.T) {
		set := newSet(1)
		bracket.SetGameWinner(set, 0, entrantA)
		bracket.SetGameWinner(set, 0, entrantA)

		game := set.Games[0]
		assert.Nil(t, game.WinnerID)
		require.NotNil(t, game.Scores[0])
		require.NotNil(t, game.Scores[1])
		assert.Equal(t, 0, *game.Scores[0])
		assert.Equal(t, 0, *game.Scores[1])
		assert.True(t, set.IsDirty)
	})

	t.Run("switching winner flips split", func(t *testing.T) {
		set := newSet(1)
		bracket.SetGameWinner(set, 0, entrantA)
		bracket.SetGameWinner(set, 0, entrantB)

		assert.Equal(t, entrantB, *set.Games[0].WinnerID)
		assert.Equal(t, 0, *set.Games[0].Scores[0])
		assert.Equal(t, 1, *set.Games[0].Scores[1])
	})

	t.Run("non entrant panics", func(t *testing.T) {
		set := newSet(1)
		assert.Panics(t, func() { bracket.SetGameWinner(set, 0, "999") })
	})
}

func TestSetGameScore_KeepsWinner(t *testing.T) {
	set := newSet(1)
	bracket.SetGameWinner(set, 0, entrantA)

	bracket.SetGameScore(set, 0, 1, domain.Ptr(5))

	assert.Equal(t, entrantA, *set.Games[0].WinnerID)
	assert.Equal(t, 5, *set.Games[0].Scores[1])

	bracket.SetGameScore(set, 0, 1, nil)
	assert.Nil(t, set.Games[0].Scores[1])

	assert.Panics(t, func() { bracket.SetGameScore(set, 0, 2, domain.Ptr(1)) })
}

func TestSelectCharacter(t *testing.T) {
	set := newSet(1)

	bracket.SelectCharacter(set, 0, 0, "c1")
	require.NotNil(t, set.Games[0].CharacterIDs[0])
	assert.Equal(t, "c1", *set.Games[0].CharacterIDs[0])
	assert.Nil(t, set.Games[0].CharacterIDs[1])

	bracket.SelectCharacter(set, 0, 0, "c2")
	assert.Equal(t, "c2", *set.Games[0].CharacterIDs[0], "different id overwrites without a clear")

	bracket.SelectCharacter(set, 0, 1, "c2")
	assert.Equal(t, "c2", *set.Games[0].CharacterIDs[1], "slots are independent")

	bracket.SelectCharacter(set, 0, 0, "c2")
	assert.Nil(t, set.Games[0].CharacterIDs[0], "same id toggles off")
	assert.Equal(t, "c2", *set.Games[0].CharacterIDs[1])
	assert.True(t, set.IsDirty)
}

func TestCheckIndices(t *testing.T) {
	set := newSet(1, 2)
	assert.NoError(t, bracket.CheckGameIndex(set, 1))
	assert.ErrorIs(t, bracket.CheckGameIndex(set, 2), domain.ErrInvalidGameIndex)
	assert.ErrorIs(t, bracket.CheckGameIndex(set, -1), domain.ErrInvalidGameIndex)
	assert.NoError(t, bracket.CheckEntrantIndex(0))
	assert.ErrorIs(t, bracket.CheckEntrantIndex(2), domain.ErrInvalidEntrantIndex)
}

func orderNums(set *domain.Set) []int {
	out := make([]int, len(set.Games))
	for i, g := range set.Games {
		out[i] = g.OrderNum
	}
	return out
}
