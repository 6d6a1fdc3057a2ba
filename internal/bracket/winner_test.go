package bracket_test

import (
	"testing"

	"github.com/dom/bracket-sync/internal/bracket"
	"github.com/dom/bracket-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withWinners(set *domain.Set, winners ...string) *domain.Set {
	for i, w := range winners {
		g := domain.Game{ID: "g", OrderNum: i + 1}
		if w != "" {
			g.WinnerID = domain.Ptr(w)
		}
		set.Games = append(set.Games, g)
	}
	return set
}

func TestDeriveWinner(t *testing.T) {
	tests := []struct {
		name    string
		winners []string
		want    string
		wantErr error
	}{
		{name: "three to one", winners: []string{entrantA, entrantB, entrantA, entrantA}, want: entrantA},
		{name: "second entrant ahead", winners: []string{entrantB, "", entrantB}, want: entrantB},
		{name: "two all", winners: []string{entrantA, entrantB, entrantA, entrantB}, wantErr: domain.ErrWinnerUndetermined},
		{name: "no games", wantErr: domain.ErrWinnerUndetermined},
		{name: "only undecided games", winners: []string{"", ""}, wantErr: domain.ErrWinnerUndetermined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := withWinners(newSet(), tt.winners...)

			got, err := bracket.DeriveWinner(set)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, domain.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveWinner(t *testing.T) {
	t.Run("explicit winner wins over game counts", func(t *testing.T) {
		set := withWinners(newSet(), entrantA, entrantA)
		set.WinnerID = domain.Ptr(entrantB)

		got, err := bracket.ResolveWinner(set)
		require.NoError(t, err)
		assert.Equal(t, entrantB, got)
	})

	t.Run("derives when unset", func(t *testing.T) {
		set := withWinners(newSet(), entrantB, entrantB, entrantA)

		got, err := bracket.ResolveWinner(set)
		require.NoError(t, err)
		assert.Equal(t, entrantB, got)
	})

	t.Run("unresolved slot", func(t *testing.T) {
		set := withWinners(newSet(), entrantA)
		set.Slots[1].Entrant = nil

		_, err := bracket.ResolveWinner(set)
		assert.ErrorIs(t, err, domain.ErrMissingEntrant)
	})

	t.Run("explicit winner outside the set", func(t *testing.T) {
		set := newSet()
		set.WinnerID = domain.Ptr("42")

		_, err := bracket.ResolveWinner(set)
		assert.ErrorIs(t, err, domain.ErrWinnerNotEntrant)
	})
}
