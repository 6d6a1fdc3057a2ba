package bracket

import (
	"fmt"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/google/uuid"
)

// The edit operations below run synchronously and never touch the network.
// Out-of-range indices are programming errors and panic; callers taking
// indices from users validate them first (see CheckGameIndex).

// AddGame appends an empty game numbered after the highest existing one.
func AddGame(set *domain.Set) domain.Game {
	next := 1
	for _, g := range set.Games {
		if g.OrderNum >= next {
			next = g.OrderNum + 1
		}
	}
	game := domain.Game{
		ID:       domain.TempGameIDPrefix + uuid.NewString(),
		OrderNum: next,
	}
	set.Games = append(set.Games, game)
	set.IsDirty = true
	return game
}

// DeleteGame removes the game at index. A set keeps at least one game, so
// deleting the last one is refused and reported as false.
func DeleteGame(set *domain.Set, index int) bool {
	mustGameIndex(set, index)
	if len(set.Games) <= 1 {
		return false
	}
	set.Games = append(set.Games[:index], set.Games[index+1:]...)
	set.IsDirty = true
	return true
}

// SetGameWinner toggles the winner of a game. Choosing the current winner
// clears it and zeroes both scores; choosing anyone else records a 1-0 split
// in their favour, replacing whatever scores were entered.
func SetGameWinner(set *domain.Set, index int, candidateID string) {
	mustGameIndex(set, index)
	winnerIdx := set.EntrantIndex(candidateID)
	if winnerIdx < 0 {
		panic(fmt.Sprintf("bracket: %s is not an entrant of set %s", candidateID, set.ID))
	}

	game := &set.Games[index]
	if game.WinnerID != nil && *game.WinnerID == candidateID {
		game.WinnerID = nil
		game.Scores = [2]*int{domain.Ptr(0), domain.Ptr(0)}
	} else {
		game.WinnerID = domain.Ptr(candidateID)
		game.Scores[winnerIdx] = domain.Ptr(1)
		game.Scores[1-winnerIdx] = domain.Ptr(0)
	}
	set.IsDirty = true
}

// SetGameScore overwrites one side's score. The game winner is not touched.
func SetGameScore(set *domain.Set, index, entrantIndex int, score *int) {
	mustGameIndex(set, index)
	mustEntrantIndex(entrantIndex)
	set.Games[index].Scores[entrantIndex] = cloneInt(score)
	set.IsDirty = true
}

// SelectCharacter toggles one side's character: picking the current one
// clears it, picking another replaces it.
func SelectCharacter(set *domain.Set, index, entrantIndex int, characterID string) {
	mustGameIndex(set, index)
	mustEntrantIndex(entrantIndex)
	slot := &set.Games[index].CharacterIDs[entrantIndex]
	if *slot != nil && **slot == characterID {
		*slot = nil
	} else {
		*slot = domain.Ptr(characterID)
	}
	set.IsDirty = true
}

// CheckGameIndex returns domain.ErrInvalidGameIndex for an index outside the
// set's games.
func CheckGameIndex(set *domain.Set, index int) error {
	if index < 0 || index >= len(set.Games) {
		return fmt.Errorf("game %d of %d: %w", index, len(set.Games), domain.ErrInvalidGameIndex)
	}
	return nil
}

func CheckEntrantIndex(entrantIndex int) error {
	if entrantIndex != 0 && entrantIndex != 1 {
		return fmt.Errorf("entrant %d: %w", entrantIndex, domain.ErrInvalidEntrantIndex)
	}
	return nil
}

func mustGameIndex(set *domain.Set, index int) {
	if err := CheckGameIndex(set, index); err != nil {
		panic("bracket: " + err.Error())
	}
}

func mustEntrantIndex(entrantIndex int) {
	if err := CheckEntrantIndex(entrantIndex); err != nil {
		panic("bracket: " + err.Error())
	}
}
