package bracket

import (
	"github.com/dom/bracket-sync/internal/domain"
)

// DeriveWinner counts game wins per entrant. The entrant with strictly more
// wins is returned; a tie, including no decided games, is a validation error.
func DeriveWinner(set *domain.Set) (string, error) {
	a, b, ok := set.EntrantIDs()
	if !ok {
		return "", &domain.ValidationError{SetID: set.ID, Reason: domain.ErrMissingEntrant}
	}

	var winsA, winsB int
	for _, g := range set.Games {
		if g.WinnerID == nil {
			continue
		}
		switch *g.WinnerID {
		case a:
			winsA++
		case b:
			winsB++
		}
	}

	switch {
	case winsA > winsB:
		return a, nil
	case winsB > winsA:
		return b, nil
	default:
		return "", &domain.ValidationError{SetID: set.ID, Reason: domain.ErrWinnerUndetermined}
	}
}

// ResolveWinner returns the set's explicit winner, or derives one when none
// is recorded.
func ResolveWinner(set *domain.Set) (string, error) {
	if _, _, ok := set.EntrantIDs(); !ok {
		return "", &domain.ValidationError{SetID: set.ID, Reason: domain.ErrMissingEntrant}
	}
	if set.WinnerID == nil {
		return DeriveWinner(set)
	}
	if !set.IsEntrant(*set.WinnerID) {
		return "", &domain.ValidationError{SetID: set.ID, Reason: domain.ErrWinnerNotEntrant}
	}
	return *set.WinnerID, nil
}
