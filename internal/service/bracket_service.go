package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dom/bracket-sync/internal/bracket"
	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/dom/bracket-sync/internal/telemetry"
)

// BracketService loads an event's sets, applies local edits and writes
// results back to start.gg.
//
// Writes for one set are exclusive: a second save, submit, start or reset
// while one is outstanding fails with domain.ErrWriteInProgress. Responses
// are applied only if no newer request or local edit happened meanwhile.
type BracketService struct {
	gateway  Gateway
	store    *bracket.Store
	lookup   *LookupService
	notifier SetNotifier
	instrumentation

	writeMu sync.Mutex
	writing map[string]struct{}
}

func NewBracketService(
	gateway Gateway,
	store *bracket.Store,
	lookup *LookupService,
	notifier SetNotifier,
	logger *slog.Logger,
	metrics *telemetry.Metrics,
) *BracketService {
	if store == nil {
		store = bracket.NewStore()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &BracketService{
		gateway:         gateway,
		store:           store,
		lookup:          lookup,
		notifier:        notifier,
		instrumentation: newInstrumentation(logger, metrics),
		writing:         make(map[string]struct{}),
	}
}

// LoadSets replaces the store with the sets of eventID and starts a
// background fetch of every participant's player profile.
func (s *BracketService) LoadSets(ctx context.Context, eventID string) ([]*domain.Set, error) {
	return withTelemetry(s.instrumentation, ctx, "LoadSets", "", func(ctx context.Context) ([]*domain.Set, error) {
		ev, err := s.gateway.EventSets(ctx, eventID)
		if err != nil {
			return nil, err
		}
		sets := bracket.ConvertEventSets(ev)
		s.store.Replace(eventID, sets)

		if s.lookup != nil {
			s.lookup.RememberVideogame(ctx, bracket.ConvertVideogame(ev.Videogame))
			s.lookup.PrefetchPlayersAsync(s.store.ParticipantPlayerIDs())
		}

		s.logger.InfoContext(ctx, "sets loaded",
			slog.String("event_id", eventID),
			slog.Int("count", len(sets)),
		)
		loaded := s.store.List()
		s.notifier.SetsLoaded(eventID, loaded)
		return loaded, nil
	})
}

func (s *BracketService) ListSets() []*domain.Set {
	return s.store.List()
}

func (s *BracketService) GetSet(setID string) (*domain.Set, error) {
	return s.store.Get(setID)
}

// ExpandSet marks the set expanded and loads its details the first time.
// While a load for the set is running, further calls return immediately.
func (s *BracketService) ExpandSet(ctx context.Context, setID string) (*domain.Set, error) {
	return withTelemetry(s.instrumentation, ctx, "ExpandSet", setID, func(ctx context.Context) (*domain.Set, error) {
		fetch, seq, set, err := s.store.Expand(setID)
		if err != nil {
			return nil, err
		}
		if !fetch {
			return set, nil
		}
		return s.fetchDetails(ctx, setID, seq)
	})
}

func (s *BracketService) CollapseSet(setID string) (*domain.Set, error) {
	return s.store.Collapse(setID)
}

// FetchSetDetails reloads a set's details regardless of expansion state.
func (s *BracketService) FetchSetDetails(ctx context.Context, setID string) (*domain.Set, error) {
	return withTelemetry(s.instrumentation, ctx, "FetchSetDetails", setID, func(ctx context.Context) (*domain.Set, error) {
		seq, err := s.store.BeginRefresh(setID)
		if err != nil {
			return nil, err
		}
		return s.fetchDetails(ctx, setID, seq)
	})
}

// fetchDetails runs detail fetch seq to completion. A superseded response
// is dropped and the current state returned without error.
func (s *BracketService) fetchDetails(ctx context.Context, setID string, seq uint64) (*domain.Set, error) {
	raw, err := s.gateway.SetDetails(ctx, setID)
	if err != nil {
		if _, finishErr := s.store.FinishDetails(setID, seq, nil); finishErr != nil {
			s.logger.WarnContext(ctx, "finishing failed detail fetch", slog.String("set_id", setID), slog.Any("error", finishErr))
		}
		s.notifier.SetError(setID, err)
		return nil, err
	}

	set, err := s.store.FinishDetails(setID, seq, func(set *domain.Set) {
		bracket.ApplyDetails(set, raw)
	})
	if errors.Is(err, domain.ErrStaleResponse) {
		s.metrics.RecordStaleResponse()
		s.logger.DebugContext(ctx, "discarding stale set details", slog.String("set_id", setID), slog.Uint64("seq", seq))
		return set, nil
	}
	if err != nil {
		return nil, err
	}

	if s.lookup != nil {
		s.lookup.RememberVideogame(ctx, set.Videogame)
	}
	s.notifier.SetUpdated(set)
	return set, nil
}

// Local edits. Indices come from callers and are validated here so the
// pure operations never see an invalid one.

func (s *BracketService) AddGame(ctx context.Context, setID string) (*domain.Set, error) {
	return s.edit(ctx, "AddGame", setID, func(set *domain.Set) error {
		bracket.AddGame(set)
		return nil
	})
}

// DeleteGame removes a game. Deleting the only game is refused silently and
// returns the unchanged set.
func (s *BracketService) DeleteGame(ctx context.Context, setID string, index int) (*domain.Set, error) {
	set, err := s.edit(ctx, "DeleteGame", setID, func(set *domain.Set) error {
		if err := bracket.CheckGameIndex(set, index); err != nil {
			return err
		}
		if !bracket.DeleteGame(set, index) {
			return errLastGame
		}
		return nil
	})
	if errors.Is(err, errLastGame) {
		return s.store.Get(setID)
	}
	return set, err
}

var errLastGame = errors.New("set keeps at least one game")

func (s *BracketService) SetGameWinner(ctx context.Context, setID string, index int, candidateID string) (*domain.Set, error) {
	return s.edit(ctx, "SetGameWinner", setID, func(set *domain.Set) error {
		if err := bracket.CheckGameIndex(set, index); err != nil {
			return err
		}
		if !set.IsEntrant(candidateID) {
			return fmt.Errorf("candidate %s: %w", candidateID, domain.ErrCandidateNotEntrant)
		}
		bracket.SetGameWinner(set, index, candidateID)
		return nil
	})
}

func (s *BracketService) SetGameScore(ctx context.Context, setID string, index, entrantIndex int, score *int) (*domain.Set, error) {
	return s.edit(ctx, "SetGameScore", setID, func(set *domain.Set) error {
		if err := bracket.CheckGameIndex(set, index); err != nil {
			return err
		}
		if err := bracket.CheckEntrantIndex(entrantIndex); err != nil {
			return err
		}
		bracket.SetGameScore(set, index, entrantIndex, score)
		return nil
	})
}

func (s *BracketService) SelectCharacter(ctx context.Context, setID string, index, entrantIndex int, characterID string) (*domain.Set, error) {
	return s.edit(ctx, "SelectCharacter", setID, func(set *domain.Set) error {
		if err := bracket.CheckGameIndex(set, index); err != nil {
			return err
		}
		if err := bracket.CheckEntrantIndex(entrantIndex); err != nil {
			return err
		}
		if set.Videogame != nil && len(set.Videogame.Characters) > 0 && !set.Videogame.HasCharacter(characterID) {
			return fmt.Errorf("character %s: %w", characterID, domain.ErrUnknownCharacter)
		}
		bracket.SelectCharacter(set, index, entrantIndex, characterID)
		return nil
	})
}

func (s *BracketService) edit(ctx context.Context, operation, setID string, fn func(*domain.Set) error) (*domain.Set, error) {
	return withTelemetry(s.instrumentation, ctx, operation, setID, func(ctx context.Context) (*domain.Set, error) {
		set, err := s.store.Edit(setID, fn)
		if err != nil {
			return nil, err
		}
		s.notifier.SetUpdated(set)
		return set, nil
	})
}

// SaveOptions tunes a non-terminal save.
type SaveOptions struct {
	IsDQ bool
}

// SaveSet sends the games to start.gg without completing the set.
func (s *BracketService) SaveSet(ctx context.Context, setID string, opts SaveOptions) (*domain.Set, error) {
	return withTelemetry(s.instrumentation, ctx, "SaveSet", setID, func(ctx context.Context) (*domain.Set, error) {
		var payload startgg.UpdateBracketSetInput
		prepare := func(set *domain.Set) (err error) {
			payload, err = buildSavePayload(set, opts.IsDQ)
			return err
		}
		send := func(ctx context.Context) (*startgg.Set, error) {
			return s.gateway.UpdateBracketSet(ctx, payload)
		}
		set, err := s.write(ctx, setID, prepare, send, reconcileWrite)
		if err == nil || errors.Is(err, domain.ErrRefetchFailed) {
			s.notifier.SetSaved(set)
		}
		return set, err
	})
}

// SubmitSet reports the set as complete. Without an explicit winner one is
// derived from the games; if none can be, nothing is sent.
func (s *BracketService) SubmitSet(ctx context.Context, setID string) (*domain.Set, error) {
	return withTelemetry(s.instrumentation, ctx, "SubmitSet", setID, func(ctx context.Context) (*domain.Set, error) {
		var payload startgg.ReportBracketSetInput
		prepare := func(set *domain.Set) (err error) {
			payload, err = buildSubmitPayload(set)
			return err
		}
		send := func(ctx context.Context) (*startgg.Set, error) {
			affected, err := s.gateway.ReportBracketSet(ctx, payload)
			if err != nil {
				return nil, err
			}
			for i := range affected {
				if affected[i].ID.String() == setID {
					return &affected[i], nil
				}
			}
			s.logger.WarnContext(ctx, "reported set missing from result",
				slog.String("set_id", setID),
				slog.Int("affected", len(affected)),
			)
			return nil, nil
		}
		set, err := s.write(ctx, setID, prepare, send, reconcileWrite)
		if err == nil || errors.Is(err, domain.ErrRefetchFailed) {
			s.notifier.SetSubmitted(set)
		}
		return set, err
	})
}

// StartSet marks the set in progress. Local edits that are not saved yet
// are kept; the details are re-fetched only when there are none.
func (s *BracketService) StartSet(ctx context.Context, setID string) (*domain.Set, error) {
	return withTelemetry(s.instrumentation, ctx, "StartSet", setID, func(ctx context.Context) (*domain.Set, error) {
		send := func(ctx context.Context) (*startgg.Set, error) {
			return s.gateway.MarkSetInProgress(ctx, setID)
		}
		reconcile := func(set *domain.Set, raw *startgg.Set) {
			if raw != nil {
				bracket.ApplyWriteResult(set, raw)
			}
		}
		return s.write(ctx, setID, nil, send, reconcile)
	})
}

// ResetSet clears the reported result of a set, and optionally of the sets
// that depend on it. Local games are dropped and re-fetched.
func (s *BracketService) ResetSet(ctx context.Context, setID string, resetDependentSets bool) (*domain.Set, error) {
	return withTelemetry(s.instrumentation, ctx, "ResetSet", setID, func(ctx context.Context) (*domain.Set, error) {
		send := func(ctx context.Context) (*startgg.Set, error) {
			return s.gateway.ResetSet(ctx, setID, resetDependentSets)
		}
		reconcile := func(set *domain.Set, raw *startgg.Set) {
			reconcileWrite(set, raw)
			set.Games = []domain.Game{}
		}
		return s.write(ctx, setID, nil, send, reconcile)
	})
}

// reconcileWrite applies a successful save or submit. A nil response means
// the remote accepted the write without returning the set.
func reconcileWrite(set *domain.Set, raw *startgg.Set) {
	if raw != nil {
		bracket.ApplyWriteResult(set, raw)
	}
	set.IsDirty = false
}

// write runs one remote write for setID under the set's write lock.
//
// prepare vets the snapshot the request is built from; its error aborts the
// write before any network call. On success reconcile is applied if no newer
// request or local edit superseded this one, and the details are re-fetched.
func (s *BracketService) write(
	ctx context.Context,
	setID string,
	prepare func(*domain.Set) error,
	send func(context.Context) (*startgg.Set, error),
	reconcile func(*domain.Set, *startgg.Set),
) (*domain.Set, error) {
	if err := s.acquireWrite(setID); err != nil {
		return nil, err
	}
	defer s.releaseWrite(setID)

	_, seq, err := s.store.Issue(setID, prepare)
	if err != nil {
		return nil, err
	}

	raw, err := send(ctx)
	if err != nil {
		s.notifier.SetError(setID, err)
		return nil, err
	}

	set, err := s.store.Apply(setID, seq, func(set *domain.Set) { reconcile(set, raw) })
	if err != nil {
		if errors.Is(err, domain.ErrStaleResponse) {
			s.metrics.RecordStaleResponse()
		}
		return set, err
	}

	if set.IsDirty {
		// Only a start keeps local edits; re-fetching would drop them.
		return set, nil
	}

	refreshSeq, err := s.store.BeginRefresh(setID)
	if err != nil {
		return set, err
	}
	refreshed, err := s.fetchDetails(ctx, setID, refreshSeq)
	if err != nil {
		s.logger.WarnContext(ctx, "re-fetch after write failed", slog.String("set_id", setID), slog.Any("error", err))
		current, getErr := s.store.Get(setID)
		if getErr != nil {
			current = set
		}
		return current, fmt.Errorf("%w: %w", domain.ErrRefetchFailed, err)
	}
	return refreshed, nil
}

func (s *BracketService) acquireWrite(setID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, busy := s.writing[setID]; busy {
		return fmt.Errorf("set %s: %w", setID, domain.ErrWriteInProgress)
	}
	s.writing[setID] = struct{}{}
	return nil
}

func (s *BracketService) releaseWrite(setID string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	delete(s.writing, setID)
}
