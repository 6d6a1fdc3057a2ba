package service_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
)

// ------------------------
// Fake Gateway
// ------------------------

// FakeGateway is a programmable stand-in for the start.gg client. A method
// without a Func returns zero values.
type FakeGateway struct {
	mu    sync.Mutex
	trace []string

	EventSetsFunc         func(ctx context.Context, eventID string) (*startgg.Event, error)
	SetDetailsFunc        func(ctx context.Context, setID string) (*startgg.Set, error)
	MarkSetInProgressFunc func(ctx context.Context, setID string) (*startgg.Set, error)
	ResetSetFunc          func(ctx context.Context, setID string, resetDependentSets bool) (*startgg.Set, error)
	UpdateBracketSetFunc  func(ctx context.Context, in startgg.UpdateBracketSetInput) (*startgg.Set, error)
	ReportBracketSetFunc  func(ctx context.Context, in startgg.ReportBracketSetInput) ([]startgg.Set, error)

	PlayerFunc           func(ctx context.Context, playerID string) (*startgg.Player, error)
	CurrentUserFunc      func(ctx context.Context) (*startgg.User, error)
	AdminTournamentsFunc func(ctx context.Context) ([]startgg.Tournament, error)
	TournamentEventsFunc func(ctx context.Context, tournamentID string) (*startgg.Tournament, error)
	EventEntrantsFunc    func(ctx context.Context, eventID string) ([]startgg.Entrant, error)
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{trace: []string{}}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeGateway) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Count returns how many times step was called.
func (f *FakeGateway) Count(step string) int {
	n := 0
	for _, s := range f.Trace() {
		if s == step {
			n++
		}
	}
	return n
}

func (f *FakeGateway) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeGateway) EventSets(ctx context.Context, eventID string) (*startgg.Event, error) {
	f.record("EventSets")
	if f.EventSetsFunc != nil {
		return f.EventSetsFunc(ctx, eventID)
	}
	return nil, startgg.ErrNotFound
}

func (f *FakeGateway) SetDetails(ctx context.Context, setID string) (*startgg.Set, error) {
	f.record("SetDetails")
	if f.SetDetailsFunc != nil {
		return f.SetDetailsFunc(ctx, setID)
	}
	return nil, startgg.ErrNotFound
}

func (f *FakeGateway) MarkSetInProgress(ctx context.Context, setID string) (*startgg.Set, error) {
	f.record("MarkSetInProgress")
	if f.MarkSetInProgressFunc != nil {
		return f.MarkSetInProgressFunc(ctx, setID)
	}
	return nil, nil
}

func (f *FakeGateway) ResetSet(ctx context.Context, setID string, resetDependentSets bool) (*startgg.Set, error) {
	f.record("ResetSet")
	if f.ResetSetFunc != nil {
		return f.ResetSetFunc(ctx, setID, resetDependentSets)
	}
	return nil, nil
}

func (f *FakeGateway) UpdateBracketSet(ctx context.Context, in startgg.UpdateBracketSetInput) (*startgg.Set, error) {
	f.record("UpdateBracketSet")
	if f.UpdateBracketSetFunc != nil {
		return f.UpdateBracketSetFunc(ctx, in)
	}
	return nil, nil
}

func (f *FakeGateway) ReportBracketSet(ctx context.Context, in startgg.ReportBracketSetInput) ([]startgg.Set, error) {
	f.record("ReportBracketSet")
	if f.ReportBracketSetFunc != nil {
		return f.ReportBracketSetFunc(ctx, in)
	}
	return nil, nil
}

func (f *FakeGateway) Player(ctx context.Context, playerID string) (*startgg.Player, error) {
	f.record("Player")
	if f.PlayerFunc != nil {
		return f.PlayerFunc(ctx, playerID)
	}
	return nil, startgg.ErrNotFound
}

func (f *FakeGateway) CurrentUser(ctx context.Context) (*startgg.User, error) {
	f.record("CurrentUser")
	if f.CurrentUserFunc != nil {
		return f.CurrentUserFunc(ctx)
	}
	return nil, startgg.ErrNotFound
}

func (f *FakeGateway) AdminTournaments(ctx context.Context) ([]startgg.Tournament, error) {
	f.record("AdminTournaments")
	if f.AdminTournamentsFunc != nil {
		return f.AdminTournamentsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeGateway) TournamentEvents(ctx context.Context, tournamentID string) (*startgg.Tournament, error) {
	f.record("TournamentEvents")
	if f.TournamentEventsFunc != nil {
		return f.TournamentEventsFunc(ctx, tournamentID)
	}
	return nil, startgg.ErrNotFound
}

func (f *FakeGateway) EventEntrants(ctx context.Context, eventID string) ([]startgg.Entrant, error) {
	f.record("EventEntrants")
	if f.EventEntrantsFunc != nil {
		return f.EventEntrantsFunc(ctx, eventID)
	}
	return nil, nil
}

// ------------------------
// Fake Notifier
// ------------------------

type FakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *FakeNotifier) add(kind, setID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind+":"+setID)
}

func (n *FakeNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func (n *FakeNotifier) SetsLoaded(eventID string, _ []*domain.Set) { n.add("loaded", eventID) }
func (n *FakeNotifier) SetUpdated(set *domain.Set)                 { n.add("updated", set.ID) }
func (n *FakeNotifier) SetSaved(set *domain.Set)                   { n.add("saved", set.ID) }
func (n *FakeNotifier) SetSubmitted(set *domain.Set)               { n.add("submitted", set.ID) }
func (n *FakeNotifier) SetError(setID string, _ error)             { n.add("error", setID) }

// ------------------------
// Payload builders
// ------------------------

const (
	eventID     = "900"
	setID       = "500"
	entrantA    = "1001"
	entrantB    = "1002"
	videogameID = "1386"
)

func intPtr(v int) *int { return &v }

func idPtr(v string) *startgg.ID {
	id := startgg.ID(v)
	return &id
}

func rawEntrant(id, playerID, tag string) *startgg.Entrant {
	return &startgg.Entrant{
		ID:   startgg.ID(id),
		Name: tag,
		Participants: []startgg.Participant{{
			ID:     startgg.ID("part-" + id),
			Player: &startgg.Player{ID: startgg.ID(playerID), GamerTag: tag},
		}},
	}
}

// rawVideogame returns a videogame with characters c1 to cN.
func rawVideogame(n int) *startgg.Videogame {
	vg := &startgg.Videogame{ID: videogameID, Name: "Super Smash Bros. Ultimate"}
	for i := 1; i <= n; i++ {
		vg.Characters = append(vg.Characters, startgg.Character{
			ID:   startgg.ID(fmt.Sprintf("c%d", i)),
			Name: fmt.Sprintf("Character %d", i),
		})
	}
	return vg
}

// rawSet builds set id between entrantA and entrantB. A nil second entrant
// leaves that slot unresolved.
func rawSet(id string, second *startgg.Entrant, games ...startgg.Game) startgg.Set {
	return startgg.Set{
		ID:    startgg.ID(id),
		State: intPtr(int(domain.SetStateInProgress)),
		Round: intPtr(1),
		Slots: []startgg.Slot{
			{ID: startgg.ID(id + "-s1"), Entrant: rawEntrant(entrantA, "p1", "Alpha")},
			{ID: startgg.ID(id + "-s2"), Entrant: second},
		},
		Games: games,
	}
}

func rawGame(id string, orderNum int, winner string) startgg.Game {
	g := startgg.Game{ID: startgg.ID(id), OrderNum: orderNum}
	if winner != "" {
		g.WinnerID = idPtr(winner)
	}
	return g
}

func rawEvent(sets ...startgg.Set) *startgg.Event {
	ev := &startgg.Event{
		ID:        eventID,
		Name:      "Ultimate Singles",
		Videogame: rawVideogame(8),
	}
	ev.Sets = &struct {
		Nodes []startgg.Set `json:"nodes"`
	}{Nodes: sets}
	return ev
}

// withDetails adds the event videogame block a detail query returns.
func withDetails(set startgg.Set, vg *startgg.Videogame) *startgg.Set {
	set.Event = &struct {
		Videogame *startgg.Videogame `json:"videogame"`
	}{Videogame: vg}
	return &set
}
