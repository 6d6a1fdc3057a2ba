package testutil

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
)

// EventBuilder creates start.gg events for FakeStartGG with a builder
// pattern. Names come from gofakeit; ids are sequential so tests can rely
// on them: sets are <eventID>01, <eventID>02, ... and the entrants of set
// N are <setID>1 and <setID>2.
type EventBuilder struct {
	faker      *gofakeit.Faker
	id         string
	name       string
	characters int
	sets       []startgg.Set
}

// NewEventBuilder creates a builder. An optional seed makes names
// reproducible.
func NewEventBuilder(eventID string, seed ...uint64) *EventBuilder {
	var s uint64
	if len(seed) > 0 {
		s = seed[0]
	}
	faker := gofakeit.New(s)
	return &EventBuilder{
		faker:      faker,
		id:         eventID,
		name:       faker.Gamertag() + " Singles",
		characters: 8,
	}
}

// WithCharacters sets the size of the videogame's character list.
func (b *EventBuilder) WithCharacters(n int) *EventBuilder {
	b.characters = n
	return b
}

// WithSet adds a set between two resolved entrants with games whose winners
// alternate, starting with the first entrant.
func (b *EventBuilder) WithSet(state domain.SetState, games int) *EventBuilder {
	setID := fmt.Sprintf("%s%02d", b.id, len(b.sets)+1)
	first, second := b.entrant(setID+"1"), b.entrant(setID+"2")

	set := startgg.Set{
		ID:    startgg.ID(setID),
		State: domain.Ptr(int(state)),
		Round: domain.Ptr(1),
		Slots: []startgg.Slot{
			{ID: startgg.ID(setID + "-s1"), Entrant: first},
			{ID: startgg.ID(setID + "-s2"), Entrant: second},
		},
	}
	for i := 1; i <= games; i++ {
		winner := first.ID
		if i%2 == 0 {
			winner = second.ID
		}
		set.Games = append(set.Games, startgg.Game{
			ID:       startgg.ID(fmt.Sprintf("%s-g%d", setID, i)),
			OrderNum: i,
			WinnerID: &winner,
		})
	}
	b.sets = append(b.sets, set)
	return b
}

// WithUnresolvedSet adds a set whose second slot is still TBD.
func (b *EventBuilder) WithUnresolvedSet() *EventBuilder {
	setID := fmt.Sprintf("%s%02d", b.id, len(b.sets)+1)
	b.sets = append(b.sets, startgg.Set{
		ID:    startgg.ID(setID),
		State: domain.Ptr(int(domain.SetStatePending)),
		Slots: []startgg.Slot{
			{ID: startgg.ID(setID + "-s1"), Entrant: b.entrant(setID + "1")},
			{ID: startgg.ID(setID + "-s2")},
		},
	})
	return b
}

func (b *EventBuilder) entrant(id string) *startgg.Entrant {
	tag := b.faker.Gamertag()
	playerID := "p" + id
	return &startgg.Entrant{
		ID:   startgg.ID(id),
		Name: tag,
		Participants: []startgg.Participant{{
			ID: startgg.ID("pt" + id),
			Player: &startgg.Player{
				ID:       startgg.ID(playerID),
				GamerTag: tag,
				User: &startgg.User{
					ID:     startgg.ID("u" + id),
					Slug:   "user/" + b.faker.LetterN(8),
					Images: []startgg.Image{{URL: b.faker.URL() + "/avatar.png", Type: "profile"}},
				},
			},
		}},
	}
}

func (b *EventBuilder) Build() *startgg.Event {
	vg := &startgg.Videogame{ID: "1386", Name: "Super Smash Bros. Ultimate"}
	for i := 1; i <= b.characters; i++ {
		vg.Characters = append(vg.Characters, startgg.Character{
			ID:   startgg.ID(fmt.Sprintf("%d", 1300+i)),
			Name: b.faker.FirstName(),
		})
	}

	ev := &startgg.Event{
		ID:        startgg.ID(b.id),
		Name:      b.name,
		Videogame: vg,
	}
	ev.Sets = &struct {
		Nodes []startgg.Set `json:"nodes"`
	}{Nodes: append([]startgg.Set(nil), b.sets...)}
	return ev
}

// BuildInto builds the event and registers it with fake.
func (b *EventBuilder) BuildInto(fake *FakeStartGG) *startgg.Event {
	ev := b.Build()
	fake.AddEvent(ev)
	return ev
}
