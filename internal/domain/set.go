package domain

import (
	"fmt"
	"strings"
	"time"
)

// SetState mirrors the remote set state enum. Values outside the known
// range are kept verbatim so they round-trip unmodified on write-back.
type SetState int

const (
	SetStatePending    SetState = 1
	SetStateInProgress SetState = 2
	SetStateComplete   SetState = 3
)

func (s SetState) String() string {
	switch s {
	case SetStatePending:
		return "Pending"
	case SetStateInProgress:
		return "In Progress"
	case SetStateComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

func (s SetState) Known() bool {
	return s >= SetStatePending && s <= SetStateComplete
}

// TempGameIDPrefix marks games created locally that have no persisted id yet.
const TempGameIDPrefix = "game-"

type Participant struct {
	ID       string `json:"id"`
	PlayerID string `json:"playerId,omitempty"`
	GamerTag string `json:"gamerTag,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
}

type Entrant struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Participants []Participant `json:"participants"`
}

// Slot is one side of a set. Entrant is nil while the side is still TBD.
type Slot struct {
	ID      string   `json:"id"`
	Entrant *Entrant `json:"entrant,omitempty"`
	Score   *int     `json:"score,omitempty"`
}

func (s Slot) EntrantID() (string, bool) {
	if s.Entrant == nil || s.Entrant.ID == "" {
		return "", false
	}
	return s.Entrant.ID, true
}

func (s Slot) DisplayName() string {
	if s.Entrant == nil {
		return "TBD"
	}
	return s.Entrant.Name
}

// PlayerNames joins the gamer tags of the slot's participants.
func (s Slot) PlayerNames() string {
	if s.Entrant == nil || len(s.Entrant.Participants) == 0 {
		return "TBD"
	}
	names := make([]string, 0, len(s.Entrant.Participants))
	for _, p := range s.Entrant.Participants {
		if p.GamerTag == "" {
			names = append(names, "Unknown")
			continue
		}
		names = append(names, p.GamerTag)
	}
	return strings.Join(names, ", ")
}

type Videogame struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Characters []Character `json:"characters"`
}

// HasCharacter reports whether id belongs to the videogame's character list.
func (v *Videogame) HasCharacter(id string) bool {
	if v == nil {
		return false
	}
	for _, c := range v.Characters {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Game is one game within a set. Index 0 of Scores and CharacterIDs refers to
// the set's first slot, index 1 to the second.
type Game struct {
	ID           string     `json:"id"`
	OrderNum     int        `json:"orderNum"`
	WinnerID     *string    `json:"winnerId"`
	Scores       [2]*int    `json:"scores"`
	CharacterIDs [2]*string `json:"characterIds"`
}

func (g Game) IsTemporary() bool {
	return strings.HasPrefix(g.ID, TempGameIDPrefix)
}

// Set is one bracket match between two entrants.
type Set struct {
	ID               string     `json:"id"`
	State            SetState   `json:"state"`
	Round            *int       `json:"round,omitempty"`
	WinnerID         *string    `json:"winnerId"`
	TotalGames       *int       `json:"totalGames,omitempty"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	Slots            [2]Slot    `json:"slots"`
	Videogame        *Videogame `json:"videogame,omitempty"`
	Games            []Game     `json:"games"`
	IsExpanded       bool       `json:"isExpanded"`
	IsDirty          bool       `json:"isDirty"`
	IsLoadingDetails bool       `json:"isLoadingDetails"`
}

// EntrantIDs returns both entrant ids and whether both are resolved.
func (s *Set) EntrantIDs() (string, string, bool) {
	a, okA := s.Slots[0].EntrantID()
	b, okB := s.Slots[1].EntrantID()
	return a, b, okA && okB
}

// EntrantIndex returns the slot index holding entrantID, or -1.
func (s *Set) EntrantIndex(entrantID string) int {
	for i, slot := range s.Slots {
		if id, ok := slot.EntrantID(); ok && id == entrantID {
			return i
		}
	}
	return -1
}

func (s *Set) IsEntrant(entrantID string) bool {
	return s.EntrantIndex(entrantID) >= 0
}

// ScoreLine renders the standing scores, falling back to the state label.
func (s *Set) ScoreLine() string {
	a, b := s.Slots[0].Score, s.Slots[1].Score
	if a != nil && b != nil {
		return fmt.Sprintf("%d - %d", *a, *b)
	}
	switch s.State {
	case SetStatePending:
		return "Upcoming"
	case SetStateInProgress:
		return "In Progress"
	}
	return "TBD"
}

// WinnerName returns the display name of the winning slot, if any.
func (s *Set) WinnerName() (string, bool) {
	if s.WinnerID == nil {
		return "", false
	}
	idx := s.EntrantIndex(*s.WinnerID)
	if idx < 0 {
		return "", false
	}
	return s.Slots[idx].DisplayName(), true
}

// Clone returns a deep copy that shares no pointers with s.
func (s *Set) Clone() *Set {
	if s == nil {
		return nil
	}
	out := *s
	out.Round = clonePtr(s.Round)
	out.WinnerID = clonePtr(s.WinnerID)
	out.TotalGames = clonePtr(s.TotalGames)
	out.StartedAt = clonePtr(s.StartedAt)
	for i, slot := range s.Slots {
		out.Slots[i].Score = clonePtr(slot.Score)
		if slot.Entrant != nil {
			e := *slot.Entrant
			e.Participants = append([]Participant(nil), slot.Entrant.Participants...)
			out.Slots[i].Entrant = &e
		}
	}
	if s.Videogame != nil {
		vg := *s.Videogame
		vg.Characters = make([]Character, len(s.Videogame.Characters))
		for i, c := range s.Videogame.Characters {
			vg.Characters[i] = c.Clone()
		}
		out.Videogame = &vg
	}
	out.Games = make([]Game, len(s.Games))
	for i, g := range s.Games {
		out.Games[i] = g.Clone()
	}
	return &out
}

func (g Game) Clone() Game {
	out := g
	out.WinnerID = clonePtr(g.WinnerID)
	for i := range g.Scores {
		out.Scores[i] = clonePtr(g.Scores[i])
		out.CharacterIDs[i] = clonePtr(g.CharacterIDs[i])
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
