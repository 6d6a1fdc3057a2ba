// Package bracket holds the local model of an event's sets: conversion of
// remote payloads, the pure edit operations, winner derivation and the
// in-memory store the services mutate.
package bracket

import (
	"math"
	"sort"
	"time"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
)

// ConvertEventSets maps an event listing into fresh local sets. Every set
// gets the event's videogame and starts collapsed, clean and without games.
func ConvertEventSets(ev *startgg.Event) []*domain.Set {
	if ev == nil || ev.Sets == nil {
		return nil
	}
	vg := ConvertVideogame(ev.Videogame)
	sets := make([]*domain.Set, 0, len(ev.Sets.Nodes))
	for _, raw := range ev.Sets.Nodes {
		var setVG *domain.Videogame
		if vg != nil {
			setVG = cloneVideogame(vg)
		}
		sets = append(sets, ConvertSet(raw, setVG))
	}
	return sets
}

// ConvertSet maps the scalar fields and slots of a raw set. Games are left
// empty; they are filled by ApplyDetails.
func ConvertSet(raw startgg.Set, vg *domain.Videogame) *domain.Set {
	set := &domain.Set{
		ID:         raw.ID.String(),
		Round:      raw.Round,
		TotalGames: raw.TotalGames,
		StartedAt:  convertTimestamp(raw.StartedAt),
		Videogame:  vg,
		Games:      []domain.Game{},
	}
	if raw.State != nil {
		set.State = domain.SetState(*raw.State)
	}
	for i := 0; i < len(set.Slots) && i < len(raw.Slots); i++ {
		set.Slots[i] = convertSlot(raw.Slots[i])
	}
	set.WinnerID = entrantOrNil(set, raw.WinnerID)
	return set
}

func convertSlot(raw startgg.Slot) domain.Slot {
	slot := domain.Slot{ID: raw.ID.String()}
	if v := raw.ScoreValue(); v != nil {
		score := int(math.Round(*v))
		slot.Score = &score
	}
	if raw.Entrant == nil || raw.Entrant.ID == "" {
		return slot
	}
	entrant := &domain.Entrant{
		ID:           raw.Entrant.ID.String(),
		Name:         raw.Entrant.Name,
		Participants: make([]domain.Participant, 0, len(raw.Entrant.Participants)),
	}
	for _, p := range raw.Entrant.Participants {
		part := domain.Participant{ID: p.ID.String()}
		if p.Player != nil {
			part.PlayerID = p.Player.ID.String()
			part.GamerTag = p.Player.GamerTag
			part.Prefix = p.Player.Prefix
		}
		entrant.Participants = append(entrant.Participants, part)
	}
	slot.Entrant = entrant
	return slot
}

// ConvertVideogame returns nil when the payload carries no videogame.
func ConvertVideogame(raw *startgg.Videogame) *domain.Videogame {
	if raw == nil || raw.ID == "" {
		return nil
	}
	return &domain.Videogame{
		ID:         raw.ID.String(),
		Name:       firstNonEmpty(raw.DisplayName, raw.Name),
		Characters: ConvertCharacters(raw.Characters, raw.ID.String()),
	}
}

// ConvertCharacters keeps the first image of each character as its image url.
func ConvertCharacters(raw []startgg.Character, videogameID string) []domain.Character {
	chars := make([]domain.Character, 0, len(raw))
	for _, c := range raw {
		if c.ID == "" {
			continue
		}
		char := domain.Character{
			ID:          c.ID.String(),
			VideogameID: videogameID,
			Name:        c.Name,
		}
		if len(c.Images) > 0 && c.Images[0].URL != "" {
			url := c.Images[0].URL
			char.ImageURL = &url
		}
		chars = append(chars, char)
	}
	return chars
}

// ConvertGames maps raw games against the set's entrants. Selections are
// placed by matching their entrant id to a slot; anything that does not
// belong to the set is dropped. The result is stably sorted by orderNum.
func ConvertGames(raw []startgg.Game, set *domain.Set) []domain.Game {
	games := make([]domain.Game, 0, len(raw))
	for _, rg := range raw {
		g := domain.Game{
			ID:       rg.ID.String(),
			OrderNum: rg.OrderNum,
			WinnerID: entrantOrNil(set, rg.WinnerID),
		}
		g.Scores[0] = cloneInt(rg.Entrant1Score)
		g.Scores[1] = cloneInt(rg.Entrant2Score)

		for _, sel := range rg.Selections {
			if sel.Entrant == nil || sel.Character == nil || sel.Character.ID == "" {
				continue
			}
			idx := set.EntrantIndex(sel.Entrant.ID.String())
			if idx < 0 {
				continue
			}
			charID := sel.Character.ID.String()
			if !characterAllowed(set.Videogame, charID) {
				continue
			}
			g.CharacterIDs[idx] = &charID
		}
		games = append(games, g)
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].OrderNum < games[j].OrderNum
	})
	return games
}

// ApplyDetails merges a detail fetch into set: authoritative state, slots,
// videogame and games. Local view flags are kept.
func ApplyDetails(set *domain.Set, raw *startgg.Set) {
	fresh := ConvertSet(*raw, set.Videogame)
	if raw.Event != nil {
		if vg := ConvertVideogame(raw.Event.Videogame); vg != nil {
			fresh.Videogame = vg
		}
	}
	if len(raw.Slots) == 0 {
		fresh.Slots = set.Slots
		fresh.WinnerID = entrantOrNil(fresh, raw.WinnerID)
	}
	if fresh.Round == nil {
		fresh.Round = set.Round
	}
	fresh.Games = ConvertGames(raw.Games, fresh)

	fresh.IsExpanded = set.IsExpanded
	fresh.IsLoadingDetails = set.IsLoadingDetails
	*set = *fresh
	set.IsDirty = false
}

// ApplyWriteResult overwrites the fields a write response is authoritative
// for. Games are left to the re-fetch that follows every write.
func ApplyWriteResult(set *domain.Set, raw *startgg.Set) {
	if raw.State != nil {
		set.State = domain.SetState(*raw.State)
	}
	set.WinnerID = entrantOrNil(set, raw.WinnerID)
	set.StartedAt = convertTimestamp(raw.StartedAt)
}

func entrantOrNil(set *domain.Set, id *startgg.ID) *string {
	p := id.Ptr()
	if p == nil || !set.IsEntrant(*p) {
		return nil
	}
	return p
}

// characterAllowed accepts any id when the videogame has no known list.
func characterAllowed(vg *domain.Videogame, id string) bool {
	if vg == nil || len(vg.Characters) == 0 {
		return true
	}
	return vg.HasCharacter(id)
}

func convertTimestamp(unix *int64) *time.Time {
	if unix == nil || *unix == 0 {
		return nil
	}
	t := time.Unix(*unix, 0).UTC()
	return &t
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneVideogame(vg *domain.Videogame) *domain.Videogame {
	out := *vg
	out.Characters = make([]domain.Character, len(vg.Characters))
	for i, c := range vg.Characters {
		out.Characters[i] = c.Clone()
	}
	return &out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
