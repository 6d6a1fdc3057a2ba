package domain

import "time"

type Tournament struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ImageURL *string    `json:"imageUrl,omitempty"`
	StartAt  *time.Time `json:"startAt,omitempty"`
	EndAt    *time.Time `json:"endAt,omitempty"`
}

// EventSummary is an event flattened together with its tournament.
type EventSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	TournamentID   string `json:"tournamentId"`
	TournamentName string `json:"tournamentName"`
}

// Attendee is a player registered in an event through one of its entrants.
type Attendee struct {
	PlayerID  string `json:"playerId"`
	GamerTag  string `json:"gamerTag"`
	Prefix    string `json:"prefix,omitempty"`
	UserID    string `json:"userId,omitempty"`
	UserSlug  string `json:"userSlug,omitempty"`
	EntrantID string `json:"entrantId"`
}

func (a Attendee) DisplayName() string {
	return PlayerInfo{GamerTag: a.GamerTag, Prefix: a.Prefix}.DisplayName()
}
