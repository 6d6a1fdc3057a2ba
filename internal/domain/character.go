package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Character is a selectable character of a videogame.
type Character struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	VideogameID  string    `json:"videogameId,omitempty" gorm:"index"`
	Name         string    `json:"name" gorm:"not null"`
	ImageURL     *string   `json:"imageUrl" gorm:"column:image_url"`
	LastSyncedAt time.Time `json:"-"`
}

func (c Character) Clone() Character {
	out := c
	out.ImageURL = clonePtr(c.ImageURL)
	return out
}

// PlayerInfo is a cached player profile, independent of any set.
type PlayerInfo struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	GamerTag     string         `json:"gamerTag" gorm:"not null"`
	Prefix       string         `json:"prefix,omitempty"`
	ImageURL     *string        `json:"imageUrl" gorm:"column:image_url"`
	Images       datatypes.JSON `json:"-" gorm:"type:jsonb"` // every {url,type} the remote returned
	LastSyncedAt time.Time      `json:"-"`
}

// DisplayName renders "prefix | tag", or just the tag without a prefix.
func (p PlayerInfo) DisplayName() string {
	tag := p.GamerTag
	if tag == "" {
		tag = "Unknown"
	}
	if p.Prefix == "" {
		return tag
	}
	return p.Prefix + " | " + tag
}
