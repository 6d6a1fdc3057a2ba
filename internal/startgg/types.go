package startgg

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a remote identifier. The API returns ids as JSON numbers for
// persisted entities and as strings for previews and slots.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", string(b))
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Ptr returns nil for an empty id.
func (id *ID) Ptr() *string {
	if id == nil || *id == "" {
		return nil
	}
	s := string(*id)
	return &s
}

type Image struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

type Character struct {
	ID     ID      `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

type Videogame struct {
	ID          ID          `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	DisplayName string      `json:"displayName"`
	Images      []Image     `json:"images"`
	Characters  []Character `json:"characters"`
}

type User struct {
	ID     ID      `json:"id"`
	Name   string  `json:"name"`
	Slug   string  `json:"slug"`
	Images []Image `json:"images"`
	Player *struct {
		GamerTag string `json:"gamerTag"`
	} `json:"player"`
}

type Player struct {
	ID       ID      `json:"id"`
	GamerTag string  `json:"gamerTag"`
	Prefix   string  `json:"prefix"`
	User     *User   `json:"user"`
	Images   []Image `json:"images"`
}

type Participant struct {
	ID     ID      `json:"id"`
	Player *Player `json:"player"`
	User   *User   `json:"user"`
}

type Entrant struct {
	ID           ID            `json:"id"`
	Name         string        `json:"name"`
	Participants []Participant `json:"participants"`
}

type Standing struct {
	Stats *struct {
		Score *struct {
			Value *float64 `json:"value"`
		} `json:"score"`
	} `json:"stats"`
}

type Slot struct {
	ID       ID        `json:"id"`
	Entrant  *Entrant  `json:"entrant"`
	Standing *Standing `json:"standing"`
}

// ScoreValue digs the standing score out of the slot, if any.
func (s Slot) ScoreValue() *float64 {
	if s.Standing == nil || s.Standing.Stats == nil || s.Standing.Stats.Score == nil {
		return nil
	}
	return s.Standing.Stats.Score.Value
}

type Selection struct {
	Entrant *struct {
		ID ID `json:"id"`
	} `json:"entrant"`
	Character *Character `json:"character"`
}

type Game struct {
	ID            ID          `json:"id"`
	OrderNum      int         `json:"orderNum"`
	WinnerID      *ID         `json:"winnerId"`
	Entrant1Score *int        `json:"entrant1Score"`
	Entrant2Score *int        `json:"entrant2Score"`
	Selections    []Selection `json:"selections"`
}

// Set is a raw set node as returned by queries and mutations.
type Set struct {
	ID         ID     `json:"id"`
	State      *int   `json:"state"`
	Round      *int   `json:"round"`
	WinnerID   *ID    `json:"winnerId"`
	TotalGames *int   `json:"totalGames"`
	StartedAt  *int64 `json:"startedAt"`
	Slots      []Slot `json:"slots"`
	Games      []Game `json:"games"`
	Event      *struct {
		Videogame *Videogame `json:"videogame"`
	} `json:"event"`
}

type Event struct {
	ID         ID          `json:"id"`
	Name       string      `json:"name"`
	Slug       string      `json:"slug"`
	Tournament *Tournament `json:"tournament"`
	Videogame  *Videogame  `json:"videogame"`
	Sets       *struct {
		Nodes []Set `json:"nodes"`
	} `json:"sets"`
	Entrants *struct {
		Nodes []Entrant `json:"nodes"`
	} `json:"entrants"`
}

type Tournament struct {
	ID      ID      `json:"id"`
	Name    string  `json:"name"`
	Slug    string  `json:"slug"`
	Images  []Image `json:"images"`
	StartAt *int64  `json:"startAt"`
	EndAt   *int64  `json:"endAt"`
	Events  []Event `json:"events"`
}

// SelectionInput is one character pick of a game in a write.
type SelectionInput struct {
	EntrantID   string `json:"entrantId"`
	CharacterID string `json:"characterId"`
}

// GameDataInput is BracketSetGameDataInput. Nil fields are omitted from the
// request instead of being sent as null.
type GameDataInput struct {
	GameNum       int              `json:"gameNum"`
	WinnerID      *string          `json:"winnerId,omitempty"`
	Entrant1Score *int             `json:"entrant1Score,omitempty"`
	Entrant2Score *int             `json:"entrant2Score,omitempty"`
	StageID       *int             `json:"stageId,omitempty"`
	Selections    []SelectionInput `json:"selections,omitempty"`
}

// UpdateBracketSetInput is the variable set of the non-terminal write.
// WinnerID has no omitempty: a save always sends an explicit null.
type UpdateBracketSetInput struct {
	SetID    string          `json:"setId"`
	WinnerID *string         `json:"winnerId"`
	IsDQ     bool            `json:"isDQ"`
	GameData []GameDataInput `json:"gameData,omitempty"`
}

// ReportBracketSetInput is the variable set of the terminal write.
type ReportBracketSetInput struct {
	SetID    string          `json:"setId"`
	WinnerID string          `json:"winnerId"`
	GameData []GameDataInput `json:"gameData,omitempty"`
}
