package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/startgg"
)

// GraphQLRequest is one request the fake received.
type GraphQLRequest struct {
	Operation string
	Query     string          `json:"query"`
	Variables json.RawMessage `json:"variables"`
	Auth      string
}

// FakeStartGG is an in-memory start.gg GraphQL endpoint. Sets written
// through the mutations are updated in place so a follow-up detail query
// sees the write.
type FakeStartGG struct {
	Server *httptest.Server

	mu          sync.Mutex
	user        *startgg.User
	tournaments []startgg.Tournament
	events      map[string]*startgg.Event
	sets        map[string]*startgg.Set
	players     map[string]*startgg.Player
	failures    map[string]string
	requests    []GraphQLRequest
}

func NewFakeStartGG(t *testing.T) *FakeStartGG {
	t.Helper()

	f := &FakeStartGG{
		events:   make(map[string]*startgg.Event),
		sets:     make(map[string]*startgg.Set),
		players:  make(map[string]*startgg.Player),
		failures: make(map[string]string),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeStartGG) URL() string { return f.Server.URL }

func (f *FakeStartGG) SetUser(u *startgg.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = u
}

func (f *FakeStartGG) AddTournament(t startgg.Tournament) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tournaments = append(f.tournaments, t)
}

// AddEvent registers ev and every set and player in it.
func (f *FakeStartGG) AddEvent(ev *startgg.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ev.ID.String()] = ev
	if ev.Sets == nil {
		return
	}
	for i := range ev.Sets.Nodes {
		set := ev.Sets.Nodes[i]
		set.Event = &struct {
			Videogame *startgg.Videogame `json:"videogame"`
		}{Videogame: ev.Videogame}
		f.sets[set.ID.String()] = &set
		for _, slot := range set.Slots {
			if slot.Entrant == nil {
				continue
			}
			for _, p := range slot.Entrant.Participants {
				if p.Player != nil {
					f.players[p.Player.ID.String()] = p.Player
				}
			}
		}
	}
}

func (f *FakeStartGG) AddPlayer(p *startgg.Player) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.players[p.ID.String()] = p
}

// Fail makes every request for operation answer with a GraphQL error.
func (f *FakeStartGG) Fail(operation, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[operation] = message
}

// Set returns a copy of the stored set.
func (f *FakeStartGG) Set(id string) (startgg.Set, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[id]
	if !ok {
		return startgg.Set{}, false
	}
	return *set, true
}

func (f *FakeStartGG) Requests() []GraphQLRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]GraphQLRequest(nil), f.requests...)
}

// Operations lists the operation names received, in order.
func (f *FakeStartGG) Operations() []string {
	reqs := f.Requests()
	ops := make([]string, len(reqs))
	for i, r := range reqs {
		ops[i] = r.Operation
	}
	return ops
}

// LastRequest returns the most recent request for operation.
func (f *FakeStartGG) LastRequest(operation string) (GraphQLRequest, bool) {
	reqs := f.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Operation == operation {
			return reqs[i], true
		}
	}
	return GraphQLRequest{}, false
}

// operationName reads the name after "query" or "mutation".
func operationName(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '(' || r == '{'
	})
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func (f *FakeStartGG) serve(w http.ResponseWriter, r *http.Request) {
	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	req.Operation = operationName(req.Query)
	req.Auth = r.Header.Get("Authorization")

	f.mu.Lock()
	f.requests = append(f.requests, req)
	failure, failing := f.failures[req.Operation]
	var data interface{}
	var err error
	if !failing {
		data, err = f.resolve(req)
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case failing:
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data":   nil,
			"errors": []map[string]string{{"message": failure}},
		})
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}
}

type fakeVars struct {
	EventID            string                  `json:"eventId"`
	SetID              string                  `json:"setId"`
	PlayerID           string                  `json:"playerId"`
	TournamentID       string                  `json:"tournamentId"`
	Page               int                     `json:"page"`
	WinnerID           *string                 `json:"winnerId"`
	ResetDependentSets bool                    `json:"resetDependentSets"`
	GameData           []startgg.GameDataInput `json:"gameData"`
}

// resolve answers one operation. Called with f.mu held.
func (f *FakeStartGG) resolve(req GraphQLRequest) (interface{}, error) {
	var vars fakeVars
	if len(req.Variables) > 0 {
		if err := json.Unmarshal(req.Variables, &vars); err != nil {
			return nil, err
		}
	}

	switch req.Operation {
	case "EventSets":
		return map[string]interface{}{"event": f.eventWithCurrentSets(vars.EventID)}, nil
	case "SetDetails":
		return map[string]interface{}{"set": f.sets[vars.SetID]}, nil
	case "Player":
		return map[string]interface{}{"player": f.players[vars.PlayerID]}, nil
	case "CurrentUser":
		return map[string]interface{}{"currentUser": f.user}, nil
	case "AdminTournaments":
		if f.user == nil {
			return map[string]interface{}{"currentUser": nil}, nil
		}
		return map[string]interface{}{"currentUser": map[string]interface{}{
			"id":          f.user.ID,
			"tournaments": map[string]interface{}{"nodes": f.tournaments},
		}}, nil
	case "TournamentEvents":
		for i := range f.tournaments {
			if f.tournaments[i].ID.String() == vars.TournamentID {
				return map[string]interface{}{"tournament": f.tournaments[i]}, nil
			}
		}
		return map[string]interface{}{"tournament": nil}, nil
	case "EventEntrants":
		return map[string]interface{}{"event": f.entrantsPage(vars.EventID, vars.Page)}, nil
	case "MarkSetInProgress":
		set := f.sets[vars.SetID]
		if set != nil {
			set.State = domain.Ptr(int(domain.SetStateInProgress))
			if set.StartedAt == nil {
				set.StartedAt = domain.Ptr(time.Now().Unix())
			}
		}
		return map[string]interface{}{"markSetInProgress": set}, nil
	case "ResetSet":
		set := f.sets[vars.SetID]
		if set != nil {
			set.State = domain.Ptr(int(domain.SetStatePending))
			set.WinnerID = nil
			set.StartedAt = nil
			set.Games = nil
		}
		return map[string]interface{}{"resetSet": set}, nil
	case "UpdateBracketSet":
		set := f.sets[vars.SetID]
		if set != nil {
			set.State = domain.Ptr(int(domain.SetStateInProgress))
			set.Games = gamesFromInput(vars.SetID, vars.GameData)
		}
		return map[string]interface{}{"updateBracketSet": set}, nil
	case "ReportBracketSet":
		set := f.sets[vars.SetID]
		if set == nil {
			return map[string]interface{}{"reportBracketSet": []startgg.Set{}}, nil
		}
		set.State = domain.Ptr(int(domain.SetStateComplete))
		if vars.WinnerID != nil {
			id := startgg.ID(*vars.WinnerID)
			set.WinnerID = &id
		}
		set.Games = gamesFromInput(vars.SetID, vars.GameData)
		return map[string]interface{}{"reportBracketSet": []*startgg.Set{set}}, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", req.Operation)
	}
}

func (f *FakeStartGG) eventWithCurrentSets(eventID string) *startgg.Event {
	ev, ok := f.events[eventID]
	if !ok {
		return nil
	}
	out := *ev
	if ev.Sets != nil {
		nodes := make([]startgg.Set, 0, len(ev.Sets.Nodes))
		for _, s := range ev.Sets.Nodes {
			if current, ok := f.sets[s.ID.String()]; ok {
				s = *current
				s.Games = nil
				s.Event = nil
			}
			nodes = append(nodes, s)
		}
		out.Sets = &struct {
			Nodes []startgg.Set `json:"nodes"`
		}{Nodes: nodes}
	}
	return &out
}

// entrantsPage collects the event's entrants from its sets. Everything fits
// on page 1.
func (f *FakeStartGG) entrantsPage(eventID string, page int) *startgg.Event {
	ev, ok := f.events[eventID]
	if !ok {
		return nil
	}
	var entrants []startgg.Entrant
	if page <= 1 && ev.Sets != nil {
		seen := make(map[startgg.ID]bool)
		for _, s := range ev.Sets.Nodes {
			for _, slot := range s.Slots {
				if slot.Entrant == nil || seen[slot.Entrant.ID] {
					continue
				}
				seen[slot.Entrant.ID] = true
				entrants = append(entrants, *slot.Entrant)
			}
		}
	}
	return &startgg.Event{
		ID: ev.ID,
		Entrants: &struct {
			Nodes []startgg.Entrant `json:"nodes"`
		}{Nodes: entrants},
	}
}

func gamesFromInput(setID string, in []startgg.GameDataInput) []startgg.Game {
	games := make([]startgg.Game, 0, len(in))
	for _, g := range in {
		game := startgg.Game{
			ID:            startgg.ID(fmt.Sprintf("%s-g%d", setID, g.GameNum)),
			OrderNum:      g.GameNum,
			Entrant1Score: g.Entrant1Score,
			Entrant2Score: g.Entrant2Score,
		}
		if g.WinnerID != nil {
			id := startgg.ID(*g.WinnerID)
			game.WinnerID = &id
		}
		for _, sel := range g.Selections {
			game.Selections = append(game.Selections, startgg.Selection{
				Entrant: &struct {
					ID startgg.ID `json:"id"`
				}{ID: startgg.ID(sel.EntrantID)},
				Character: &startgg.Character{ID: startgg.ID(sel.CharacterID)},
			})
		}
		games = append(games, game)
	}
	return games
}
