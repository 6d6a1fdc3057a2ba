package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/repository"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/dom/bracket-sync/internal/telemetry"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
)

const (
	defaultLookupConcurrency = 8
	backgroundFetchTimeout   = 30 * time.Second
)

// PlayerSource fetches a player profile from the remote API.
type PlayerSource interface {
	Player(ctx context.Context, playerID string) (*startgg.Player, error)
}

// LookupService caches player profiles and videogame characters for the
// lifetime of the process. A cached player is never fetched again.
//
// Player and ImageURL block until the profile is available. PeekImageURL
// only reads the cache; ImageURLSnapshot also schedules a fetch on a miss,
// so its answer may be stale or missing and callers must poll.
type LookupService struct {
	source      PlayerSource
	players     repository.PlayerRepository
	characters  repository.CharacterRepository
	concurrency int
	instrumentation

	mu         sync.RWMutex
	playerByID map[string]*domain.PlayerInfo
	imageByID  map[string]string
	charsByVG  map[string][]domain.Character

	group      singleflight.Group
	background sync.WaitGroup
}

type LookupOption func(*LookupService)

// WithRepositories enables read-through and write-through persistence.
func WithRepositories(repos *repository.Repositories) LookupOption {
	return func(s *LookupService) {
		if repos == nil {
			return
		}
		s.players = repos.Player
		s.characters = repos.Character
	}
}

func WithConcurrency(n int) LookupOption {
	return func(s *LookupService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func NewLookupService(source PlayerSource, logger *slog.Logger, metrics *telemetry.Metrics, opts ...LookupOption) *LookupService {
	s := &LookupService{
		source:          source,
		concurrency:     defaultLookupConcurrency,
		instrumentation: newInstrumentation(logger, metrics),
		playerByID:      make(map[string]*domain.PlayerInfo),
		imageByID:       make(map[string]string),
		charsByVG:       make(map[string][]domain.Character),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Player returns the cached profile or fetches it. Concurrent calls for the
// same id share one fetch. The shared fetch is not tied to any caller's
// cancellation; a cancelled caller stops waiting and the others still get
// the result.
func (s *LookupService) Player(ctx context.Context, playerID string) (*domain.PlayerInfo, error) {
	if p, ok := s.PeekPlayer(playerID); ok {
		s.metrics.RecordLookup(true)
		return p, nil
	}
	s.metrics.RecordLookup(false)

	ch := s.group.DoChan(playerID, func() (any, error) {
		if p, ok := s.PeekPlayer(playerID); ok {
			return p, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundFetchTimeout)
		defer cancel()
		return s.loadPlayer(fetchCtx, playerID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *res.Val.(*domain.PlayerInfo)
		return &p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *LookupService) loadPlayer(ctx context.Context, playerID string) (*domain.PlayerInfo, error) {
	if s.players != nil {
		stored, err := s.players.GetByID(ctx, playerID)
		switch {
		case err == nil:
			s.cachePlayer(stored)
			return stored, nil
		case !errors.Is(err, repository.ErrNotFound):
			s.logger.WarnContext(ctx, "player repository read failed",
				slog.String("player_id", playerID),
				slog.Any("error", err),
			)
		}
	}

	raw, err := s.source.Player(ctx, playerID)
	if err != nil {
		return nil, err
	}
	player := convertPlayer(raw)
	s.cachePlayer(player)

	if s.players != nil {
		if err := s.players.Upsert(ctx, player); err != nil {
			s.logger.WarnContext(ctx, "player repository write failed",
				slog.String("player_id", playerID),
				slog.Any("error", err),
			)
		}
	}
	return player, nil
}

func (s *LookupService) cachePlayer(p *domain.PlayerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerByID[p.ID] = p
	if p.ImageURL != nil && *p.ImageURL != "" {
		s.imageByID[p.ID] = *p.ImageURL
	}
}

// ImageURL returns the player's image url, fetching the profile if needed.
// ok is false when the player has no image.
func (s *LookupService) ImageURL(ctx context.Context, playerID string) (url string, ok bool, err error) {
	if url, ok := s.PeekImageURL(playerID); ok {
		return url, true, nil
	}
	if _, err := s.Player(ctx, playerID); err != nil {
		return "", false, err
	}
	url, ok = s.PeekImageURL(playerID)
	return url, ok, nil
}

func (s *LookupService) PeekPlayer(playerID string) (*domain.PlayerInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.playerByID[playerID]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (s *LookupService) PeekImageURL(playerID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	url, ok := s.imageByID[playerID]
	return url, ok
}

// ImageURLSnapshot peeks the cache and, on a miss for an unknown player,
// schedules a background fetch before answering.
func (s *LookupService) ImageURLSnapshot(playerID string) (string, bool) {
	if url, ok := s.PeekImageURL(playerID); ok {
		return url, true
	}
	if _, known := s.PeekPlayer(playerID); !known {
		s.PrefetchPlayersAsync([]string{playerID})
	}
	return "", false
}

// PrefetchPlayers fetches every uncached id with bounded concurrency. A
// failed id is logged and left uncached; the others are not affected. The
// failed ids are returned.
func (s *LookupService) PrefetchPlayers(ctx context.Context, playerIDs []string) []string {
	var (
		g        errgroup.Group
		failedMu sync.Mutex
		failed   []string
	)
	g.SetLimit(s.concurrency)

	seen := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, cached := s.PeekPlayer(id); cached {
			continue
		}

		g.Go(func() error {
			if _, err := s.Player(ctx, id); err != nil {
				s.logger.WarnContext(ctx, "player prefetch failed",
					slog.String("player_id", id),
					slog.Any("error", err),
				)
				failedMu.Lock()
				failed = append(failed, id)
				failedMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(failed)
	return failed
}

// PrefetchPlayersAsync runs PrefetchPlayers in the background, detached
// from any request.
func (s *LookupService) PrefetchPlayersAsync(playerIDs []string) {
	if len(playerIDs) == 0 {
		return
	}
	ids := append([]string(nil), playerIDs...)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundFetchTimeout)
		defer cancel()
		s.PrefetchPlayers(ctx, ids)
	}()
}

// Wait blocks until every background fetch has finished.
func (s *LookupService) Wait() {
	s.background.Wait()
}

// RememberVideogame caches the videogame's characters and persists them when
// a repository is configured.
func (s *LookupService) RememberVideogame(ctx context.Context, vg *domain.Videogame) {
	if vg == nil || len(vg.Characters) == 0 {
		return
	}
	chars := make([]domain.Character, len(vg.Characters))
	for i, c := range vg.Characters {
		chars[i] = c.Clone()
		chars[i].VideogameID = vg.ID
	}

	s.mu.Lock()
	s.charsByVG[vg.ID] = chars
	s.mu.Unlock()

	if s.characters == nil {
		return
	}
	now := time.Now()
	rows := make([]*domain.Character, len(chars))
	for i := range chars {
		c := chars[i].Clone()
		c.LastSyncedAt = now
		rows[i] = &c
	}
	if err := s.characters.UpsertMany(ctx, rows); err != nil {
		s.logger.WarnContext(ctx, "character repository write failed",
			slog.String("videogame_id", vg.ID),
			slog.Any("error", err),
		)
	}
}

// Characters returns the known characters of a videogame, falling back to
// the repository when the process has not seen the videogame yet.
func (s *LookupService) Characters(ctx context.Context, videogameID string) ([]domain.Character, error) {
	s.mu.RLock()
	cached, ok := s.charsByVG[videogameID]
	s.mu.RUnlock()
	if ok {
		return cloneCharacters(cached), nil
	}
	if s.characters == nil {
		return []domain.Character{}, nil
	}

	stored, err := s.characters.GetByVideogame(ctx, videogameID)
	if err != nil {
		return nil, err
	}
	chars := make([]domain.Character, len(stored))
	for i, c := range stored {
		chars[i] = c.Clone()
	}
	if len(chars) > 0 {
		s.mu.Lock()
		s.charsByVG[videogameID] = chars
		s.mu.Unlock()
	}
	return cloneCharacters(chars), nil
}

// FindCharacter ranks a videogame's characters against a name query,
// closest match first. An empty query returns every character.
func (s *LookupService) FindCharacter(ctx context.Context, videogameID, query string) ([]domain.Character, error) {
	chars, err := s.Characters(ctx, videogameID)
	if err != nil || query == "" {
		return chars, err
	}

	names := make([]string, len(chars))
	for i, c := range chars {
		names[i] = c.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]domain.Character, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, chars[r.OriginalIndex])
	}
	return out, nil
}

func cloneCharacters(in []domain.Character) []domain.Character {
	out := make([]domain.Character, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// convertPlayer prefers the user's profile image, then any image.
func convertPlayer(raw *startgg.Player) *domain.PlayerInfo {
	p := &domain.PlayerInfo{
		ID:           raw.ID.String(),
		GamerTag:     raw.GamerTag,
		Prefix:       raw.Prefix,
		LastSyncedAt: time.Now(),
	}
	images := raw.Images
	if raw.User != nil && len(raw.User.Images) > 0 {
		images = raw.User.Images
	}
	if len(images) > 0 {
		url := images[0].URL
		for _, img := range images {
			if img.Type == "profile" {
				url = img.URL
				break
			}
		}
		if url != "" {
			p.ImageURL = &url
		}
		if b, err := json.Marshal(images); err == nil {
			p.Images = datatypes.JSON(b)
		}
	}
	return p
}
