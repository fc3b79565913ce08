package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"minigame-service/internal/domain"
	"minigame-service/internal/game"
)

// GameLoader fetches game definitions from a backing store (catalogue file, Postgres).
type GameLoader interface {
	LoadGame(ctx context.Context, gameID string) (domain.Game, error)
}

// GameRepository caches validated definitions with TTL to avoid repeated loads.
type GameRepository struct {
	loader GameLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedGame
}

type cachedGame struct {
	game      domain.Game
	expiresAt time.Time
}

func NewGameRepository(loader GameLoader, ttl time.Duration) *GameRepository {
	return &GameRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedGame),
	}
}

func (r *GameRepository) GetGame(ctx context.Context, gameID string) (domain.Game, error) {
	if def, ok := r.cached(gameID); ok {
		return def, nil
	}

	result, err, _ := r.sf.Do(gameID, func() (interface{}, error) {
		if def, ok := r.cached(gameID); ok {
			return def, nil
		}

		def, err := r.loader.LoadGame(ctx, gameID)
		if err != nil {
			return domain.Game{}, err
		}
		if err := game.Validate(def); err != nil {
			return domain.Game{}, err
		}

		r.mu.Lock()
		r.cache[gameID] = cachedGame{
			game:      def,
			expiresAt: r.clock().Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return def, nil
	})
	if err != nil {
		return domain.Game{}, err
	}
	return result.(domain.Game), nil
}

func (r *GameRepository) cached(gameID string) (domain.Game, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[gameID]; ok && entry.expiresAt.After(now) {
		return entry.game, true
	}
	return domain.Game{}, false
}

// ttlWithJitterLocked adds up to 10% jitter to spread expirations.
func (r *GameRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticGameLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticGameLoader struct {
	games map[string]domain.Game
}

func NewStaticGameLoader(games map[string]domain.Game) *StaticGameLoader {
	return &StaticGameLoader{games: games}
}

func (l *StaticGameLoader) LoadGame(_ context.Context, gameID string) (domain.Game, error) {
	if def, ok := l.games[gameID]; ok {
		return def, nil
	}
	return domain.Game{}, domain.ErrGameNotFound
}
