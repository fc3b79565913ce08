package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"minigame-service/internal/domain"
	"minigame-service/internal/game"
)

// GameLoader fetches game definitions from a backing store (catalogue file, Postgres).
type GameLoader interface {
	LoadGame(ctx context.Context, gameID string) (domain.Game, error)
}

// GameRepository caches validated definitions in Redis as JSON and falls back
// to a loader on cache miss:
//
//	SET game:def:{gameID} {json} EX ttl
type GameRepository struct {
	client *redis.Client
	loader GameLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGameRepository(client *redis.Client, loader GameLoader, ttl time.Duration) *GameRepository {
	return &GameRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *GameRepository) GetGame(ctx context.Context, gameID string) (domain.Game, error) {
	if def, ok := r.fromCache(ctx, gameID); ok {
		return def, nil
	}

	result, err, _ := r.sf.Do(gameID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if def, ok := r.fromCache(ctx, gameID); ok {
			return def, nil
		}

		def, err := r.loader.LoadGame(ctx, gameID)
		if err != nil {
			return domain.Game{}, err
		}
		if err := game.Validate(def); err != nil {
			return domain.Game{}, err
		}

		if raw, err := json.Marshal(def); err == nil {
			// best-effort: a cache write failure only costs a reload
			_ = r.client.Set(ctx, r.key(gameID), raw, r.ttlWithJitter()).Err()
		}
		return def, nil
	})
	if err != nil {
		return domain.Game{}, err
	}
	return result.(domain.Game), nil
}

// Invalidate drops cached definitions so the next read reloads them.
func (r *GameRepository) Invalidate(ctx context.Context, gameIDs ...string) error {
	if len(gameIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(gameIDs))
	for _, id := range gameIDs {
		keys = append(keys, r.key(id))
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *GameRepository) fromCache(ctx context.Context, gameID string) (domain.Game, bool) {
	raw, err := r.client.Get(ctx, r.key(gameID)).Bytes()
	if err != nil {
		return domain.Game{}, false
	}
	var def domain.Game
	if err := json.Unmarshal(raw, &def); err != nil {
		return domain.Game{}, false
	}
	return def, true
}

func (r *GameRepository) key(gameID string) string {
	return "game:def:" + gameID
}

func (r *GameRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
