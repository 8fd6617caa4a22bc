package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "event:"

// RedisStore keeps event details in Redis with a TTL, so reminder buttons
// survive bot restarts.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// MustRedis connects to the given Redis URL or exits.
func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, ev Event) error {
	if ev.EventID == "" {
		return errors.New("eventstore: event ID is empty")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+ev.EventID, data, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, eventID string) (Event, bool) {
	data, err := s.rdb.Get(ctx, keyPrefix+eventID).Bytes()
	if err != nil {
		return Event{}, false
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("eventstore: corrupt entry for %s: %v", eventID, err)
		return Event{}, false
	}
	return ev, true
}
