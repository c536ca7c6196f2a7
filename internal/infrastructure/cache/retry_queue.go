package cache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
)

// DefaultRetryKey is the redis set holding records awaiting another sync.
// Members are "<collection>:<key>".
const DefaultRetryKey = "catalyst:sync:retry"

// NewRedisPool creates a redis pool for addr.
func NewRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     5,
		MaxActive:   20,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr,
				redis.DialConnectTimeout(5*time.Second),
				redis.DialReadTimeout(5*time.Second),
				redis.DialWriteTimeout(5*time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// RedisRetryQueue keeps failed syncs in a redis set.
type RedisRetryQueue struct {
	pool *redis.Pool
	key  string
}

// NewRedisRetryQueue creates a retry queue stored under key.
func NewRedisRetryQueue(pool *redis.Pool, key string) *RedisRetryQueue {
	if key == "" {
		key = DefaultRetryKey
	}
	return &RedisRetryQueue{pool: pool, key: key}
}

func (q *RedisRetryQueue) conn(ctx context.Context) (redis.Conn, error) {
	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis connection: %w", err)
	}
	return conn, nil
}

// Add marks entry for retry.
func (q *RedisRetryQueue) Add(ctx context.Context, entry ports.RetryEntry) error {
	conn, err := q.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("SADD", q.key, encodeEntry(entry))
	return err
}

// Pending returns all queued entries ordered by collection, then key.
// Members that do not parse are skipped.
func (q *RedisRetryQueue) Pending(ctx context.Context) ([]ports.RetryEntry, error) {
	conn, err := q.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	members, err := redis.Strings(conn.Do("SMEMBERS", q.key))
	if err != nil {
		return nil, err
	}
	entries := make([]ports.RetryEntry, 0, len(members))
	for _, member := range members {
		entry, ok := decodeEntry(member)
		if !ok {
			log.WithField("member", member).Warn("Skipping malformed retry entry")
			continue
		}
		entries = append(entries, entry)
	}
	sortEntries(entries)
	return entries, nil
}

// Remove drops entry from the queue.
func (q *RedisRetryQueue) Remove(ctx context.Context, entry ports.RetryEntry) error {
	conn, err := q.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("SREM", q.key, encodeEntry(entry))
	return err
}

func encodeEntry(entry ports.RetryEntry) string {
	return entry.Collection + ":" + strconv.FormatInt(entry.Key, 10)
}

func decodeEntry(member string) (ports.RetryEntry, bool) {
	collection, rawKey, ok := strings.Cut(member, ":")
	if !ok || collection == "" {
		return ports.RetryEntry{}, false
	}
	key, err := strconv.ParseInt(rawKey, 10, 64)
	if err != nil || key <= 0 {
		return ports.RetryEntry{}, false
	}
	return ports.RetryEntry{Collection: collection, Key: key}, true
}

func sortEntries(entries []ports.RetryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Collection != entries[j].Collection {
			return entries[i].Collection < entries[j].Collection
		}
		return entries[i].Key < entries[j].Key
	})
}

// MemoryRetryQueue is the in-process retry queue used when no redis is configured.
type MemoryRetryQueue struct {
	mu      sync.Mutex
	entries map[ports.RetryEntry]struct{}
}

func NewMemoryRetryQueue() *MemoryRetryQueue {
	return &MemoryRetryQueue{entries: make(map[ports.RetryEntry]struct{})}
}

func (q *MemoryRetryQueue) Add(_ context.Context, entry ports.RetryEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[entry] = struct{}{}
	return nil
}

func (q *MemoryRetryQueue) Pending(_ context.Context) ([]ports.RetryEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]ports.RetryEntry, 0, len(q.entries))
	for e := range q.entries {
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func (q *MemoryRetryQueue) Remove(_ context.Context, entry ports.RetryEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, entry)
	return nil
}
