// Package cache keeps content fingerprints of submitted evidence so unchanged
// records are not pushed to the backend again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/curation-evidence-sync/internal/domain"
)

// Fingerprints tracks the last submitted content of each evidence record.
type Fingerprints interface {
	// Changed reports whether record differs from the last remembered
	// submission of id.
	Changed(ctx context.Context, id string, record domain.EvidenceRecord) (bool, error)
	Remember(ctx context.Context, id string, record domain.EvidenceRecord) error
	Forget(ctx context.Context, ids ...string) error
}

// Fingerprint returns the SHA-256 of the record's wire form.
func Fingerprint(record domain.EvidenceRecord) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal evidence record: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// RedisFingerprints stores fingerprints in Redis with a TTL.
type RedisFingerprints struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisFingerprints connects to redisURL and verifies the connection.
func NewRedisFingerprints(redisURL string, ttl time.Duration) (*RedisFingerprints, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisFingerprintsWithClient(client, ttl), nil
}

// NewRedisFingerprintsWithClient creates a store from an existing client
func NewRedisFingerprintsWithClient(client *redis.Client, ttl time.Duration) *RedisFingerprints {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisFingerprints{
		client: client,
		prefix: "evidence:fp:",
		ttl:    ttl,
	}
}

func (f *RedisFingerprints) key(id string) string {
	return f.prefix + id
}

// Changed implements Fingerprints.
func (f *RedisFingerprints) Changed(ctx context.Context, id string, record domain.EvidenceRecord) (bool, error) {
	sum, err := Fingerprint(record)
	if err != nil {
		return true, err
	}
	stored, err := f.client.Get(ctx, f.key(id)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("lookup fingerprint: %w", err)
	}
	return stored != sum, nil
}

// Remember implements Fingerprints.
func (f *RedisFingerprints) Remember(ctx context.Context, id string, record domain.EvidenceRecord) error {
	sum, err := Fingerprint(record)
	if err != nil {
		return err
	}
	if err := f.client.Set(ctx, f.key(id), sum, f.ttl).Err(); err != nil {
		return fmt.Errorf("save fingerprint: %w", err)
	}
	return nil
}

// Forget implements Fingerprints.
func (f *RedisFingerprints) Forget(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = f.key(id)
	}
	if err := f.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete fingerprints: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (f *RedisFingerprints) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (f *RedisFingerprints) Close() error {
	return f.client.Close()
}

// Nop treats every record as changed and remembers nothing.
type Nop struct{}

func (Nop) Changed(context.Context, string, domain.EvidenceRecord) (bool, error) { return true, nil }
func (Nop) Remember(context.Context, string, domain.EvidenceRecord) error        { return nil }
func (Nop) Forget(context.Context, ...string) error                              { return nil }
