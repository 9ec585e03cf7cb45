package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/starford/jobtrail/internal/models"
)

// Redis is a Backend storing each collection under three keys:
// <prefix>:collection:<name> (content), ...:checksum and ...:path.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Backend = (*Redis)(nil)

// NewRedis connects to the Redis server at url.
func NewRedis(url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("remote: parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &Redis{client: redis.NewClient(opts), prefix: prefix}, nil
}

// Ping tests the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) dataKey(c models.Collection) string {
	return fmt.Sprintf("%s:collection:%s", r.prefix, c)
}

func (r *Redis) checksumKey(c models.Collection) string {
	return r.dataKey(c) + ":checksum"
}

func (r *Redis) pathKey(c models.Collection) string {
	return r.dataKey(c) + ":path"
}

// Checksum implements Backend.
func (r *Redis) Checksum(ctx context.Context, c models.Collection) (string, error) {
	sum, err := r.client.Get(ctx, r.checksumKey(c)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("remote: checksum %s: %w", c, err)
	}
	return sum, nil
}

// Pull implements Backend.
func (r *Redis) Pull(ctx context.Context, c models.Collection) (*Snapshot, error) {
	vals, err := r.client.MGet(ctx, r.dataKey(c), r.checksumKey(c), r.pathKey(c)).Result()
	if err != nil {
		return nil, fmt.Errorf("remote: pull %s: %w", c, err)
	}
	data, ok := vals[0].(string)
	if !ok {
		return nil, nil
	}
	sum, _ := vals[1].(string)
	path, _ := vals[2].(string)
	if path == "" {
		path = string(c) + ".json"
	}
	return &Snapshot{Collection: c, Path: path, Data: []byte(data), Checksum: sum}, nil
}

// Push implements Backend. The three keys are written in one MULTI/EXEC.
func (r *Redis) Push(ctx context.Context, snap Snapshot) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.dataKey(snap.Collection), snap.Data, 0)
		p.Set(ctx, r.checksumKey(snap.Collection), snap.Checksum, 0)
		p.Set(ctx, r.pathKey(snap.Collection), snap.Path, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remote: push %s: %w", snap.Collection, err)
	}
	return nil
}
