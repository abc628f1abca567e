package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/benjaminclauss/tollgate/internal/toll"
)

const defaultKeyPrefix = "toll:plate:"

// RedisConfig holds the connection settings for a Redis-backed ledger.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// Redis stores plate records in Redis, one JSON value per plate.
// Substituting it for Memory keeps ledger state across server restarts;
// transitions are still serialized by the machine that owns the ledger.
type Redis struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &Redis{client: client, keyPrefix: keyPrefix}, nil
}

func (r *Redis) key(plate string) string { return r.keyPrefix + plate }

func (r *Redis) Get(ctx context.Context, plate string) (toll.PlateRecord, error) {
	data, err := r.client.Get(ctx, r.key(plate)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return toll.PlateRecord{}, toll.ErrPlateNotFound
		}
		return toll.PlateRecord{}, fmt.Errorf("redis get: %w", err)
	}
	var rec toll.PlateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return toll.PlateRecord{}, fmt.Errorf("unmarshal plate record: %w", err)
	}
	return rec, nil
}

func (r *Redis) Upsert(ctx context.Context, rec toll.PlateRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal plate record: %w", err)
	}
	// Records never expire. The latest trip is audit data.
	return r.client.Set(ctx, r.key(rec.Plate), data, 0).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
