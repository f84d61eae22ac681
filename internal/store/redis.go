package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/stockroom/internal/model"
)

// DefaultRedisPrefix namespaces collection keys.
const DefaultRedisPrefix = "stockroom:"

// RedisCollections stores each collection as one JSON document under
// <prefix><collection>.
type RedisCollections struct {
	client *redis.Client
	prefix string
}

// NewRedisCollections returns Redis-backed Collections. An empty prefix
// uses DefaultRedisPrefix.
func NewRedisCollections(client *redis.Client, prefix string) *RedisCollections {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCollections{client: client, prefix: prefix}
}

func (r *RedisCollections) key(collection string) string {
	return r.prefix + collection
}

// get decodes a collection document. A missing key is an empty collection.
func (r *RedisCollections) get(ctx context.Context, collection string, v any) error {
	raw, err := r.client.Get(ctx, r.key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", collection, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", collection, err)
	}
	return nil
}

func (r *RedisCollections) set(ctx context.Context, cmd redis.Cmdable, collection string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", collection, err)
	}
	if err := cmd.Set(ctx, r.key(collection), raw, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", collection, err)
	}
	return nil
}

func (r *RedisCollections) Inventory(ctx context.Context) ([]model.InventoryItem, error) {
	items := []model.InventoryItem{}
	if err := r.get(ctx, model.CollectionInventory, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *RedisCollections) Removals(ctx context.Context, upc string) ([]model.RemovalRecord, error) {
	records := []model.RemovalRecord{}
	if err := r.get(ctx, model.CollectionRemovals, &records); err != nil {
		return nil, err
	}
	if upc == "" {
		return records, nil
	}

	filtered := []model.RemovalRecord{}
	for _, rec := range records {
		if rec.UPC == upc {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

func (r *RedisCollections) Activity(ctx context.Context) ([]model.ActivityEntry, error) {
	entries := []model.ActivityEntry{}
	if err := r.get(ctx, model.CollectionActivity, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *RedisCollections) ReplaceInventory(ctx context.Context, items []model.InventoryItem) error {
	if err := ValidateInventory(items); err != nil {
		return err
	}
	return r.set(ctx, r.client, model.CollectionInventory, model.NonNil(items))
}

func (r *RedisCollections) ReplaceRemovals(ctx context.Context, records []model.RemovalRecord) error {
	if err := ValidateRemovals(records); err != nil {
		return err
	}
	return r.set(ctx, r.client, model.CollectionRemovals, model.NonNil(records))
}

func (r *RedisCollections) ReplaceActivity(ctx context.Context, entries []model.ActivityEntry) error {
	if err := ValidateActivity(entries); err != nil {
		return err
	}
	return r.set(ctx, r.client, model.CollectionActivity, model.NonNil(entries))
}

// ReplaceAll writes the three documents in a MULTI/EXEC block.
func (r *RedisCollections) ReplaceAll(ctx context.Context, snap model.Snapshot) error {
	if err := ValidateSnapshot(snap); err != nil {
		return err
	}
	snap.Normalize()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := r.set(ctx, pipe, model.CollectionInventory, snap.Inventory); err != nil {
			return err
		}
		if err := r.set(ctx, pipe, model.CollectionRemovals, snap.Removals); err != nil {
			return err
		}
		return r.set(ctx, pipe, model.CollectionActivity, snap.Activity)
	})
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
