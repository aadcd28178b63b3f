package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type deviceKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	AnonymousCartKey(deviceID string) string
}

// DeviceStore keeps an anonymous device's lines as one JSON array in Redis.
// The stored snapshot is authoritative; nothing is re-read from the catalog.
type DeviceStore struct {
	kv  deviceKV
	ttl time.Duration
}

// NewDeviceStore builds the Redis-backed store. Each write refreshes the TTL.
func NewDeviceStore(kv deviceKV, ttl time.Duration) (*DeviceStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &DeviceStore{kv: kv, ttl: ttl}, nil
}

func (s *DeviceStore) Load(ctx context.Context, owner Owner) ([]Line, error) {
	if owner.DeviceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device id required")
	}
	raw, err := s.kv.Get(ctx, s.kv.AnonymousCartKey(owner.DeviceID))
	if errors.Is(err, redis.Nil) {
		return []Line{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load device cart")
	}

	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode device cart")
	}
	return lines, nil
}

// Save writes lines, or deletes the key when lines is empty.
func (s *DeviceStore) Save(ctx context.Context, owner Owner, lines []Line) error {
	if owner.DeviceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "device id required")
	}
	key := s.kv.AnonymousCartKey(owner.DeviceID)
	if len(lines) == 0 {
		if err := s.kv.Del(ctx, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear device cart")
		}
		return nil
	}

	payload, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode device cart")
	}
	if err := s.kv.Set(ctx, key, string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save device cart")
	}
	return nil
}
