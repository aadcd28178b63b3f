package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.failGet != nil {
		return "", f.failGet
	}
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.failSet != nil {
		return f.failSet
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeKV) AnonymousCartKey(deviceID string) string {
	return "sf:cart:anon:" + deviceID
}

func TestDeviceStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store, err := NewDeviceStore(kv, time.Hour)
	require.NoError(t, err)
	owner := AnonymousOwner("device-1")

	lines, err := store.Load(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, lines)

	want := []Line{{ProductID: 4, Name: "Lámpara", UnitPrice: 2599, Image: "/img/lampara.jpg", Quantity: 2}}
	require.NoError(t, store.Save(ctx, owner, want))
	assert.Equal(t, time.Hour, kv.ttls["sf:cart:anon:device-1"])
	assert.Contains(t, kv.values["sf:cart:anon:device-1"], `"productId":4`)

	got, err := store.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Save(ctx, owner, nil))
	_, present := kv.values["sf:cart:anon:device-1"]
	assert.False(t, present)
}

func TestDeviceStoreErrors(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store, err := NewDeviceStore(kv, time.Hour)
	require.NoError(t, err)

	_, err = store.Load(ctx, Owner{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	kv.values["sf:cart:anon:broken"] = "{not json"
	_, err = store.Load(ctx, AnonymousOwner("broken"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	kv.failGet = errors.New("i/o timeout")
	_, err = store.Load(ctx, AnonymousOwner("device-1"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	kv.failSet = errors.New("i/o timeout")
	err = store.Save(ctx, AnonymousOwner("device-1"), []Line{line(1, 100, 1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = NewDeviceStore(nil, time.Hour)
	assert.Error(t, err)
}
