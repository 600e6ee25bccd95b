package fields

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/GophIdentity/internal/models"
)

type fakeStore struct {
	calls  atomic.Int32
	fields []models.Field
	err    error
}

func (f *fakeStore) List(context.Context) ([]models.Field, error) {
	f.calls.Add(1)
	return f.fields, f.err
}

type fakeCache struct {
	mu      sync.Mutex
	fields  []models.Field
	ok      bool
	getErr  error
	setErr  error
	setHits int
}

func (c *fakeCache) Get(context.Context) ([]models.Field, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields, c.ok, c.getErr
}

func (c *fakeCache) Set(_ context.Context, fields []models.Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setHits++
	if c.setErr != nil {
		return c.setErr
	}
	c.fields, c.ok = fields, true
	return nil
}

func (c *fakeCache) sets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setHits
}

var dictionary = []models.Field{
	{ID: 1, Name: "first_name", Kind: models.FieldKindText},
	{ID: 2, Name: "email", Kind: models.FieldKindExact},
}

func TestGetFieldsList_NoCache(t *testing.T) {
	store := &fakeStore{fields: dictionary}
	svc := NewService(store, nil, zap.NewNop())

	d, err := svc.GetFieldsList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"first_name": 1, "email": 2}, d.IDs())
}

func TestGetFieldsList_CacheHitSkipsStore(t *testing.T) {
	store := &fakeStore{fields: dictionary}
	cache := &fakeCache{fields: dictionary[:1], ok: true}
	svc := NewService(store, cache, zap.NewNop())

	d, err := svc.GetFieldsList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())
	assert.Zero(t, store.calls.Load())
}

func TestGetFieldsList_CacheMissFillsCache(t *testing.T) {
	store := &fakeStore{fields: dictionary}
	cache := &fakeCache{}
	svc := NewService(store, cache, zap.NewNop())

	d, err := svc.GetFieldsList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 1, cache.sets())
	assert.Equal(t, dictionary, cache.fields)
}

func TestGetFieldsList_CacheErrorsFallThrough(t *testing.T) {
	store := &fakeStore{fields: dictionary}
	cache := &fakeCache{getErr: errors.New("down"), setErr: errors.New("down")}
	svc := NewService(store, cache, zap.NewNop())

	d, err := svc.GetFieldsList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
}

func TestGetFieldsList_StoreError(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("db down")}, nil, zap.NewNop())

	_, err := svc.GetFieldsList(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestStartRefresher_ReloadsUntilCancelled(t *testing.T) {
	store := &fakeStore{fields: dictionary}
	cache := &fakeCache{}
	svc := NewService(store, cache, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	StartRefresher(ctx, svc, 5*time.Millisecond, zap.NewNop())

	require.Eventually(t, func() bool { return cache.sets() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestRedisCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()
	cache := NewRedisCache(client, time.Minute)

	_, ok, err := cache.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, cache.Set(context.Background(), dictionary))
}

func TestEncodeDecode(t *testing.T) {
	data, err := encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	data, err = encode(dictionary)
	require.NoError(t, err)
	got, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, dictionary, got)

	_, err = decode([]byte("not json"))
	assert.Error(t, err)
}
