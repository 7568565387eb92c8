package redis

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/chrisdamba/bentoledger/internal/repositories"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	addr := os.Getenv("BENTO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BENTO_TEST_REDIS_ADDR not set")
	}

	client, err := Connect(context.Background(), models.RedisConfig{Addr: addr})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	// A fresh prefix per test keeps runs independent without FLUSHDB.
	store := NewDocumentStore(client, "bentotest-"+uuid.NewString(), logrus.NewEntry(log))
	t.Cleanup(func() {
		ctx := context.Background()
		client.Del(ctx, store.key(models.DocumentMenu), store.key(models.DocumentRoster))
		store.Close()
	})
	return store
}

func TestKey(t *testing.T) {
	store := &DocumentStore{prefix: "bentoledger"}
	assert.Equal(t, "bentoledger:settings:menu", store.key(models.DocumentMenu))
	assert.Equal(t, "bentoledger:data:users", store.key(models.DocumentRoster))
	assert.Equal(t, "bentoledger:changes", store.channel())

	bare := &DocumentStore{}
	assert.Equal(t, "data:users", bare.key(models.DocumentRoster))
}

func TestDocumentStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LoadMenu(ctx)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, store.SaveMenu(ctx, models.DefaultMenu))
	items, err := store.LoadMenu(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMenu, items)

	accounts := []models.UserAccount{models.NewUserAccount("Alice")}
	require.NoError(t, store.SaveRoster(ctx, accounts))
	loaded, err := store.LoadRoster(ctx)
	require.NoError(t, err)
	assert.Equal(t, accounts, loaded)
}

func TestDocumentStoreSubscribe(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var (
		mu    sync.Mutex
		menus int
	)
	unsubscribe, err := store.Subscribe(ctx, func(items []models.MenuItem) {
		mu.Lock()
		defer mu.Unlock()
		menus++
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, store.SaveMenu(ctx, models.DefaultMenu))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return menus == 1
	}, 5*time.Second, 20*time.Millisecond)
}
