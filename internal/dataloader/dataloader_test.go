package dataloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/graph-gophers/dataloader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/storage"
	"github.com/UkralStul/postit/internal/storage/inmemory"
)

// countingStore считает пакетные запросы.
type countingStore struct {
	*inmemory.Store
	mu    sync.Mutex
	calls int
}

func (s *countingStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Store.GetUsersByIDs(ctx, ids)
}

func TestLoadUser_Batches(t *testing.T) {
	store := &countingStore{Store: inmemory.New()}
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"ben", "ann", "bob"} {
		u, err := store.CreateUser(ctx, &domain.User{Username: name, Password: "x"})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	loaders := NewLoaders(store)

	// Ключи ставятся в очередь до вызова thunk'ов и уходят одним пакетом
	thunks := make([]dataloader.Thunk, len(ids))
	for i, id := range ids {
		thunks[i] = loaders.UserByID.Load(ctx, dataloader.StringKey(id))
	}
	got := make([]*domain.User, len(ids))
	for i, thunk := range thunks {
		data, err := thunk()
		require.NoError(t, err)
		got[i] = data.(*domain.User)
	}

	assert.Equal(t, 1, store.calls)
	assert.Equal(t, "ben", got[0].Username)
	assert.Equal(t, "bob", got[2].Username)

	// Повторная загрузка берется из кэша лоадера
	u, err := LoadUser(context.WithValue(ctx, key, loaders), ids[1])
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)
	assert.Equal(t, 1, store.calls)
}

func TestLoadCommunity_Missing(t *testing.T) {
	ctx := context.WithValue(context.Background(), key, NewLoaders(inmemory.New()))

	_, err := LoadCommunity(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMiddleware(t *testing.T) {
	var loaders *Loaders
	h := Middleware(inmemory.New(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loaders = For(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/graphql", nil))
	assert.NotNil(t, loaders)

	_, err := LoadUser(context.Background(), "x")
	assert.Error(t, err)
}
