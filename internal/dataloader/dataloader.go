package dataloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/storage"
	"github.com/graph-gophers/dataloader"
)

var errNoLoaders = errors.New("dataloader: no loaders in context")

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	UserByID      *dataloader.Loader
	CommunityByID *dataloader.Loader
}

// NewLoaders создает свежий набор лоадеров. Лоадеры кэшируют результаты,
// поэтому набор живет ровно один запрос.
func NewLoaders(store storage.Storage) *Loaders {
	users := batch(func(ctx context.Context, ids []string) (map[string]*domain.User, error) {
		return store.GetUsersByIDs(ctx, ids)
	})
	communities := batch(func(ctx context.Context, ids []string) (map[string]*domain.Community, error) {
		return store.GetCommunitiesByIDs(ctx, ids)
	})

	return &Loaders{
		UserByID:      dataloader.NewBatchedLoader(users, dataloader.WithWait(time.Millisecond)),
		CommunityByID: dataloader.NewBatchedLoader(communities, dataloader.WithWait(time.Millisecond)),
	}
}

// batch оборачивает пакетный метод хранилища в BatchFunc: один запрос на
// все ключи, результаты в порядке ключей.
func batch[T any](fetch func(ctx context.Context, ids []string) (map[string]*T, error)) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := keys.Keys()
		results := make([]*dataloader.Result, len(keys))

		found, err := fetch(ctx, ids)
		if err != nil {
			// В случае ошибки, возвращаем ее для всех ключей
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		for i, id := range ids {
			if v, ok := found[id]; ok {
				results[i] = &dataloader.Result{Data: v}
			} else {
				results[i] = &dataloader.Result{Error: fmt.Errorf("%s: %w", id, storage.ErrNotFound)}
			}
		}
		return results
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), key, NewLoaders(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// For извлекает лоадеры из контекста.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

// LoadUser загружает пользователя через лоадер запроса.
func LoadUser(ctx context.Context, id string) (*domain.User, error) {
	l := For(ctx)
	if l == nil {
		return nil, errNoLoaders
	}
	return load[domain.User](ctx, l.UserByID, id)
}

// LoadCommunity загружает сообщество через лоадер запроса.
func LoadCommunity(ctx context.Context, id string) (*domain.Community, error) {
	l := For(ctx)
	if l == nil {
		return nil, errNoLoaders
	}
	return load[domain.Community](ctx, l.CommunityByID, id)
}

func load[T any](ctx context.Context, loader *dataloader.Loader, id string) (*T, error) {
	data, err := loader.Load(ctx, dataloader.StringKey(id))()
	if err != nil {
		return nil, err
	}
	v, ok := data.(*T)
	if !ok {
		return nil, fmt.Errorf("dataloader: unexpected %T for %s", data, id)
	}
	return v, nil
}
