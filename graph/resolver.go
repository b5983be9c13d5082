// graph/resolver.go

package graph

//go:generate go run github.com/99designs/gqlgen generate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/auth"
	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/service"
)

// It serves as dependency injection for your app, add any dependencies you require here.

const (
	noPostMessage      = "There is no post with that id"
	noCommunityMessage = "There is no community with that name"
	badTokenMessage    = "That verification link is invalid or has expired"
)

// errInternal - то, что клиент видит вместо непредвиденной ошибки.
var errInternal = errors.New("internal system error")

// PostObserver хранит каналы для подписчиков на новые посты.
type PostObserver struct {
	mu sync.RWMutex
	//          map[communityID] map[subscriberID] channel
	subs map[string]map[string]chan *domain.Post
}

// NewPostObserver - конструктор для нашего наблюдателя.
func NewPostObserver() *PostObserver {
	return &PostObserver{
		subs: make(map[string]map[string]chan *domain.Post),
	}
}

// Subscribe регистрирует подписчика на посты сообщества.
func (o *PostObserver) Subscribe(communityID string) (string, <-chan *domain.Post) {
	ch := make(chan *domain.Post, 1)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[communityID] == nil {
		o.subs[communityID] = make(map[string]chan *domain.Post)
	}
	o.subs[communityID][subID] = ch
	o.mu.Unlock()

	return subID, ch
}

// Unsubscribe удаляет подписчика и закрывает его канал.
func (o *PostObserver) Unsubscribe(communityID, subID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	communitySubs, ok := o.subs[communityID]
	if !ok {
		return
	}
	if ch, ok := communitySubs[subID]; ok {
		close(ch)
		delete(communitySubs, subID)
	}
	if len(communitySubs) == 0 {
		delete(o.subs, communityID)
	}
}

// Publish рассылает пост подписчикам его сообщества, не блокируя мутацию.
// Медленный подписчик пропускает событие.
func (o *PostObserver) Publish(post *domain.Post) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, ch := range o.subs[post.CommunityID] {
		select {
		case ch <- post:
		default:
		}
	}
}

// Sessions - сессия текущего запроса, реализуется auth.Manager.
type Sessions interface {
	Require(ctx context.Context) (string, error)
	Current(ctx context.Context) (string, bool)
	Start(ctx context.Context, username, email string) error
	End(ctx context.Context, username string)
}

var _ Sessions = (*auth.Manager)(nil)

// Resolver - это корневая структура резолвера.
// Она содержит все зависимости, которые нужны для выполнения запросов.
type Resolver struct {
	Users        *service.UserService
	Communities  *service.CommunityService
	Posts        *service.PostService
	Verification *service.VerificationService
	Sessions     Sessions
	Observer     *PostObserver
	Log          *slog.Logger
}

// checked превращает ошибку формата в GraphQL-ошибку со статусом 400.
// Прочие ошибки уже означают false.
func (r *Resolver) checked(ctx context.Context, unique bool, err error) (bool, error) {
	if err == nil {
		return unique, nil
	}
	if _, ok := apperror.AsValidation(err); ok {
		auth.SetStatus(ctx, http.StatusBadRequest)
		return false, err
	}
	r.Log.ErrorContext(ctx, "uniqueness check error", slog.Any("error", err))
	return false, nil
}

// isSelf - obj и есть пользователь текущей сессии.
func (r *Resolver) isSelf(ctx context.Context, obj *domain.User) bool {
	username, ok := r.Sessions.Current(ctx)
	return ok && username == obj.Username
}
