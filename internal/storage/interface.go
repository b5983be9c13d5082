package storage

import (
	"context"
	"errors"

	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/domain"
)

// ErrNotFound возвращается, когда запись отсутствует. Обе реализации
// обязаны оборачивать его, чтобы сервисы могли отличить "нет строки" от сбоя.
var ErrNotFound = apperror.ErrNotFound

// ErrDuplicate - нарушение уникального ограничения при вставке.
var ErrDuplicate = errors.New("duplicate key")

// Storage определяет контракт для хранилищ.
type Storage interface {
	CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*domain.Profile, error)
	CreateGeneralPreferences(ctx context.Context, p *domain.GeneralPreferences) (*domain.GeneralPreferences, error)
	GetGeneralPreferencesByID(ctx context.Context, id string) (*domain.GeneralPreferences, error)
	CreateNotificationPreferences(ctx context.Context, p *domain.NotificationPreferences) (*domain.NotificationPreferences, error)
	GetNotificationPreferencesByID(ctx context.Context, id string) (*domain.NotificationPreferences, error)
	CreateEmailNotificationPreferences(ctx context.Context, p *domain.EmailNotificationPreferences) (*domain.EmailNotificationPreferences, error)
	GetEmailNotificationPreferencesByID(ctx context.Context, id string) (*domain.EmailNotificationPreferences, error)

	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	MarkEmailVerified(ctx context.Context, userID string) error

	CreateCommunity(ctx context.Context, community *domain.Community) (*domain.Community, error)
	GetCommunityByID(ctx context.Context, id string) (*domain.Community, error)
	GetCommunityByName(ctx context.Context, name string) (*domain.Community, error)

	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)

	// Методы для Dataloader'ов
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	GetCommunitiesByIDs(ctx context.Context, ids []string) (map[string]*domain.Community, error)
}
