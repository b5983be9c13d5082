package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db *gorm.DB
}

// models - порядок важен: сначала таблицы, на которые ссылаются внешние ключи.
var models = []interface{}{
	&domain.Profile{},
	&domain.GeneralPreferences{},
	&domain.NotificationPreferences{},
	&domain.EmailNotificationPreferences{},
	&domain.User{},
	&domain.Community{},
	&domain.Post{},
}

var _ storage.Storage = (*Store)(nil)

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db}, nil
}

// Migrate выполняет миграцию схемы.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate приводит ошибки gorm к ошибкам пакета storage.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, storage.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// first - общий вспомогательный поиск одной записи.
func first[T any](ctx context.Context, db *gorm.DB, what string, query string, args ...interface{}) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where(query, args...).First(&out).Error; err != nil {
		return nil, translate(err, what)
	}
	return &out, nil
}

// === Profile & Preferences ===

func (s *Store) CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, translate(err, "create profile")
	}
	return p, nil
}

func (s *Store) GetProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	return first[domain.Profile](ctx, s.db, "profile "+id, "id = ?", id)
}

func (s *Store) CreateGeneralPreferences(ctx context.Context, p *domain.GeneralPreferences) (*domain.GeneralPreferences, error) {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, translate(err, "create general preferences")
	}
	return p, nil
}

func (s *Store) GetGeneralPreferencesByID(ctx context.Context, id string) (*domain.GeneralPreferences, error) {
	return first[domain.GeneralPreferences](ctx, s.db, "general preferences "+id, "id = ?", id)
}

func (s *Store) CreateNotificationPreferences(ctx context.Context, p *domain.NotificationPreferences) (*domain.NotificationPreferences, error) {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, translate(err, "create notification preferences")
	}
	return p, nil
}

func (s *Store) GetNotificationPreferencesByID(ctx context.Context, id string) (*domain.NotificationPreferences, error) {
	return first[domain.NotificationPreferences](ctx, s.db, "notification preferences "+id, "id = ?", id)
}

func (s *Store) CreateEmailNotificationPreferences(ctx context.Context, p *domain.EmailNotificationPreferences) (*domain.EmailNotificationPreferences, error) {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, translate(err, "create email notification preferences")
	}
	return p, nil
}

func (s *Store) GetEmailNotificationPreferencesByID(ctx context.Context, id string) (*domain.EmailNotificationPreferences, error) {
	return first[domain.EmailNotificationPreferences](ctx, s.db, "email notification preferences "+id, "id = ?", id)
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	// Связанные строки уже созданы сервисом, повторно их не сохраняем
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return nil, translate(err, "create user "+user.Username)
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return first[domain.User](ctx, s.db, "user "+id, "id = ?", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return first[domain.User](ctx, s.db, "user "+username, "username = ?", username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return first[domain.User](ctx, s.db, "user with email "+email, "email = ?", email)
}

func (s *Store) MarkEmailVerified(ctx context.Context, userID string) error {
	// Пользователь и профиль обновляются в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update("has_validated", true).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Profile{}).
			Where("id = ?", user.ProfileID).
			Update("has_verified_email", true).Error
	})
	return translate(err, "verify user "+userID)
}

// === Community Methods ===

func (s *Store) CreateCommunity(ctx context.Context, community *domain.Community) (*domain.Community, error) {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(community).Error; err != nil {
		return nil, translate(err, "create community "+community.Name)
	}
	return community, nil
}

func (s *Store) GetCommunityByID(ctx context.Context, id string) (*domain.Community, error) {
	return first[domain.Community](ctx, s.db, "community "+id, "id = ?", id)
}

func (s *Store) GetCommunityByName(ctx context.Context, name string) (*domain.Community, error) {
	return first[domain.Community](ctx, s.db, "community "+name, "name = ?", name)
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, translate(err, "create post")
	}
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	return first[domain.Post](ctx, s.db, "post "+id, "id = ?", id)
}

// === Dataloader Methods ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	var users []*domain.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err, "batch users")
	}

	result := make(map[string]*domain.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) GetCommunitiesByIDs(ctx context.Context, ids []string) (map[string]*domain.Community, error) {
	var communities []*domain.Community
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&communities).Error; err != nil {
		return nil, translate(err, "batch communities")
	}

	result := make(map[string]*domain.Community, len(communities))
	for _, c := range communities {
		result[c.ID] = c
	}
	return result, nil
}
