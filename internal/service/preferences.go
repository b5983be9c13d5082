package service

import (
	"context"
	"fmt"

	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/storage"
)

// Профиль и три набора настроек создаются только при регистрации и дальше
// лишь читаются.

type ProfileService struct {
	store storage.Storage
}

func NewProfileService(store storage.Storage) *ProfileService {
	return &ProfileService{store: store}
}

// Create сохраняет профиль со значениями по умолчанию.
func (s *ProfileService) Create(ctx context.Context) (*domain.Profile, error) {
	p, err := s.store.CreateProfile(ctx, domain.NewProfile())
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return s.store.GetProfileByID(ctx, id)
}

type GeneralPreferencesService struct {
	store storage.Storage
}

func NewGeneralPreferencesService(store storage.Storage) *GeneralPreferencesService {
	return &GeneralPreferencesService{store: store}
}

func (s *GeneralPreferencesService) Create(ctx context.Context) (*domain.GeneralPreferences, error) {
	p, err := s.store.CreateGeneralPreferences(ctx, domain.NewGeneralPreferences())
	if err != nil {
		return nil, fmt.Errorf("create general preferences: %w", err)
	}
	return p, nil
}

func (s *GeneralPreferencesService) GetByID(ctx context.Context, id string) (*domain.GeneralPreferences, error) {
	return s.store.GetGeneralPreferencesByID(ctx, id)
}

type NotificationPreferencesService struct {
	store storage.Storage
}

func NewNotificationPreferencesService(store storage.Storage) *NotificationPreferencesService {
	return &NotificationPreferencesService{store: store}
}

func (s *NotificationPreferencesService) Create(ctx context.Context) (*domain.NotificationPreferences, error) {
	p, err := s.store.CreateNotificationPreferences(ctx, domain.NewNotificationPreferences())
	if err != nil {
		return nil, fmt.Errorf("create notification preferences: %w", err)
	}
	return p, nil
}

func (s *NotificationPreferencesService) GetByID(ctx context.Context, id string) (*domain.NotificationPreferences, error) {
	return s.store.GetNotificationPreferencesByID(ctx, id)
}

type EmailNotificationPreferencesService struct {
	store storage.Storage
}

func NewEmailNotificationPreferencesService(store storage.Storage) *EmailNotificationPreferencesService {
	return &EmailNotificationPreferencesService{store: store}
}

func (s *EmailNotificationPreferencesService) Create(ctx context.Context) (*domain.EmailNotificationPreferences, error) {
	p, err := s.store.CreateEmailNotificationPreferences(ctx, domain.NewEmailNotificationPreferences())
	if err != nil {
		return nil, fmt.Errorf("create email notification preferences: %w", err)
	}
	return p, nil
}

func (s *EmailNotificationPreferencesService) GetByID(ctx context.Context, id string) (*domain.EmailNotificationPreferences, error) {
	return s.store.GetEmailNotificationPreferencesByID(ctx, id)
}
