package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/cache"
	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/storage"
	"github.com/UkralStul/postit/internal/validation"
)

const communityNameTakenMessage = "That community name is already taken"

type CommunityService struct {
	store    storage.Storage
	cache    cache.Cache
	validate *validation.Validator
	log      *slog.Logger
}

func NewCommunityService(store storage.Storage, c cache.Cache, validate *validation.Validator, log *slog.Logger) *CommunityService {
	return &CommunityService{store: store, cache: c, validate: validate, log: log}
}

// Create проверяет ввод и создает сообщество от имени creator.
// Неизвестный creator - storage.ErrNotFound. После создания сообщество
// кладется в кэш <username>:communities на 30 минут; ошибка кэша только
// логируется.
func (s *CommunityService) Create(ctx context.Context, creator string, in domain.CreateCommunityInput) (*domain.Community, error) {
	verr, err := s.validate.Struct(in)
	if err != nil {
		return nil, err
	}
	if !verr.Has("name") {
		unique, err := s.IsNameUnique(ctx, in.Name)
		if err != nil {
			return nil, err
		}
		if !unique {
			verr.Add("name", apperror.IsCommunityNameUnique, communityNameTakenMessage)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("community creator %q: %w", creator, err)
	}

	community, err := s.store.CreateCommunity(ctx, &domain.Community{
		Name:        in.Name,
		Type:        in.Type,
		IsNsfw:      in.IsNsfw,
		Description: in.Description,
		CreatorID:   user.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create community %q: %w", in.Name, err)
	}

	if err := s.cache.Set(ctx, cache.CommunitiesKey(creator), cache.WarmTTL, community); err != nil {
		s.log.WarnContext(ctx, "cache community", slog.String("community", community.Name), slog.Any("error", err))
	}
	return community, nil
}

func (s *CommunityService) GetByID(ctx context.Context, id string) (*domain.Community, error) {
	return s.store.GetCommunityByID(ctx, id)
}

func (s *CommunityService) GetByName(ctx context.Context, name string) (*domain.Community, error) {
	return s.store.GetCommunityByName(ctx, name)
}

// IsNameUnique - true, если сообщества с таким именем нет.
func (s *CommunityService) IsNameUnique(ctx context.Context, name string) (bool, error) {
	return absent(s.store.GetCommunityByName(ctx, name))
}

// CheckName проверяет формат (3-21) и уникальность для isCommunityNameUnique.
// Ошибка хранилища означает false.
func (s *CommunityService) CheckName(ctx context.Context, name string) (bool, error) {
	verr, err := s.validate.Var("name", name, validation.CommunityNameRule, validation.CommunityNameMessage)
	if err != nil {
		return false, err
	}
	if err := verr.OrNil(); err != nil {
		return false, err
	}
	unique, err := s.IsNameUnique(ctx, name)
	if err != nil {
		s.log.ErrorContext(ctx, "isCommunityNameUnique lookup failed", slog.Any("error", err))
		return false, nil
	}
	return unique, nil
}

// IsNotFound - запись, на которую ссылается операция, отсутствует.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
