// Package service содержит бизнес-логику поверх storage: регистрацию и вход,
// сообщества, посты и подтверждение email. Сервисы не знают об HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/auth"
	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/storage"
	"github.com/UkralStul/postit/internal/validation"
)

// ErrInvalidCredentials - неизвестный пользователь или неверный пароль.
// Оба случая намеренно неразличимы.
var ErrInvalidCredentials = errors.New("invalid username or password")

const (
	emailTakenMessage    = "That email is already taken"
	usernameTakenMessage = "That username is already taken"
)

type UserService struct {
	store     storage.Storage
	passwords *auth.PasswordService
	validate  *validation.Validator
	log       *slog.Logger

	profiles   *ProfileService
	general    *GeneralPreferencesService
	notify     *NotificationPreferencesService
	emailNotif *EmailNotificationPreferencesService

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(store storage.Storage, passwords *auth.PasswordService, validate *validation.Validator, log *slog.Logger) *UserService {
	return &UserService{
		store:      store,
		passwords:  passwords,
		validate:   validate,
		log:        log,
		profiles:   NewProfileService(store),
		general:    NewGeneralPreferencesService(store),
		notify:     NewNotificationPreferencesService(store),
		emailNotif: NewEmailNotificationPreferencesService(store),
	}
}

func (s *UserService) Profiles() *ProfileService { return s.profiles }

func (s *UserService) GeneralPreferences() *GeneralPreferencesService { return s.general }

func (s *UserService) NotificationPreferences() *NotificationPreferencesService { return s.notify }

func (s *UserService) EmailNotificationPreferences() *EmailNotificationPreferencesService {
	return s.emailNotif
}

// SignUp проверяет ввод и регистрирует пользователя. Ошибки полей
// возвращаются как *apperror.ValidationError; уникальность проверяется
// только для полей, прошедших проверку формата.
func (s *UserService) SignUp(ctx context.Context, in domain.SignUpInput) (*domain.User, error) {
	verr, err := s.validate.Struct(in)
	if err != nil {
		return nil, err
	}

	if in.Email != nil && !verr.Has("email") {
		unique, err := s.IsEmailUnique(ctx, *in.Email)
		if err != nil {
			return nil, err
		}
		if !unique {
			verr.Add("email", apperror.IsEmailUnique, emailTakenMessage)
		}
	}
	if !verr.Has("username") {
		unique, err := s.IsUsernameUnique(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if !unique {
			verr.Add("username", apperror.IsUsernameUnique, usernameTakenMessage)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	return s.Create(ctx, in)
}

// Create создает профиль, три набора настроек и пользователя с хэшем пароля.
// Проверку ввода не выполняет.
func (s *UserService) Create(ctx context.Context, in domain.SignUpInput) (*domain.User, error) {
	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Create(ctx)
	if err != nil {
		return nil, err
	}
	general, err := s.general.Create(ctx)
	if err != nil {
		return nil, err
	}
	notify, err := s.notify.Create(ctx)
	if err != nil {
		return nil, err
	}
	emailNotif, err := s.emailNotif.Create(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, &domain.User{
		Username:                       in.Username,
		Email:                          in.Email,
		Password:                       hash,
		ProfileID:                      profile.ID,
		GeneralPreferencesID:           general.ID,
		NotificationPreferencesID:      notify.ID,
		EmailNotificationPreferencesID: emailNotif.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", in.Username, err)
	}
	return user, nil
}

// LogIn проверяет формат ввода и сверяет пароль.
func (s *UserService) LogIn(ctx context.Context, in domain.LogInInput) (*domain.User, error) {
	verr, err := s.validate.Struct(in)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Сверяем с фиктивным хэшем, чтобы время ответа не выдавало,
			// существует ли пользователь
			_ = s.passwords.Verify(s.fakeHash(), in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.passwords.Verify(user.Password, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// fakeHash - хэш случайного пароля той же стоимости, что и настоящие.
func (s *UserService) fakeHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.Hash(uuid.NewString())
		if err != nil {
			s.log.Error("hash dummy password", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

// IsEmailUnique - true, если пользователя с таким email нет.
func (s *UserService) IsEmailUnique(ctx context.Context, email string) (bool, error) {
	return absent(s.store.GetUserByEmail(ctx, email))
}

// IsUsernameUnique - true, если пользователя с таким именем нет.
func (s *UserService) IsUsernameUnique(ctx context.Context, username string) (bool, error) {
	return absent(s.store.GetUserByUsername(ctx, username))
}

// CheckEmail проверяет формат и уникальность email для запроса isEmailUnique.
// Ошибка хранилища означает false.
func (s *UserService) CheckEmail(ctx context.Context, email string) (bool, error) {
	verr, err := s.validate.Var("email", email, validation.EmailRule, validation.EmailMessage)
	if err != nil {
		return false, err
	}
	if err := verr.OrNil(); err != nil {
		return false, err
	}
	unique, err := s.IsEmailUnique(ctx, email)
	if err != nil {
		s.log.ErrorContext(ctx, "isEmailUnique lookup failed", slog.Any("error", err))
		return false, nil
	}
	return unique, nil
}

// CheckUsername - то же для isUsernameUnique.
func (s *UserService) CheckUsername(ctx context.Context, username string) (bool, error) {
	verr, err := s.validate.Var("username", username, validation.UsernameRule, validation.UsernameMessage)
	if err != nil {
		return false, err
	}
	if err := verr.OrNil(); err != nil {
		return false, err
	}
	unique, err := s.IsUsernameUnique(ctx, username)
	if err != nil {
		s.log.ErrorContext(ctx, "isUsernameUnique lookup failed", slog.Any("error", err))
		return false, nil
	}
	return unique, nil
}

// absent переводит результат поиска в "записи нет".
func absent[T any](_ T, err error) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, storage.ErrNotFound):
		return true, nil
	default:
		return false, err
	}
}
