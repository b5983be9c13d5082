package service

import (
	"context"
	"fmt"

	"github.com/UkralStul/postit/internal/cache"
	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/mail"
	"github.com/UkralStul/postit/internal/storage"
)

// VerificationMailer - часть mail.Mailer, нужная сервису.
type VerificationMailer interface {
	SendVerification(ctx context.Context, email, username, token string) error
}

// VerificationService выдает токены подтверждения email и погашает их.
// Токен живет в кэше verification:<token> -> id пользователя 24 часа.
type VerificationService struct {
	store  storage.Storage
	cache  cache.Cache
	mailer VerificationMailer
}

func NewVerificationService(store storage.Storage, c cache.Cache, mailer VerificationMailer) *VerificationService {
	return &VerificationService{store: store, cache: c, mailer: mailer}
}

// Send сохраняет новый токен и отправляет письмо. Пользователь без email
// пропускается.
func (s *VerificationService) Send(ctx context.Context, user *domain.User) error {
	if user.Email == nil {
		return nil
	}
	token := mail.NewToken()
	if err := s.cache.Set(ctx, cache.VerificationKey(token), cache.VerificationTTL, user.ID); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}
	return s.mailer.SendVerification(ctx, *user.Email, user.Username, token)
}

// Verify погашает токен. false - токен неизвестен или истек.
func (s *VerificationService) Verify(ctx context.Context, token string) (bool, error) {
	key := cache.VerificationKey(token)

	var userID string
	ok, err := s.cache.Get(ctx, key, &userID)
	if err != nil {
		return false, fmt.Errorf("load verification token: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := s.store.MarkEmailVerified(ctx, userID); err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("mark email verified: %w", err)
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		return true, fmt.Errorf("drop verification token: %w", err)
	}
	return true, nil
}
