package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/cache"
)

// Manager связывает токены, cookie и кэш refresh-токенов с контекстом запроса.
type Manager struct {
	tokens  *TokenService
	cookies *CookieCodec
	cache   cache.Cache
	log     *slog.Logger
}

func NewManager(tokens *TokenService, cookies *CookieCodec, c cache.Cache, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{tokens: tokens, cookies: cookies, cache: c, log: log}
}

// Require возвращает имя пользователя текущей сессии или apperror.ErrUnauthorized
// (и статус 401). При состоянии Refreshed обе cookie переписываются, а запись
// в кэше обновляется. Сессия разбирается один раз на запрос.
func (m *Manager) Require(ctx context.Context) (string, error) {
	s := m.session(ctx)
	if s.State == Unauthenticated {
		SetStatus(ctx, http.StatusUnauthorized)
		return "", apperror.ErrUnauthorized
	}
	return s.Username, nil
}

// Current - как Require, но без ошибки и без статуса 401.
func (m *Manager) Current(ctx context.Context) (string, bool) {
	s := m.session(ctx)
	return s.Username, s.State != Unauthenticated
}

func (m *Manager) session(ctx context.Context) Session {
	ex := fromContext(ctx)
	if ex == nil {
		return Session{State: Unauthenticated}
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.resolved {
		return ex.session
	}
	ex.resolved = true

	access, refresh := m.cookies.Read(ex.r)
	s := ResolveSession(m.tokens, access, refresh)
	if s.State == Refreshed {
		if err := m.cookies.Write(ex.w, *s.Tokens); err != nil {
			m.log.ErrorContext(ctx, "rewrite session cookies", slog.String("username", s.Username), slog.Any("error", err))
		}
		m.remember(ctx, s.Username, s.Tokens.Refresh)
	}
	ex.session = s
	return s
}

// Start выпускает пару токенов, пишет cookie (access, затем refresh) и
// сохраняет refresh-токен в кэш на год.
func (m *Manager) Start(ctx context.Context, username, email string) error {
	pair, err := m.tokens.Issue(username, email)
	if err != nil {
		return fmt.Errorf("issue tokens: %w", err)
	}

	if ex := fromContext(ctx); ex != nil {
		if err := m.cookies.Write(ex.w, pair); err != nil {
			return fmt.Errorf("write session cookies: %w", err)
		}
		ex.mu.Lock()
		ex.resolved = true
		ex.session = Session{State: Valid, Username: username, Email: email}
		ex.mu.Unlock()
	}

	m.remember(ctx, username, pair.Refresh)
	return nil
}

// End удаляет cookie и запись в кэше. Выданный refresh-токен при этом
// остается действительным до истечения срока.
func (m *Manager) End(ctx context.Context, username string) {
	if ex := fromContext(ctx); ex != nil {
		m.cookies.Clear(ex.w)
		ex.mu.Lock()
		ex.resolved = true
		ex.session = Session{State: Unauthenticated}
		ex.mu.Unlock()
	}
	if err := m.cache.Delete(ctx, cache.RefreshTokenKey(username)); err != nil {
		m.log.WarnContext(ctx, "drop refresh token", slog.String("username", username), slog.Any("error", err))
	}
}

func (m *Manager) remember(ctx context.Context, username, refresh string) {
	if err := m.cache.Set(ctx, cache.RefreshTokenKey(username), cache.RefreshTokenTTL, refresh); err != nil {
		m.log.WarnContext(ctx, "cache refresh token", slog.String("username", username), slog.Any("error", err))
	}
}
