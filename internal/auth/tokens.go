// Package auth выпускает и проверяет токены сессии, хэширует пароли и
// хранит HTTP-контекст запроса, через который резолверы пишут cookie.
//
// Схема сессии: короткий access-токен (15 минут) и длинный refresh-токен
// (1 год), оба HS256 и подписаны разными секретами.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 365 * 24 * time.Hour

	issuer = "postit"

	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Claims - полезная нагрузка обоих токенов.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenPair - результат выпуска пары токенов.
type TokenPair struct {
	Access           string
	Refresh          string
	RefreshExpiresAt time.Time
}

// TokenService подписывает и проверяет токены.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// NewTokenService создает сервис. Секреты не должны быть пустыми.
func NewTokenService(accessSecret, refreshSecret string) (*TokenService, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: token secrets must not be empty")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}, nil
}

// Issue выпускает новую пару: access на 15 минут, refresh на год.
func (s *TokenService) Issue(username, email string) (TokenPair, error) {
	return s.issue(username, email, s.now().Add(RefreshTokenTTL))
}

// Reissue выпускает новую пару по действующему refresh-токену. Срок
// нового refresh-токена совпадает со сроком старого, так что повторная
// выдача не продлевает сессию.
func (s *TokenService) Reissue(refresh *Claims) (TokenPair, error) {
	if refresh.ExpiresAt == nil {
		return TokenPair{}, errors.New("auth: refresh token has no expiry")
	}
	return s.issue(refresh.Username, refresh.Email, refresh.ExpiresAt.Time)
}

func (s *TokenService) issue(username, email string, refreshExp time.Time) (TokenPair, error) {
	now := s.now()

	access, err := s.sign(s.accessSecret, Claims{
		Username: username,
		Email:    email,
		Kind:     kindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.sign(s.refreshSecret, Claims{
		Username: username,
		Email:    email,
		Kind:     kindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh, RefreshExpiresAt: refreshExp}, nil
}

func (s *TokenService) sign(secret []byte, c Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// ParseAccess проверяет access-токен.
func (s *TokenService) ParseAccess(token string) (*Claims, error) {
	return s.parse(token, s.accessSecret, kindAccess)
}

// ParseRefresh проверяет refresh-токен.
func (s *TokenService) ParseRefresh(token string) (*Claims, error) {
	return s.parse(token, s.refreshSecret, kindRefresh)
}

func (s *TokenService) parse(token string, secret []byte, kind string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(
		token,
		&Claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	if c.Kind != kind {
		return nil, fmt.Errorf("auth: expected %s token, got %q", kind, c.Kind)
	}
	if c.Username == "" {
		return nil, errors.New("auth: token has no username")
	}
	return c, nil
}
