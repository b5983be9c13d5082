package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestTokens(t *testing.T, now time.Time) *TokenService {
	tokens, err := NewTokenService("thisisasecret", "secretrefresh")
	require.NoError(t, err)
	tokens.now = func() time.Time { return now }
	return tokens
}

// === Tokens ===

func TestTokenService_IssueAndParse(t *testing.T) {
	tokens := newTestTokens(t, time.Now())

	pair, err := tokens.Issue("benben", "ben@ben.com")
	require.NoError(t, err)

	ac, err := tokens.ParseAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "benben", ac.Username)
	assert.Equal(t, "ben@ben.com", ac.Email)

	rc, err := tokens.ParseRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, "benben", rc.Username)

	// Токены не взаимозаменяемы
	_, err = tokens.ParseAccess(pair.Refresh)
	assert.Error(t, err)
	_, err = tokens.ParseRefresh(pair.Access)
	assert.Error(t, err)
}

func TestTokenService_Expiry(t *testing.T) {
	start := time.Now()
	tokens := newTestTokens(t, start)
	pair, err := tokens.Issue("benben", "")
	require.NoError(t, err)

	tokens.now = func() time.Time { return start.Add(AccessTokenTTL + time.Minute) }
	_, err = tokens.ParseAccess(pair.Access)
	assert.Error(t, err)
	_, err = tokens.ParseRefresh(pair.Refresh)
	assert.NoError(t, err)

	tokens.now = func() time.Time { return start.Add(RefreshTokenTTL + time.Minute) }
	_, err = tokens.ParseRefresh(pair.Refresh)
	assert.Error(t, err)
}

func TestTokenService_ReissueKeepsExpiry(t *testing.T) {
	start := time.Now().Truncate(time.Second)
	tokens := newTestTokens(t, start)
	pair, err := tokens.Issue("benben", "")
	require.NoError(t, err)

	tokens.now = func() time.Time { return start.Add(time.Hour) }
	rc, err := tokens.ParseRefresh(pair.Refresh)
	require.NoError(t, err)

	next, err := tokens.Reissue(rc)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshExpiresAt, next.RefreshExpiresAt)

	nc, err := tokens.ParseRefresh(next.Refresh)
	require.NoError(t, err)
	assert.Equal(t, rc.ExpiresAt.Time, nc.ExpiresAt.Time)
}

func TestTokenService_WrongSecret(t *testing.T) {
	tokens := newTestTokens(t, time.Now())
	other, err := NewTokenService("other", "other-refresh")
	require.NoError(t, err)

	pair, err := other.Issue("benben", "")
	require.NoError(t, err)
	_, err = tokens.ParseRefresh(pair.Refresh)
	assert.Error(t, err)
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := NewTokenService("", "x")
	assert.Error(t, err)
}

// === Passwords ===

func TestPasswordService(t *testing.T) {
	p := NewPasswordServiceWithCost(bcrypt.MinCost)

	hash, err := p.Hash("benbenben")
	require.NoError(t, err)
	assert.NotEqual(t, "benbenben", hash)

	assert.NoError(t, p.Verify(hash, "benbenben"))
	assert.ErrorIs(t, p.Verify(hash, "wrong"), ErrPasswordMismatch)

	_, err = p.Hash(string(make([]byte, 73)))
	assert.Error(t, err)
}

// === Session ===

func TestResolveSession(t *testing.T) {
	tokens := newTestTokens(t, time.Now())
	pair, err := tokens.Issue("benben", "")
	require.NoError(t, err)

	t.Run("no refresh token", func(t *testing.T) {
		s := ResolveSession(tokens, pair.Access, "")
		assert.Equal(t, Unauthenticated, s.State)
	})

	t.Run("garbage refresh token", func(t *testing.T) {
		s := ResolveSession(tokens, pair.Access, "garbage")
		assert.Equal(t, Unauthenticated, s.State)
	})

	t.Run("both valid", func(t *testing.T) {
		s := ResolveSession(tokens, pair.Access, pair.Refresh)
		assert.Equal(t, Valid, s.State)
		assert.Equal(t, "benben", s.Username)
		assert.Nil(t, s.Tokens)
	})

	t.Run("refresh only", func(t *testing.T) {
		s := ResolveSession(tokens, "", pair.Refresh)
		require.Equal(t, Refreshed, s.State)
		assert.Equal(t, "benben", s.Username)
		require.NotNil(t, s.Tokens)
		assert.Equal(t, pair.RefreshExpiresAt, s.Tokens.RefreshExpiresAt)
	})

	t.Run("invalid access", func(t *testing.T) {
		s := ResolveSession(tokens, "garbage", pair.Refresh)
		assert.Equal(t, Refreshed, s.State)
	})
}

// === Cookies ===

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec, err := NewCookieCodec("cookie-secret", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, codec.Write(rec, TokenPair{Access: "a", Refresh: "r"}))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, AccessCookie, cookies[0].Name)
	assert.Equal(t, RefreshCookie, cookies[1].Name)
	for _, c := range cookies {
		assert.True(t, c.HttpOnly)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
	assert.Equal(t, int(AccessTokenTTL/time.Second), cookies[0].MaxAge)
	assert.Equal(t, int(RefreshTokenTTL/time.Second), cookies[1].MaxAge)

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	access, refresh := codec.Read(req)
	assert.Equal(t, "a", access)
	assert.Equal(t, "r", refresh)
}

func TestCookieCodec_RejectsUnsigned(t *testing.T) {
	codec, err := NewCookieCodec("cookie-secret", false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "plain"})
	_, refresh := codec.Read(req)
	assert.Empty(t, refresh)
}

// === Manager ===

type managerFixture struct {
	tokens  *TokenService
	codec   *CookieCodec
	cache   *cache.Memory
	manager *Manager
}

func newManagerFixture(t *testing.T) managerFixture {
	tokens := newTestTokens(t, time.Now())
	codec, err := NewCookieCodec("cookie-secret", false)
	require.NoError(t, err)
	c := cache.NewMemory(0)
	return managerFixture{tokens: tokens, codec: codec, cache: c, manager: NewManager(tokens, codec, c, nil)}
}

// serve прогоняет fn внутри Exchange и возвращает записанный ответ.
func serve(req *http.Request, fn func(ctx context.Context)) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	Exchange(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(r.Context())
		_, _ = w.Write([]byte("{}"))
	})).ServeHTTP(rec, req)
	return rec
}

func TestManager_RequireUnauthenticated(t *testing.T) {
	f := newManagerFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)

	var err error
	rec := serve(req, func(ctx context.Context) {
		_, err = f.manager.Require(ctx)
	})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestManager_StartThenRequire(t *testing.T) {
	f := newManagerFixture(t)

	var username string
	rec := serve(httptest.NewRequest(http.MethodPost, "/graphql", nil), func(ctx context.Context) {
		require.NoError(t, f.manager.Start(ctx, "benben", ""))
		SetStatus(ctx, http.StatusCreated)
		var err error
		username, err = f.manager.Require(ctx)
		require.NoError(t, err)
	})
	assert.Equal(t, "benben", username)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, rec.Result().Cookies(), 2)

	var cached string
	ok, err := f.cache.Get(context.Background(), cache.RefreshTokenKey("benben"), &cached)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, cached)
}

func TestManager_RefreshRotatesCookiesOnce(t *testing.T) {
	f := newManagerFixture(t)
	pair, err := f.tokens.Issue("benben", "")
	require.NoError(t, err)

	cookieRec := httptest.NewRecorder()
	require.NoError(t, f.codec.Write(cookieRec, pair))
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.AddCookie(cookieRec.Result().Cookies()[1]) // только refresh

	rec := serve(req, func(ctx context.Context) {
		for range 3 {
			username, err := f.manager.Require(ctx)
			require.NoError(t, err)
			assert.Equal(t, "benben", username)
		}
	})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, AccessCookie, cookies[0].Name)
	assert.Equal(t, RefreshCookie, cookies[1].Name)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestManager_End(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, cache.RefreshTokenKey("benben"), time.Hour, "token"))

	rec := serve(httptest.NewRequest(http.MethodPost, "/graphql", nil), func(ctx context.Context) {
		f.manager.End(ctx, "benben")
		_, ok := f.manager.Current(ctx)
		assert.False(t, ok)
	})

	for _, c := range rec.Result().Cookies() {
		assert.Negative(t, c.MaxAge)
	}
	var cached string
	ok, err := f.cache.Get(ctx, cache.RefreshTokenKey("benben"), &cached)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetStatus_HighestWins(t *testing.T) {
	rec := serve(httptest.NewRequest(http.MethodPost, "/graphql", nil), func(ctx context.Context) {
		SetStatus(ctx, http.StatusCreated)
		SetStatus(ctx, http.StatusBadRequest)
		SetStatus(ctx, http.StatusCreated)
		assert.Equal(t, http.StatusBadRequest, Status(ctx))
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
