package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/UkralStul/postit/graph"
	"github.com/UkralStul/postit/internal/auth"
	"github.com/UkralStul/postit/internal/cache"
	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/service"
	"github.com/UkralStul/postit/internal/storage"
	"github.com/UkralStul/postit/internal/storage/inmemory"
	"github.com/UkralStul/postit/internal/validation"
)

type fakeMailer struct {
	calls int
	token string
}

func (m *fakeMailer) SendVerification(_ context.Context, _, _, token string) error {
	m.calls++
	m.token = token
	return nil
}

type testServer struct {
	*httptest.Server
	store  storage.Storage
	cache  *cache.Memory
	tokens *auth.TokenService
	codec  *auth.CookieCodec
	mailer *fakeMailer
}

// setup - отличия тестового сервера от конфигурации по умолчанию.
type setup struct {
	store      storage.Storage
	playground bool
	sessions   func(graph.Sessions) graph.Sessions
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, setup{})
}

func newTestServerWith(t *testing.T, cfg setup) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := cfg.store
	if store == nil {
		store = inmemory.New()
	}
	c := cache.NewMemory(0)
	v := validation.New()
	mailer := &fakeMailer{}

	tokens, err := auth.NewTokenService("thisisasecret", "secretrefresh")
	require.NoError(t, err)
	codec, err := auth.NewCookieCodec("cookie-secret", false)
	require.NoError(t, err)

	var sessions graph.Sessions = auth.NewManager(tokens, codec, c, log)
	if cfg.sessions != nil {
		sessions = cfg.sessions(sessions)
	}

	resolver := &graph.Resolver{
		Users:        service.NewUserService(store, auth.NewPasswordServiceWithCost(bcrypt.MinCost), v, log),
		Communities:  service.NewCommunityService(store, c, v, log),
		Posts:        service.NewPostService(store, c, v, log),
		Verification: service.NewVerificationService(store, c, mailer),
		Sessions:     sessions,
		Observer:     graph.NewPostObserver(),
		Log:          log,
	}

	srv := httptest.NewServer(NewRouter(Options{
		Resolver:   resolver,
		Storage:    store,
		ClientURL:  "http://localhost:3000",
		Playground: cfg.playground,
		Log:        log,
	}))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, store: store, cache: c, tokens: tokens, codec: codec, mailer: mailer}
}

type gqlError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path"`
	Extensions map[string]any `json:"extensions"`
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []gqlError                 `json:"errors"`
}

// field раскладывает поле data в dst.
func (r gqlResponse) field(t *testing.T, name string, dst any) {
	t.Helper()
	raw, ok := r.Data[name]
	require.True(t, ok, "no %q in data", name)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func (s *testServer) do(t *testing.T, query string, vars map[string]any, cookies ...*http.Cookie) (*http.Response, gqlResponse) {
	t.Helper()
	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, s.URL+GraphQLPath, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out gqlResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

const signUpMutation = `mutation SignUp($data: SignUpInput!) {
  signUp(createUserData: $data) {
    created
    errors { field constraints { isEmail isEmailUnique minLength maxLength isUsernameUnique } }
  }
}`

type signUpResult struct {
	Created *bool `json:"created"`
	Errors  []struct {
		Field       string            `json:"field"`
		Constraints map[string]string `json:"constraints"`
	} `json:"errors"`
}

func (s *testServer) signUp(t *testing.T, data map[string]any) (*http.Response, signUpResult) {
	t.Helper()
	resp, out := s.do(t, signUpMutation, map[string]any{"data": data})
	require.Empty(t, out.Errors)
	var res signUpResult
	out.field(t, "signUp", &res)
	return resp, res
}

// session регистрирует пользователя и возвращает его cookie.
func (s *testServer) session(t *testing.T, username string) []*http.Cookie {
	t.Helper()
	resp, res := s.signUp(t, map[string]any{"username": username, "password": "benbenben"})
	require.NotNil(t, res.Created)
	require.True(t, *res.Created)
	return resp.Cookies()
}

func TestSignUp_SetsCookies(t *testing.T) {
	s := newTestServer(t)

	resp, res := s.signUp(t, map[string]any{"username": "benben", "password": "benbenben"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotNil(t, res.Created)
	assert.True(t, *res.Created)
	assert.Empty(t, res.Errors)

	cookies := resp.Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, auth.AccessCookie, cookies[0].Name)
	assert.Equal(t, auth.RefreshCookie, cookies[1].Name)
	assert.True(t, cookies[0].HttpOnly)

	// Без email письмо не отправляется
	assert.Zero(t, s.mailer.calls)

	var cached string
	ok, err := s.cache.Get(context.Background(), cache.RefreshTokenKey("benben"), &cached)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignUp_Twice(t *testing.T) {
	s := newTestServer(t)
	s.session(t, "benben")

	resp, res := s.signUp(t, map[string]any{"username": "benben", "password": "benbenben"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "username", res.Errors[0].Field)
	assert.Equal(t, "That username is already taken", res.Errors[0].Constraints["isUsernameUnique"])
	assert.Empty(t, resp.Cookies())
}

func TestSignUp_InvalidInput(t *testing.T) {
	s := newTestServer(t)

	resp, res := s.signUp(t, map[string]any{"username": "be", "email": "nope", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	byField := map[string]map[string]string{}
	for _, e := range res.Errors {
		byField[e.Field] = e.Constraints
	}
	assert.Equal(t, "email must be an email", byField["email"]["isEmail"])
	assert.Equal(t, "Username must be between 3 and 20 characters", byField["username"]["minLength"])
	assert.Contains(t, byField, "password")
}

func TestSignUp_VerifyEmail(t *testing.T) {
	s := newTestServer(t)

	resp, res := s.signUp(t, map[string]any{"username": "benben", "email": "ben@ben.com", "password": "benbenben"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, *res.Created)
	require.Equal(t, 1, s.mailer.calls)

	const verify = `mutation($token: String!) { verifyEmail(token: $token) { verified error } }`
	_, out := s.do(t, verify, map[string]any{"token": s.mailer.token})
	var verified struct {
		Verified bool    `json:"verified"`
		Error    *string `json:"error"`
	}
	out.field(t, "verifyEmail", &verified)
	assert.True(t, verified.Verified)
	assert.Nil(t, verified.Error)

	user, err := s.store.GetUserByUsername(context.Background(), "benben")
	require.NoError(t, err)
	assert.True(t, user.HasValidated)

	resp, out = s.do(t, verify, map[string]any{"token": s.mailer.token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out.field(t, "verifyEmail", &verified)
	assert.False(t, verified.Verified)
}

func TestIsUsernameUnique(t *testing.T) {
	s := newTestServer(t)
	const q = `query($u: String!) { isUsernameUnique(username: $u) }`

	var unique bool
	_, out := s.do(t, q, map[string]any{"u": "ben"})
	out.field(t, "isUsernameUnique", &unique)
	assert.True(t, unique)

	s.session(t, "ben")

	_, out = s.do(t, q, map[string]any{"u": "ben"})
	out.field(t, "isUsernameUnique", &unique)
	assert.False(t, unique)
}

func TestIsEmailUnique_InvalidFormat(t *testing.T) {
	s := newTestServer(t)

	resp, out := s.do(t, `{ isEmailUnique(email: "nope") }`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "Argument Validation Error: email", out.Errors[0].Message)

	fields, ok := out.Errors[0].Extensions["validationErrors"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 1)
	fe := fields[0].(map[string]any)
	assert.Equal(t, "email", fe["field"])
	assert.Equal(t, map[string]any{"isEmail": "email must be an email"}, fe["constraints"])
}

func TestLogIn(t *testing.T) {
	s := newTestServer(t)
	s.session(t, "benben")

	const q = `mutation($data: LogInInput!) { logIn(logInData: $data) { success errors { field } } }`
	type result struct {
		Success *bool `json:"success"`
	}

	var wrong, unknown, good result
	resp, out := s.do(t, q, map[string]any{"data": map[string]any{"username": "benben", "password": "wrongpassword"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
	out.field(t, "logIn", &wrong)

	_, out = s.do(t, q, map[string]any{"data": map[string]any{"username": "nobody", "password": "benbenben"}})
	out.field(t, "logIn", &unknown)

	require.NotNil(t, wrong.Success)
	require.NotNil(t, unknown.Success)
	assert.False(t, *wrong.Success)
	assert.Equal(t, wrong, unknown)

	resp, out = s.do(t, q, map[string]any{"data": map[string]any{"username": "benben", "password": "benbenben"}})
	out.field(t, "logIn", &good)
	assert.True(t, *good.Success)
	assert.Len(t, resp.Cookies(), 2)
}

const createCommunityMutation = `mutation($data: CreateCommunityInput!) {
  createCommunity(createCommunityData: $data) { created errors { field constraints { matches minLength maxLength isCommunityNameUnique } } }
}`

func TestCreateCommunity_Unauthenticated(t *testing.T) {
	s := newTestServer(t)

	resp, out := s.do(t, createCommunityMutation, map[string]any{
		"data": map[string]any{"name": "golang", "type": "public", "isNsfw": false},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "Unauthorized", out.Errors[0].Message)

	_, err := s.store.GetCommunityByName(context.Background(), "golang")
	assert.True(t, service.IsNotFound(err))
}

func TestCreateCommunityAndPost(t *testing.T) {
	s := newTestServer(t)
	cookies := s.session(t, "benben")

	resp, out := s.do(t, createCommunityMutation, map[string]any{
		"data": map[string]any{"name": "golang", "type": "public", "isNsfw": false},
	}, cookies...)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Created *bool `json:"created"`
	}
	out.field(t, "createCommunity", &created)
	require.NotNil(t, created.Created)
	assert.True(t, *created.Created)

	// Повтор имени
	resp, out = s.do(t, createCommunityMutation, map[string]any{
		"data": map[string]any{"name": "golang", "type": "restricted", "isNsfw": false},
	}, cookies...)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var failed signUpResult
	out.field(t, "createCommunity", &failed)
	require.Len(t, failed.Errors, 2)

	const createPost = `mutation($c: String!, $data: CreatePostInput!) {
  createPost(communityName: $c, createPostData: $data) { created post { id sendReplies } }
}`
	resp, out = s.do(t, createPost, map[string]any{
		"c":    "golang",
		"data": map[string]any{"title": "Generics are here", "contentKind": "self", "submitType": "community"},
	}, cookies...)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var post struct {
		Created bool `json:"created"`
		Post    struct {
			ID          string `json:"id"`
			SendReplies bool   `json:"sendReplies"`
		} `json:"post"`
	}
	out.field(t, "createPost", &post)
	assert.True(t, post.Created)
	assert.True(t, post.Post.SendReplies)

	resp, out = s.do(t, createPost, map[string]any{
		"c":    "missing",
		"data": map[string]any{"title": "t", "contentKind": "self", "submitType": "community"},
	}, cookies...)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var missing struct {
		Created *bool `json:"created"`
	}
	out.field(t, "createPost", &missing)
	require.NotNil(t, missing.Created)
	assert.False(t, *missing.Created)

	const getPost = `query($id: ID!) {
  getPost(id: $id) { error post { title community { name creator { username } } creator { username } } }
}`
	_, out = s.do(t, getPost, map[string]any{"id": post.Post.ID})
	require.Empty(t, out.Errors)
	var got struct {
		Error *string `json:"error"`
		Post  struct {
			Title     string `json:"title"`
			Community struct {
				Name    string `json:"name"`
				Creator struct {
					Username string `json:"username"`
				} `json:"creator"`
			} `json:"community"`
			Creator struct {
				Username string `json:"username"`
			} `json:"creator"`
		} `json:"post"`
	}
	out.field(t, "getPost", &got)
	assert.Nil(t, got.Error)
	assert.Equal(t, "Generics are here", got.Post.Title)
	assert.Equal(t, "golang", got.Post.Community.Name)
	assert.Equal(t, "benben", got.Post.Community.Creator.Username)
	assert.Equal(t, "benben", got.Post.Creator.Username)

	_, out = s.do(t, getPost, map[string]any{"id": "00000000-0000-0000-0000-000000000000"})
	var none struct {
		Error *string `json:"error"`
	}
	out.field(t, "getPost", &none)
	require.NotNil(t, none.Error)
	assert.Equal(t, "There is no post with that id", *none.Error)
}

func TestRefreshOnlyRotatesCookies(t *testing.T) {
	s := newTestServer(t)
	cookies := s.session(t, "benben")

	var refresh *http.Cookie
	for _, c := range cookies {
		if c.Name == auth.RefreshCookie {
			refresh = c
		}
	}
	require.NotNil(t, refresh)

	resp, out := s.do(t, `{ me { username } isCommunityNameUnique(name: "golang") }`, nil, refresh)
	require.Empty(t, out.Errors)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	rotated := resp.Cookies()
	require.Len(t, rotated, 2)
	assert.Equal(t, auth.AccessCookie, rotated[0].Name)
	assert.Equal(t, auth.RefreshCookie, rotated[1].Name)

	var unique bool
	out.field(t, "isCommunityNameUnique", &unique)
	assert.True(t, unique)
}

func TestMe_PreferencesOnlyForSelf(t *testing.T) {
	s := newTestServer(t)
	cookies := s.session(t, "benben")

	const q = `{ me { username hasValidated profile { karma: postKarma } generalPreferences { communityContentSort } } }`
	_, out := s.do(t, q, nil, cookies...)
	require.Empty(t, out.Errors)

	var me struct {
		Username string `json:"username"`
		Profile  struct {
			Karma int `json:"karma"`
		} `json:"profile"`
		GeneralPreferences *struct {
			CommunityContentSort string `json:"communityContentSort"`
		} `json:"generalPreferences"`
	}
	out.field(t, "me", &me)
	assert.Equal(t, "benben", me.Username)
	require.NotNil(t, me.GeneralPreferences)
	assert.Equal(t, "Hot", me.GeneralPreferences.CommunityContentSort)

	resp, out := s.do(t, q, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "Unauthorized", out.Errors[0].Message)
}

func TestLogOut(t *testing.T) {
	s := newTestServer(t)
	cookies := s.session(t, "benben")

	resp, out := s.do(t, `mutation { logOut }`, nil, cookies...)
	require.Empty(t, out.Errors)
	for _, c := range resp.Cookies() {
		assert.Negative(t, c.MaxAge, c.Name)
	}

	var cached string
	ok, err := s.cache.Get(context.Background(), cache.RefreshTokenKey("benben"), &cached)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetCommunity_Missing(t *testing.T) {
	s := newTestServer(t)

	_, out := s.do(t, `{ getCommunity(name: "nope") { error community { id } } }`, nil)
	var res struct {
		Error     string `json:"error"`
		Community any    `json:"community"`
	}
	out.field(t, "getCommunity", &res)
	assert.Equal(t, "There is no community with that name", res.Error)
	assert.Nil(t, res.Community)
}

func TestTypename(t *testing.T) {
	s := newTestServer(t)

	_, out := s.do(t, `{ __typename getCommunity(name: "x") { __typename } }`, nil)
	var typename string
	out.field(t, "__typename", &typename)
	assert.Equal(t, "Query", typename)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.Client().Get(s.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntrospection_OnlyWithPlayground(t *testing.T) {
	const q = `{ __schema { queryType { name } } }`

	dev := newTestServerWith(t, setup{playground: true})
	_, out := dev.do(t, q, nil)
	require.Empty(t, out.Errors)
	var schema struct {
		QueryType struct {
			Name string `json:"name"`
		} `json:"queryType"`
	}
	out.field(t, "__schema", &schema)
	assert.Equal(t, "Query", schema.QueryType.Name)

	prod := newTestServer(t)
	_, out = prod.do(t, q, nil)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "introspection disabled", out.Errors[0].Message)
}

// Список всех пользователей наружу не отдается, только me
func TestNoUserListing(t *testing.T) {
	s := newTestServer(t)
	_, out := s.do(t, `{ getAllUsers { username } }`, nil)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0].Message, "getAllUsers")
}

func TestSignUp_PasswordTooLong(t *testing.T) {
	s := newTestServer(t)

	resp, res := s.signUp(t, map[string]any{"username": "benben", "password": strings.Repeat("a", 80)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "password", res.Errors[0].Field)
	assert.Equal(t, "Password must be at most 72 bytes long", res.Errors[0].Constraints["maxLength"])
}

// === Сбои хранилища и сессии ===

var errStoreDown = errors.New("connection refused")

// flakyStore отказывает на вставках, пока down выставлен.
type flakyStore struct {
	*inmemory.Store
	down *atomic.Bool
}

func (s flakyStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if s.down.Load() {
		return nil, errStoreDown
	}
	return s.Store.CreateUser(ctx, user)
}

func (s flakyStore) CreateCommunity(ctx context.Context, community *domain.Community) (*domain.Community, error) {
	if s.down.Load() {
		return nil, errStoreDown
	}
	return s.Store.CreateCommunity(ctx, community)
}

func (s flakyStore) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if s.down.Load() {
		return nil, errStoreDown
	}
	return s.Store.CreatePost(ctx, post)
}

// blindStore не находит пользователей по имени, а вставка все равно
// отклоняет дубликат: так выглядит гонка двух одинаковых регистраций.
type blindStore struct {
	*inmemory.Store
}

func (s blindStore) GetUserByUsername(context.Context, string) (*domain.User, error) {
	return nil, storage.ErrNotFound
}

type failingSessions struct {
	graph.Sessions
}

func (failingSessions) Start(context.Context, string, string) error {
	return errors.New("cookie too long")
}

func TestMutations_StoreError(t *testing.T) {
	down := &atomic.Bool{}
	s := newTestServerWith(t, setup{store: flakyStore{Store: inmemory.New(), down: down}})
	cookies := s.session(t, "benben")

	resp, out := s.do(t, createCommunityMutation, map[string]any{
		"data": map[string]any{"name": "golang", "type": "public", "isNsfw": false},
	}, cookies...)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Empty(t, out.Errors)

	down.Store(true)

	type created struct {
		Created *bool `json:"created"`
		Errors  []any `json:"errors"`
	}
	assertFailed := func(t *testing.T, resp *http.Response, out gqlResponse, name string) {
		t.Helper()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Empty(t, out.Errors)
		var res created
		out.field(t, name, &res)
		require.NotNil(t, res.Created)
		assert.False(t, *res.Created)
		assert.Empty(t, res.Errors)
	}

	resp, out = s.do(t, signUpMutation, map[string]any{"data": map[string]any{"username": "other", "password": "benbenben"}})
	assertFailed(t, resp, out, "signUp")
	assert.Empty(t, resp.Cookies())

	resp, out = s.do(t, createCommunityMutation, map[string]any{
		"data": map[string]any{"name": "rust", "type": "public", "isNsfw": false},
	}, cookies...)
	assertFailed(t, resp, out, "createCommunity")

	resp, out = s.do(t, `mutation($c: String!, $data: CreatePostInput!) {
  createPost(communityName: $c, createPostData: $data) { created errors { field } }
}`, map[string]any{
		"c":    "golang",
		"data": map[string]any{"title": "t", "contentKind": "self", "submitType": "community"},
	}, cookies...)
	assertFailed(t, resp, out, "createPost")
}

func TestSignUp_DuplicateInsert(t *testing.T) {
	s := newTestServerWith(t, setup{store: blindStore{inmemory.New()}})
	s.session(t, "benben")

	resp, res := s.signUp(t, map[string]any{"username": "benben", "password": "benbenben"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.NotNil(t, res.Created)
	assert.False(t, *res.Created)
	assert.Empty(t, res.Errors)
	assert.Empty(t, resp.Cookies())
}

func TestSignUp_SessionFailure(t *testing.T) {
	s := newTestServerWith(t, setup{sessions: func(m graph.Sessions) graph.Sessions {
		return failingSessions{m}
	}})

	resp, res := s.signUp(t, map[string]any{"username": "benben", "password": "benbenben"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotNil(t, res.Created)
	assert.True(t, *res.Created)
	assert.Empty(t, resp.Cookies())

	_, err := s.store.GetUserByUsername(context.Background(), "benben")
	require.NoError(t, err)
}
