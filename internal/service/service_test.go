package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/auth"
	"github.com/UkralStul/postit/internal/cache"
	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/storage"
	"github.com/UkralStul/postit/internal/storage/inmemory"
	"github.com/UkralStul/postit/internal/validation"
)

type fakeMailer struct {
	calls  int
	token  string
	email  string
	failed error
}

func (m *fakeMailer) SendVerification(_ context.Context, email, _, token string) error {
	m.calls++
	m.email = email
	m.token = token
	return m.failed
}

type fixture struct {
	store        storage.Storage
	cache        *cache.Memory
	mailer       *fakeMailer
	users        *UserService
	communities  *CommunityService
	posts        *PostService
	verification *VerificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, inmemory.New())
}

func newFixtureWith(t *testing.T, store storage.Storage) *fixture {
	t.Helper()
	c := cache.NewMemory(0)
	v := validation.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := &fakeMailer{}
	return &fixture{
		store:        store,
		cache:        c,
		mailer:       mailer,
		users:        NewUserService(store, auth.NewPasswordServiceWithCost(bcrypt.MinCost), v, log),
		communities:  NewCommunityService(store, c, v, log),
		posts:        NewPostService(store, c, v, log),
		verification: NewVerificationService(store, c, mailer),
	}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) signUp(t *testing.T, username string, email *string) *domain.User {
	t.Helper()
	u, err := f.users.SignUp(context.Background(), domain.SignUpInput{Username: username, Email: email, Password: "benbenben"})
	require.NoError(t, err)
	return u
}

func requireField(t *testing.T, err error, field, constraint, msg string) {
	t.Helper()
	verr, ok := apperror.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	for _, f := range verr.Fields {
		if f.Field == field {
			assert.Equal(t, msg, f.Constraints[constraint])
			return
		}
	}
	t.Fatalf("no error for field %q in %v", field, verr.Fields)
}

// === Users ===

func TestUserService_SignUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.signUp(t, "benben", ptr("ben@ben.com"))
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "benbenben", user.Password)
	assert.False(t, user.HasValidated)

	profile, err := f.users.Profiles().GetByID(ctx, user.ProfileID)
	require.NoError(t, err)
	assert.True(t, profile.CanCreateCommunities)

	general, err := f.users.GeneralPreferences().GetByID(ctx, user.GeneralPreferencesID)
	require.NoError(t, err)
	assert.Equal(t, "Hot", general.CommunityContentSort)

	_, err = f.users.NotificationPreferences().GetByID(ctx, user.NotificationPreferencesID)
	require.NoError(t, err)
	_, err = f.users.EmailNotificationPreferences().GetByID(ctx, user.EmailNotificationPreferencesID)
	require.NoError(t, err)
}

func TestUserService_SignUp_Taken(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "benben", ptr("ben@ben.com"))

	_, err := f.users.SignUp(context.Background(), domain.SignUpInput{
		Username: "benben",
		Email:    ptr("ben@ben.com"),
		Password: "benbenben",
	})
	requireField(t, err, "username", apperror.IsUsernameUnique, "That username is already taken")
	requireField(t, err, "email", apperror.IsEmailUnique, "That email is already taken")
}

func TestUserService_SignUp_FormatSkipsUniqueness(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.SignUp(context.Background(), domain.SignUpInput{
		Username: "be",
		Email:    ptr("nope"),
		Password: "short",
	})
	verr, ok := apperror.AsValidation(err)
	require.True(t, ok)
	require.Len(t, verr.Fields, 3)
	for _, fe := range verr.Fields {
		assert.Len(t, fe.Constraints, 1, fe.Field)
	}
	requireField(t, err, "password", apperror.MinLength, "Password must be at least 8 characters long")
}

func TestUserService_LogIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "benben", nil)

	user, err := f.users.LogIn(ctx, domain.LogInInput{Username: "benben", Password: "benbenben"})
	require.NoError(t, err)
	assert.Equal(t, "benben", user.Username)

	_, wrongPassword := f.users.LogIn(ctx, domain.LogInInput{Username: "benben", Password: "wrongpassword"})
	_, unknownUser := f.users.LogIn(ctx, domain.LogInInput{Username: "nobody", Password: "benbenben"})
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownUser)

	_, err = f.users.LogIn(ctx, domain.LogInInput{Username: "b", Password: "benbenben"})
	requireField(t, err, "username", apperror.MinLength, "Username must be between 3 and 20 characters")
}

func TestUserService_CheckUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unique, err := f.users.CheckUsername(ctx, "ben")
	require.NoError(t, err)
	assert.True(t, unique)

	f.signUp(t, "ben", nil)
	unique, err = f.users.CheckUsername(ctx, "ben")
	require.NoError(t, err)
	assert.False(t, unique)

	_, err = f.users.CheckUsername(ctx, "be")
	requireField(t, err, "username", apperror.MinLength, "Username must be between 3 and 20 characters")
}

func TestUserService_CheckEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "benben", ptr("ben@ben.com"))

	unique, err := f.users.CheckEmail(ctx, "ben@ben.com")
	require.NoError(t, err)
	assert.False(t, unique)

	unique, err = f.users.CheckEmail(ctx, "other@ben.com")
	require.NoError(t, err)
	assert.True(t, unique)

	_, err = f.users.CheckEmail(ctx, "nope")
	requireField(t, err, "email", apperror.IsEmail, "email must be an email")
}

// === Communities ===

func TestCommunityService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, "benben", nil)

	community, err := f.communities.Create(ctx, "benben", domain.CreateCommunityInput{
		Name: "golang",
		Type: domain.CommunityPublic,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, community.CreatorID)

	var cached domain.Community
	ok, err := f.cache.Get(ctx, cache.CommunitiesKey("benben"), &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, community.ID, cached.ID)

	_, err = f.communities.Create(ctx, "benben", domain.CreateCommunityInput{Name: "golang", Type: domain.CommunityPublic})
	requireField(t, err, "name", apperror.IsCommunityNameUnique, "That community name is already taken")

	_, err = f.communities.Create(ctx, "benben", domain.CreateCommunityInput{Name: "rust", Type: "restricted"})
	requireField(t, err, "type", apperror.Matches, "Type must be 1 of 3 values(private, protected, public)")
}

func TestCommunityService_Create_UnknownCreator(t *testing.T) {
	f := newFixture(t)

	_, err := f.communities.Create(context.Background(), "ghost", domain.CreateCommunityInput{
		Name: "golang",
		Type: domain.CommunityPublic,
	})
	assert.True(t, IsNotFound(err))
}

func TestCommunityService_CheckName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "benben", nil)

	unique, err := f.communities.CheckName(ctx, "golang")
	require.NoError(t, err)
	assert.True(t, unique)

	_, err = f.communities.Create(ctx, "benben", domain.CreateCommunityInput{Name: "golang", Type: domain.CommunityPrivate})
	require.NoError(t, err)

	unique, err = f.communities.CheckName(ctx, "golang")
	require.NoError(t, err)
	assert.False(t, unique)

	_, err = f.communities.CheckName(ctx, "go")
	requireField(t, err, "name", apperror.MinLength, "Name must be between 3 and 21 characters")
}

// === Posts ===

func TestPostService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "benben", nil)
	community, err := f.communities.Create(ctx, "benben", domain.CreateCommunityInput{Name: "golang", Type: domain.CommunityPublic})
	require.NoError(t, err)

	post, err := f.posts.Create(ctx, "benben", "golang", domain.CreatePostInput{
		Title:       "Generics are here",
		ContentKind: domain.ContentSelf,
		SubmitType:  domain.SubmitCommunity,
		SendReplies: false,
	})
	require.NoError(t, err)
	assert.Equal(t, community.ID, post.CommunityID)
	assert.False(t, post.SendReplies)

	got, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Generics are here", got.Title)

	ok, err := f.cache.Get(ctx, cache.PostsKey("benben"), &domain.Post{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostService_Create_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUp(t, "benben", nil)

	in := domain.CreatePostInput{Title: "t", ContentKind: domain.ContentSelf, SubmitType: domain.SubmitCommunity}
	_, err := f.posts.Create(ctx, "benben", "missing", in)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = f.posts.Create(ctx, "benben", "missing", domain.CreatePostInput{Title: ""})
	_, isValidation := apperror.AsValidation(err)
	assert.True(t, isValidation)
}

// === Verification ===

func TestVerificationService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signUp(t, "benben", ptr("ben@ben.com"))

	require.NoError(t, f.verification.Send(ctx, user))
	require.Equal(t, 1, f.mailer.calls)
	assert.Equal(t, "ben@ben.com", f.mailer.email)

	ok, err := f.verification.Verify(ctx, f.mailer.token)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := f.store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.HasValidated)
	profile, err := f.store.GetProfileByID(ctx, user.ProfileID)
	require.NoError(t, err)
	assert.True(t, profile.HasVerifiedEmail)

	// Токен одноразовый
	ok, err = f.verification.Verify(ctx, f.mailer.token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerificationService_NoEmail(t *testing.T) {
	f := newFixture(t)
	user := f.signUp(t, "benben", nil)

	require.NoError(t, f.verification.Send(context.Background(), user))
	assert.Zero(t, f.mailer.calls)
}

func TestVerificationService_MailerError(t *testing.T) {
	f := newFixture(t)
	f.mailer.failed = errors.New("smtp down")
	user := f.signUp(t, "benben", ptr("ben@ben.com"))

	assert.Error(t, f.verification.Send(context.Background(), user))
}

// === Ошибки хранилища ===

var errStoreDown = errors.New("connection refused")

// brokenStore отвечает ошибкой на поиск пользователей и сообществ.
type brokenStore struct {
	*inmemory.Store
}

func (s brokenStore) GetUserByUsername(context.Context, string) (*domain.User, error) {
	return nil, errStoreDown
}

func (s brokenStore) GetUserByEmail(context.Context, string) (*domain.User, error) {
	return nil, errStoreDown
}

func (s brokenStore) GetCommunityByName(context.Context, string) (*domain.Community, error) {
	return nil, errStoreDown
}

// blindStore не видит существующих пользователей при поиске, но вставка
// по-прежнему проверяет уникальность. Так выглядит гонка двух регистраций.
type blindStore struct {
	*inmemory.Store
}

func (s blindStore) GetUserByUsername(context.Context, string) (*domain.User, error) {
	return nil, storage.ErrNotFound
}

func TestUniquenessChecks_FailClosed(t *testing.T) {
	f := newFixtureWith(t, brokenStore{inmemory.New()})
	ctx := context.Background()

	unique, err := f.users.CheckUsername(ctx, "benben")
	require.NoError(t, err)
	assert.False(t, unique)

	unique, err = f.users.CheckEmail(ctx, "ben@ben.com")
	require.NoError(t, err)
	assert.False(t, unique)

	unique, err = f.communities.CheckName(ctx, "golang")
	require.NoError(t, err)
	assert.False(t, unique)

	// Формат проверяется до хранилища
	_, err = f.users.CheckUsername(ctx, "be")
	requireField(t, err, "username", apperror.MinLength, "Username must be between 3 and 20 characters")
}

func TestUserService_SignUp_StoreError(t *testing.T) {
	f := newFixtureWith(t, brokenStore{inmemory.New()})

	_, err := f.users.SignUp(context.Background(), domain.SignUpInput{Username: "benben", Password: "benbenben"})
	require.ErrorIs(t, err, errStoreDown)
	_, isValidation := apperror.AsValidation(err)
	assert.False(t, isValidation)
}

func TestUserService_SignUp_DuplicateInsert(t *testing.T) {
	f := newFixtureWith(t, blindStore{inmemory.New()})
	ctx := context.Background()

	in := domain.SignUpInput{Username: "benben", Password: "benbenben"}
	_, err := f.users.SignUp(ctx, in)
	require.NoError(t, err)

	_, err = f.users.SignUp(ctx, in)
	require.ErrorIs(t, err, storage.ErrDuplicate)
	_, isValidation := apperror.AsValidation(err)
	assert.False(t, isValidation)
}

func TestUserService_SignUp_PasswordTooLong(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.SignUp(ctx, domain.SignUpInput{Username: "benben", Password: strings.Repeat("a", 80)})
	requireField(t, err, "password", apperror.MaxLength, "Password must be at most 72 bytes long")

	// 40 символов, но 80 байт
	_, err = f.users.SignUp(ctx, domain.SignUpInput{Username: "benben", Password: strings.Repeat("я", 40)})
	requireField(t, err, "password", apperror.MaxLength, "Password must be at most 72 bytes long")

	_, err = f.users.SignUp(ctx, domain.SignUpInput{Username: "benben", Password: strings.Repeat("a", 72)})
	require.NoError(t, err)
}

func TestUserService_LogIn_UnknownUserComparesHash(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.LogIn(context.Background(), domain.LogInInput{Username: "nobody", Password: "benbenben"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotEmpty(t, f.users.dummyHash)
}
