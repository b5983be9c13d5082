package inmemory

import (
	"context"
	"testing"

	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore создает хранилище и одного пользователя для тестов
func newTestStore(t *testing.T) (*Store, *domain.User) {
	store := New()
	ctx := context.Background()
	email := "ben@ben.com"
	user, err := store.CreateUser(ctx, &domain.User{
		Username: "benben",
		Email:    &email,
		Password: "$2a$04$hash",
	})
	require.NoError(t, err)
	return store, user
}

func TestStore_CreateAndGetUser(t *testing.T) {
	store, user := newTestStore(t)
	ctx := context.Background()

	byName, err := store.GetUserByUsername(ctx, "benben")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := store.GetUserByEmail(ctx, "ben@ben.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = store.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_CreateUser_Duplicate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, &domain.User{Username: "benben", Password: "x"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	email := "ben@ben.com"
	_, err = store.CreateUser(ctx, &domain.User{Username: "other", Email: &email, Password: "x"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	// Пользователь без email не конфликтует с другими пользователями без email
	_, err = store.CreateUser(ctx, &domain.User{Username: "noemail1", Password: "x"})
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, &domain.User{Username: "noemail2", Password: "x"})
	require.NoError(t, err)
}

func TestStore_MarkEmailVerified(t *testing.T) {
	store := New()
	ctx := context.Background()

	profile, err := store.CreateProfile(ctx, domain.NewProfile())
	require.NoError(t, err)
	user, err := store.CreateUser(ctx, &domain.User{Username: "verify", Password: "x", ProfileID: profile.ID})
	require.NoError(t, err)

	require.NoError(t, store.MarkEmailVerified(ctx, user.ID))
	assert.True(t, user.HasValidated)
	assert.True(t, profile.HasVerifiedEmail)

	assert.ErrorIs(t, store.MarkEmailVerified(ctx, "missing"), storage.ErrNotFound)
}

func TestStore_Communities(t *testing.T) {
	store, user := newTestStore(t)
	ctx := context.Background()

	community, err := store.CreateCommunity(ctx, &domain.Community{
		Name:      "golang",
		Type:      domain.CommunityPublic,
		CreatorID: user.ID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, community.ID)
	assert.Equal(t, "#0079d3", community.ThemeColor)

	got, err := store.GetCommunityByName(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, community.ID, got.ID)

	_, err = store.CreateCommunity(ctx, &domain.Community{Name: "golang", Type: domain.CommunityPrivate, CreatorID: user.ID})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	_, err = store.CreateCommunity(ctx, &domain.Community{Name: "orphan", Type: domain.CommunityPrivate, CreatorID: "ghost"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_Posts(t *testing.T) {
	store, user := newTestStore(t)
	ctx := context.Background()

	community, err := store.CreateCommunity(ctx, &domain.Community{Name: "golang", Type: domain.CommunityPublic, CreatorID: user.ID})
	require.NoError(t, err)

	post, err := store.CreatePost(ctx, &domain.Post{
		Title:       "Hello",
		ContentKind: domain.ContentSelf,
		SubmitType:  domain.SubmitCommunity,
		CommunityID: community.ID,
		CreatorID:   user.ID,
	})
	require.NoError(t, err)

	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)

	_, err = store.CreatePost(ctx, &domain.Post{Title: "x", CommunityID: "missing", CreatorID: user.ID})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_BatchLookups(t *testing.T) {
	store, user := newTestStore(t)
	ctx := context.Background()

	community, err := store.CreateCommunity(ctx, &domain.Community{Name: "golang", Type: domain.CommunityPublic, CreatorID: user.ID})
	require.NoError(t, err)

	users, err := store.GetUsersByIDs(ctx, []string{user.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "benben", users[user.ID].Username)

	communities, err := store.GetCommunitiesByIDs(ctx, []string{community.ID})
	require.NoError(t, err)
	assert.Equal(t, "golang", communities[community.ID].Name)
}
