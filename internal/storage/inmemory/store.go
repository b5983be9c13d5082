package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
// Уникальные индексы эмулируются картами username/email/name -> id.
type Store struct {
	mu sync.RWMutex

	profiles      map[string]*domain.Profile
	generalPrefs  map[string]*domain.GeneralPreferences
	notifyPrefs   map[string]*domain.NotificationPreferences
	emailPrefs    map[string]*domain.EmailNotificationPreferences
	users         map[string]*domain.User
	usersByName   map[string]string
	usersByEmail  map[string]string
	communities   map[string]*domain.Community
	communityName map[string]string
	posts         map[string]*domain.Post
}

var _ storage.Storage = (*Store)(nil)

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		profiles:      make(map[string]*domain.Profile),
		generalPrefs:  make(map[string]*domain.GeneralPreferences),
		notifyPrefs:   make(map[string]*domain.NotificationPreferences),
		emailPrefs:    make(map[string]*domain.EmailNotificationPreferences),
		users:         make(map[string]*domain.User),
		usersByName:   make(map[string]string),
		usersByEmail:  make(map[string]string),
		communities:   make(map[string]*domain.Community),
		communityName: make(map[string]string),
		posts:         make(map[string]*domain.Post),
	}
}

// === Profile & Preferences ===

func (s *Store) CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	s.profiles[p.ID] = p
	return p, nil
}

func (s *Store) GetProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) CreateGeneralPreferences(ctx context.Context, p *domain.GeneralPreferences) (*domain.GeneralPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	s.generalPrefs[p.ID] = p
	return p, nil
}

func (s *Store) GetGeneralPreferencesByID(ctx context.Context, id string) (*domain.GeneralPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.generalPrefs[id]
	if !ok {
		return nil, fmt.Errorf("general preferences %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) CreateNotificationPreferences(ctx context.Context, p *domain.NotificationPreferences) (*domain.NotificationPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	s.notifyPrefs[p.ID] = p
	return p, nil
}

func (s *Store) GetNotificationPreferencesByID(ctx context.Context, id string) (*domain.NotificationPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.notifyPrefs[id]
	if !ok {
		return nil, fmt.Errorf("notification preferences %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) CreateEmailNotificationPreferences(ctx context.Context, p *domain.EmailNotificationPreferences) (*domain.EmailNotificationPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	s.emailPrefs[p.ID] = p
	return p, nil
}

func (s *Store) GetEmailNotificationPreferencesByID(ctx context.Context, id string) (*domain.EmailNotificationPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.emailPrefs[id]
	if !ok {
		return nil, fmt.Errorf("email notification preferences %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usersByName[user.Username]; taken {
		return nil, fmt.Errorf("username %q: %w", user.Username, storage.ErrDuplicate)
	}
	if user.Email != nil {
		if _, taken := s.usersByEmail[*user.Email]; taken {
			return nil, fmt.Errorf("email %q: %w", *user.Email, storage.ErrDuplicate)
		}
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user
	s.usersByName[user.Username] = user.ID
	if user.Email != nil {
		s.usersByEmail[*user.Email] = user.ID
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return s.users[id], nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, fmt.Errorf("user with email %q: %w", email, storage.ErrNotFound)
	}
	return s.users[id], nil
}

func (s *Store) MarkEmailVerified(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	u.HasValidated = true
	u.UpdatedAt = time.Now().UTC()
	if p, ok := s.profiles[u.ProfileID]; ok {
		p.HasVerifiedEmail = true
	}
	return nil
}

// === Community Methods ===

func (s *Store) CreateCommunity(ctx context.Context, community *domain.Community) (*domain.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.communityName[community.Name]; taken {
		return nil, fmt.Errorf("community %q: %w", community.Name, storage.ErrDuplicate)
	}
	if _, ok := s.users[community.CreatorID]; !ok {
		return nil, fmt.Errorf("creator %s: %w", community.CreatorID, storage.ErrNotFound)
	}

	now := time.Now().UTC()
	community.ID = uuid.NewString()
	community.CreatedAt, community.UpdatedAt = now, now
	if community.BannerURL == "" {
		community.BannerURL = "#33a8ff"
	}
	if community.BannerHeight == "" {
		community.BannerHeight = "small"
	}
	if community.ThemeColor == "" {
		community.ThemeColor = "#0079d3"
	}
	s.communities[community.ID] = community
	s.communityName[community.Name] = community.ID
	return community, nil
}

func (s *Store) GetCommunityByID(ctx context.Context, id string) (*domain.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.communities[id]
	if !ok {
		return nil, fmt.Errorf("community %s: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) GetCommunityByName(ctx context.Context, name string) (*domain.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.communityName[name]
	if !ok {
		return nil, fmt.Errorf("community %q: %w", name, storage.ErrNotFound)
	}
	return s.communities[id], nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.communities[post.CommunityID]; !ok {
		return nil, fmt.Errorf("community %s: %w", post.CommunityID, storage.ErrNotFound)
	}
	if _, ok := s.users[post.CreatorID]; !ok {
		return nil, fmt.Errorf("creator %s: %w", post.CreatorID, storage.ErrNotFound)
	}

	now := time.Now().UTC()
	post.ID = uuid.NewString()
	post.CreatedAt, post.UpdatedAt = now, now
	s.posts[post.ID] = post
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

// === Dataloader Methods ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (s *Store) GetCommunitiesByIDs(ctx context.Context, ids []string) (map[string]*domain.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.Community, len(ids))
	for _, id := range ids {
		if c, ok := s.communities[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}
