package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UkralStul/postit/internal/cache"
	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/storage"
	"github.com/UkralStul/postit/internal/validation"
)

type PostService struct {
	store    storage.Storage
	cache    cache.Cache
	validate *validation.Validator
	log      *slog.Logger
}

func NewPostService(store storage.Storage, c cache.Cache, validate *validation.Validator, log *slog.Logger) *PostService {
	return &PostService{store: store, cache: c, validate: validate, log: log}
}

// Create проверяет ввод и публикует пост в сообществе communityName от
// имени creator. Неизвестное сообщество или автор - storage.ErrNotFound.
func (s *PostService) Create(ctx context.Context, creator, communityName string, in domain.CreatePostInput) (*domain.Post, error) {
	verr, err := s.validate.Struct(in)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	community, err := s.store.GetCommunityByName(ctx, communityName)
	if err != nil {
		return nil, fmt.Errorf("community %q: %w", communityName, err)
	}
	user, err := s.store.GetUserByUsername(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("post creator %q: %w", creator, err)
	}

	post, err := s.store.CreatePost(ctx, &domain.Post{
		Title:             in.Title,
		ContentKind:       in.ContentKind,
		SubmitType:        in.SubmitType,
		IsNsfw:            in.IsNsfw,
		IsSpoiler:         in.IsSpoiler,
		IsOriginalContent: in.IsOriginalContent,
		SendReplies:       in.SendReplies,
		LinkURL:           in.LinkURL,
		RichTextJSON:      in.RichTextJSON,
		CommunityID:       community.ID,
		CreatorID:         user.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	if err := s.cache.Set(ctx, cache.PostsKey(creator), cache.WarmTTL, post); err != nil {
		s.log.WarnContext(ctx, "cache post", slog.String("post", post.ID), slog.Any("error", err))
	}
	return post, nil
}

func (s *PostService) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	return s.store.GetPostByID(ctx, id)
}
