package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UkralStul/postit/graph"
	"github.com/UkralStul/postit/internal/domain"
)

// fillWithMockData заполняет in-memory хранилище демо-данными:
// пользователь demo/demodemo, сообщество golang и один пост в нем.
func fillWithMockData(ctx context.Context, r *graph.Resolver, log *slog.Logger) error {
	email := "demo@postit.com"
	user, err := r.Users.SignUp(ctx, domain.SignUpInput{
		Email:    &email,
		Username: "demo",
		Password: "demodemo",
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create user: %w", err)
	}

	description := "News and discussion about the Go programming language"
	community, err := r.Communities.Create(ctx, user.Username, domain.CreateCommunityInput{
		Name:        "golang",
		Type:        domain.CommunityPublic,
		Description: &description,
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create community: %w", err)
	}

	post, err := r.Posts.Create(ctx, user.Username, community.Name, domain.CreatePostInput{
		Title:       "Welcome to r/golang",
		ContentKind: domain.ContentSelf,
		SubmitType:  domain.SubmitCommunity,
		SendReplies: true,
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create post: %w", err)
	}

	log.Info("mock data filled", slog.String("user", user.Username), slog.String("community", community.Name), slog.String("post", post.ID))
	return nil
}
