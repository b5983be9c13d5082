package graph

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/UkralStul/postit/graph/generated"
	"github.com/UkralStul/postit/graph/model"
	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/auth"
	"github.com/UkralStul/postit/internal/dataloader"
	"github.com/UkralStul/postit/internal/domain"
	"github.com/UkralStul/postit/internal/service"
)

// === Community Resolvers ===

func (r *communityResolver) Creator(ctx context.Context, obj *domain.Community) (*domain.User, error) {
	return dataloader.LoadUser(ctx, obj.CreatorID)
}

// === FieldError Resolvers ===

func (r *fieldErrorResolver) Constraints(ctx context.Context, obj *apperror.FieldError) (*model.FieldErrorConstraints, error) {
	return model.NewFieldErrorConstraints(obj.Constraints), nil
}

// === Mutation Resolvers ===

func (r *mutationResolver) SignUp(ctx context.Context, createUserData domain.SignUpInput) (*model.SignUpResponse, error) {
	user, err := r.Users.SignUp(ctx, createUserData)
	if verr, ok := apperror.AsValidation(err); ok {
		auth.SetStatus(ctx, http.StatusBadRequest)
		return &model.SignUpResponse{Errors: verr.Fields}, nil
	}
	if err != nil {
		r.Log.ErrorContext(ctx, "signUp mutation error", slog.Any("error", err))
		auth.SetStatus(ctx, http.StatusInternalServerError)
		return &model.SignUpResponse{Created: model.Bool(false)}, nil
	}

	auth.SetStatus(ctx, http.StatusCreated)

	var email string
	if user.Email != nil {
		email = *user.Email
	}
	// Аккаунт уже создан: без cookie пользователь просто войдет через logIn
	if err := r.Sessions.Start(ctx, user.Username, email); err != nil {
		r.Log.ErrorContext(ctx, "signUp session error", slog.String("username", user.Username), slog.Any("error", err))
	}

	// Письмо не критично для регистрации
	if err := r.Verification.Send(ctx, user); err != nil {
		r.Log.WarnContext(ctx, "verification email not sent", slog.String("username", user.Username), slog.Any("error", err))
	}

	return &model.SignUpResponse{Created: model.Bool(true)}, nil
}

func (r *mutationResolver) LogIn(ctx context.Context, logInData domain.LogInInput) (*model.LogInResponse, error) {
	user, err := r.Users.LogIn(ctx, logInData)
	if verr, ok := apperror.AsValidation(err); ok {
		auth.SetStatus(ctx, http.StatusBadRequest)
		return &model.LogInResponse{Errors: verr.Fields}, nil
	}
	if errors.Is(err, service.ErrInvalidCredentials) {
		return &model.LogInResponse{Success: model.Bool(false)}, nil
	}
	if err != nil {
		r.Log.ErrorContext(ctx, "logIn mutation error", slog.Any("error", err))
		auth.SetStatus(ctx, http.StatusInternalServerError)
		return &model.LogInResponse{Success: model.Bool(false)}, nil
	}

	var email string
	if user.Email != nil {
		email = *user.Email
	}
	if err := r.Sessions.Start(ctx, user.Username, email); err != nil {
		r.Log.ErrorContext(ctx, "logIn session error", slog.Any("error", err))
		auth.SetStatus(ctx, http.StatusInternalServerError)
		return &model.LogInResponse{Success: model.Bool(false)}, nil
	}
	return &model.LogInResponse{Success: model.Bool(true)}, nil
}

func (r *mutationResolver) LogOut(ctx context.Context) (bool, error) {
	username, err := r.Sessions.Require(ctx)
	if err != nil {
		return false, err
	}
	r.Sessions.End(ctx, username)
	return true, nil
}

func (r *mutationResolver) VerifyEmail(ctx context.Context, token string) (*model.VerifyEmailResponse, error) {
	verified, err := r.Verification.Verify(ctx, token)
	if err != nil {
		r.Log.ErrorContext(ctx, "verifyEmail mutation error", slog.Any("error", err))
		if !verified {
			auth.SetStatus(ctx, http.StatusInternalServerError)
			return &model.VerifyEmailResponse{Error: model.String(errInternal.Error())}, nil
		}
	}
	if !verified {
		auth.SetStatus(ctx, http.StatusBadRequest)
		return &model.VerifyEmailResponse{Error: model.String(badTokenMessage)}, nil
	}
	return &model.VerifyEmailResponse{Verified: true}, nil
}

func (r *mutationResolver) CreateCommunity(ctx context.Context, createCommunityData domain.CreateCommunityInput) (*model.CreateCommunityResponse, error) {
	username, err := r.Sessions.Require(ctx)
	if err != nil {
		return nil, err
	}

	_, err = r.Communities.Create(ctx, username, createCommunityData)
	if verr, ok := apperror.AsValidation(err); ok {
		auth.SetStatus(ctx, http.StatusBadRequest)
		return &model.CreateCommunityResponse{Errors: verr.Fields}, nil
	}
	if service.IsNotFound(err) {
		auth.SetStatus(ctx, http.StatusNotFound)
		return &model.CreateCommunityResponse{Created: model.Bool(false)}, nil
	}
	if err != nil {
		r.Log.ErrorContext(ctx, "createCommunity mutation error", slog.Any("error", err))
		auth.SetStatus(ctx, http.StatusInternalServerError)
		return &model.CreateCommunityResponse{Created: model.Bool(false)}, nil
	}

	auth.SetStatus(ctx, http.StatusCreated)
	return &model.CreateCommunityResponse{Created: model.Bool(true)}, nil
}

func (r *mutationResolver) CreatePost(ctx context.Context, communityName string, createPostData domain.CreatePostInput) (*model.CreatePostResponse, error) {
	username, err := r.Sessions.Require(ctx)
	if err != nil {
		return nil, err
	}

	post, err := r.Posts.Create(ctx, username, communityName, createPostData)
	if verr, ok := apperror.AsValidation(err); ok {
		auth.SetStatus(ctx, http.StatusBadRequest)
		return &model.CreatePostResponse{Errors: verr.Fields}, nil
	}
	if service.IsNotFound(err) {
		auth.SetStatus(ctx, http.StatusNotFound)
		return &model.CreatePostResponse{Created: model.Bool(false)}, nil
	}
	if err != nil {
		r.Log.ErrorContext(ctx, "createPost mutation error", slog.Any("error", err))
		auth.SetStatus(ctx, http.StatusInternalServerError)
		return &model.CreatePostResponse{Created: model.Bool(false)}, nil
	}

	// Асинхронно уведомляем подписчиков
	r.Observer.Publish(post)

	auth.SetStatus(ctx, http.StatusCreated)
	return &model.CreatePostResponse{Created: model.Bool(true), Post: post}, nil
}

// === Post Resolvers ===

func (r *postResolver) Community(ctx context.Context, obj *domain.Post) (*domain.Community, error) {
	return dataloader.LoadCommunity(ctx, obj.CommunityID)
}

func (r *postResolver) Creator(ctx context.Context, obj *domain.Post) (*domain.User, error) {
	return dataloader.LoadUser(ctx, obj.CreatorID)
}

// === Query Resolvers ===

func (r *queryResolver) IsEmailUnique(ctx context.Context, email string) (bool, error) {
	unique, err := r.Users.CheckEmail(ctx, email)
	return r.checked(ctx, unique, err)
}

func (r *queryResolver) IsUsernameUnique(ctx context.Context, username string) (bool, error) {
	unique, err := r.Users.CheckUsername(ctx, username)
	return r.checked(ctx, unique, err)
}

func (r *queryResolver) IsCommunityNameUnique(ctx context.Context, name string) (bool, error) {
	if _, err := r.Sessions.Require(ctx); err != nil {
		return false, err
	}
	unique, err := r.Communities.CheckName(ctx, name)
	return r.checked(ctx, unique, err)
}

func (r *queryResolver) GetPost(ctx context.Context, id string) (*model.GetPostResponse, error) {
	if uuid.Validate(id) != nil {
		return &model.GetPostResponse{Error: model.String(noPostMessage)}, nil
	}

	post, err := r.Posts.GetByID(ctx, id)
	if service.IsNotFound(err) {
		return &model.GetPostResponse{Error: model.String(noPostMessage)}, nil
	}
	if err != nil {
		r.Log.ErrorContext(ctx, "getPost query error", slog.Any("error", err))
		return &model.GetPostResponse{Error: model.String(errInternal.Error())}, nil
	}
	return &model.GetPostResponse{Post: post}, nil
}

func (r *queryResolver) GetCommunity(ctx context.Context, name string) (*model.GetCommunityResponse, error) {
	community, err := r.Communities.GetByName(ctx, name)
	if service.IsNotFound(err) {
		return &model.GetCommunityResponse{Error: model.String(noCommunityMessage)}, nil
	}
	if err != nil {
		r.Log.ErrorContext(ctx, "getCommunity query error", slog.Any("error", err))
		return &model.GetCommunityResponse{Error: model.String(errInternal.Error())}, nil
	}
	return &model.GetCommunityResponse{Community: community}, nil
}

func (r *queryResolver) Me(ctx context.Context) (*domain.User, error) {
	username, err := r.Sessions.Require(ctx)
	if err != nil {
		return nil, err
	}
	user, err := r.Users.GetByUsername(ctx, username)
	if service.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		r.Log.ErrorContext(ctx, "me query error", slog.Any("error", err))
		return nil, errInternal
	}
	return user, nil
}

// === Subscription Resolvers ===

func (r *subscriptionResolver) PostCreated(ctx context.Context, communityName string) (<-chan *domain.Post, error) {
	// Проверяем, существует ли сообщество, прежде чем подписываться
	community, err := r.Communities.GetByName(ctx, communityName)
	if err != nil {
		if service.IsNotFound(err) {
			return nil, errors.New(noCommunityMessage)
		}
		r.Log.ErrorContext(ctx, "postCreated subscription error", slog.Any("error", err))
		return nil, errInternal
	}

	subID, ch := r.Observer.Subscribe(community.ID)

	// Горутина для очистки при отключении клиента
	go func() {
		<-ctx.Done()
		r.Observer.Unsubscribe(community.ID, subID)
	}()

	return ch, nil
}

// === User Resolvers ===

func (r *userResolver) Profile(ctx context.Context, obj *domain.User) (*domain.Profile, error) {
	return r.Users.Profiles().GetByID(ctx, obj.ProfileID)
}

// Настройки отдаются только владельцу сессии, остальным - null.
func (r *userResolver) GeneralPreferences(ctx context.Context, obj *domain.User) (*domain.GeneralPreferences, error) {
	if !r.isSelf(ctx, obj) {
		return nil, nil
	}
	return r.Users.GeneralPreferences().GetByID(ctx, obj.GeneralPreferencesID)
}

func (r *userResolver) NotificationPreferences(ctx context.Context, obj *domain.User) (*domain.NotificationPreferences, error) {
	if !r.isSelf(ctx, obj) {
		return nil, nil
	}
	return r.Users.NotificationPreferences().GetByID(ctx, obj.NotificationPreferencesID)
}

func (r *userResolver) EmailNotificationPreferences(ctx context.Context, obj *domain.User) (*domain.EmailNotificationPreferences, error) {
	if !r.isSelf(ctx, obj) {
		return nil, nil
	}
	return r.Users.EmailNotificationPreferences().GetByID(ctx, obj.EmailNotificationPreferencesID)
}

// === Boilerplate: Связывание резолверов с сгенерированным интерфейсом ===

// Community returns generated.CommunityResolver implementation.
func (r *Resolver) Community() generated.CommunityResolver { return &communityResolver{r} }

// FieldError returns generated.FieldErrorResolver implementation.
func (r *Resolver) FieldError() generated.FieldErrorResolver { return &fieldErrorResolver{r} }

// Mutation returns generated.MutationResolver implementation.
func (r *Resolver) Mutation() generated.MutationResolver { return &mutationResolver{r} }

// Post returns generated.PostResolver implementation.
func (r *Resolver) Post() generated.PostResolver { return &postResolver{r} }

// Query returns generated.QueryResolver implementation.
func (r *Resolver) Query() generated.QueryResolver { return &queryResolver{r} }

// Subscription returns generated.SubscriptionResolver implementation.
func (r *Resolver) Subscription() generated.SubscriptionResolver { return &subscriptionResolver{r} }

// User returns generated.UserResolver implementation.
func (r *Resolver) User() generated.UserResolver { return &userResolver{r} }

type communityResolver struct{ *Resolver }
type fieldErrorResolver struct{ *Resolver }
type mutationResolver struct{ *Resolver }
type postResolver struct{ *Resolver }
type queryResolver struct{ *Resolver }
type subscriptionResolver struct{ *Resolver }
type userResolver struct{ *Resolver }
