// Package server собирает HTTP-роутер: chi, CORS, GraphQL-обработчик gqlgen
// с транспортами POST и websocket, playground и health-check.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/UkralStul/postit/graph"
	"github.com/UkralStul/postit/graph/generated"
	"github.com/UkralStul/postit/internal/apperror"
	"github.com/UkralStul/postit/internal/auth"
	"github.com/UkralStul/postit/internal/dataloader"
	"github.com/UkralStul/postit/internal/storage"
)

const GraphQLPath = "/graphql"

type Options struct {
	Resolver   *graph.Resolver
	Storage    storage.Storage
	ClientURL  string
	Playground bool
	Log        *slog.Logger
}

// NewRouter возвращает корневой обработчик приложения.
func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.ClientURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	srv := NewGraphQLHandler(opts, log)

	router.Handle(GraphQLPath, auth.Exchange(dataloader.Middleware(opts.Storage, srv)))
	if opts.Playground {
		router.Handle("/", playground.Handler("Postit GraphQL playground", GraphQLPath))
	}
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return router
}

// NewGraphQLHandler создает gqlgen-сервер поверх схемы приложения.
// Интроспекция включена вместе с playground.
func NewGraphQLHandler(opts Options, log *slog.Logger) *handler.Server {
	schema := generated.NewExecutableSchema(generated.Config{Resolvers: opts.Resolver})
	srv := handler.New(schema)
	clientURL := opts.ClientURL

	srv.AddTransport(&transport.Websocket{
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(req *http.Request) bool {
				origin := req.Header.Get("Origin")
				return origin == "" || origin == clientURL
			},
		},
		KeepAlivePingInterval: 10 * time.Second,
	})
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.POST{})

	if opts.Playground {
		srv.Use(extension.Introspection{})
	}

	srv.SetErrorPresenter(presentError)
	srv.SetRecoverFunc(func(ctx context.Context, err interface{}) error {
		log.ErrorContext(ctx, "resolver panic", slog.Any("panic", err))
		return errors.New("internal system error")
	})
	return srv
}

// presentError добавляет к ошибке валидации аргументов список полей в
// extensions.validationErrors.
func presentError(ctx context.Context, err error) *gqlerror.Error {
	gerr := graphql.DefaultErrorPresenter(ctx, err)
	if verr, ok := apperror.AsValidation(err); ok {
		if gerr.Extensions == nil {
			gerr.Extensions = map[string]interface{}{}
		}
		gerr.Extensions["validationErrors"] = verr.Fields
	}
	return gerr
}
