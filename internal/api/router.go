package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/arenz/postboard/internal/api/handlers"
	"github.com/arenz/postboard/internal/auth"
	"github.com/arenz/postboard/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	allowedOrigins []string,
	tokens *auth.TokenService,
	userService services.UserServiceProvider,
	postService services.PostServiceProvider,
	voteService services.VoteServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	authHandler := handlers.NewAuthHandler(userService, tokens)
	postHandler := handlers.NewPostHandler(postService)
	voteHandler := handlers.NewVoteHandler(voteService)

	requireAuth := auth.Middleware(tokens, userService)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Hello World"}`))
	})

	r.Post("/users", userHandler.Register)
	r.Get("/users/{id}", userHandler.Get)

	r.Post("/login", authHandler.Login)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.List)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", postHandler.Create)
			r.Get("/{id}", postHandler.Get)
			r.Put("/{id}", postHandler.Update)
			r.Delete("/{id}", postHandler.Delete)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/votes", voteHandler.Cast)
	})

	return r
}
