package routes

import (
	"github.com/Dosada05/bracket-pool/handlers"
	"github.com/Dosada05/bracket-pool/middleware"
	"github.com/Dosada05/bracket-pool/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	participantHandler *handlers.ParticipantHandler,
	teamHandler *handlers.TeamHandler,
	gameHandler *handlers.GameHandler,
	standingsHandler *handlers.StandingsHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/login", authHandler.Login)

	// Публичные маршруты: регистрация участника и просмотр пула.
	router.Route("/participants", func(r chi.Router) {
		r.Post("/", participantHandler.Register)
		r.Get("/", participantHandler.List)
		r.Get("/{id}", participantHandler.Get)
	})

	router.Get("/standings", standingsHandler.Leaderboard)
	router.Get("/standings/ws", webSocketHandler.ServeWs)

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.List)

		// Защищенные маршруты только для администраторов
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate([]byte(jwtSecret)))
			r.Use(middleware.Authorize(string(models.RoleAdmin)))

			r.Post("/import", teamHandler.ImportRoster)
			r.Post("/{id}/logo", teamHandler.UploadLogo)
		})
	})

	router.Route("/games", func(r chi.Router) {
		r.Get("/", gameHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate([]byte(jwtSecret)))
			r.Use(middleware.Authorize(string(models.RoleAdmin)))

			r.Post("/", gameHandler.Create)
			r.Put("/{id}/result", gameHandler.EnterResult)
		})
	})
}
