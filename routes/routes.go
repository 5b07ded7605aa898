package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"

	"github.com/afras1234/futsal-booking-system/handlers"
	"github.com/afras1234/futsal-booking-system/middleware"
)

// SetupRoutes навешивает все маршруты приложения на переданный роутер.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	userHandler *handlers.UserHandler,
	courtHandler *handlers.CourtHandler,
	bookingHandler *handlers.BookingHandler,
	tournamentHandler *handlers.TournamentHandler,
	chatHandler *handlers.ChatHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/user", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/login", authHandler.Login)
		r.Post("/google", authHandler.GoogleLogin)
		r.Get("/{id}", userHandler.Get)
		r.Get("/bookings/{id}", userHandler.Bookings)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(middleware.RoleUser, middleware.RoleAdmin))

			r.Patch("/profile", userHandler.UpdateProfile)
			r.Post("/photo", userHandler.UploadPhoto)
			r.Delete("/{id}", userHandler.Delete)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Post("/signup", adminHandler.SignUp)
		r.Post("/login", adminHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(middleware.RoleAdmin))

			r.Get("/profile", adminHandler.Profile)
		})
	})

	router.Route("/futsalCourt", func(r chi.Router) {
		// Публичные маршруты для просмотра площадок
		r.Get("/", courtHandler.List)
		r.Get("/{id}", courtHandler.Get)

		// Защищенные маршруты только для владельцев-администраторов
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(middleware.RoleAdmin))

			r.Post("/", courtHandler.Create)
			r.Patch("/{id}", courtHandler.Update)
			r.Delete("/{id}", courtHandler.Delete)
			r.Post("/{id}/photo", courtHandler.UploadPhoto)
		})
	})

	router.Route("/booking", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(middleware.RoleUser, middleware.RoleAdmin))

		r.Post("/", bookingHandler.Create)
		r.Get("/{id}", bookingHandler.Get)
		r.Delete("/{id}", bookingHandler.Delete)
	})

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты для просмотра турниров
		r.Get("/", tournamentHandler.List)
		r.Get("/{id}", tournamentHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(middleware.RoleUser, middleware.RoleAdmin))

			r.Post("/", tournamentHandler.Create)
			r.Put("/{id}", tournamentHandler.Update)
			r.Delete("/{id}", tournamentHandler.Delete)
			r.Post("/{id}/register", tournamentHandler.Register)
		})
	})

	router.Route("/chat", func(r chi.Router) {
		r.Get("/{userID}/{receiverID}", chatHandler.History)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(middleware.RoleUser, middleware.RoleAdmin))

			r.Post("/read", chatHandler.MarkRead)
		})
	})

	// Клиент передаёт user_id в query, апгрейд без JWT (исторический контракт фронтенда).
	router.Get("/ws/chat", chatHandler.ServeWS)
}
