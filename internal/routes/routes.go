package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/carinotj19/ShelterSync/internal/auth"
	"github.com/carinotj19/ShelterSync/internal/handlers"
	"github.com/carinotj19/ShelterSync/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	tokenManager *auth.TokenManager,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	petHandler *handlers.PetHandler,
	adoptionHandler *handlers.AdoptionHandler,
	adminHandler *handlers.AdminHandler,
) {
	authMW := auth.Middleware(tokenManager)
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Auth endpoints are public but rate limited per IP.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))
		authHandler.RegisterRoutes(r)
	})

	// Pet catalog: reads are public, writes are registered behind auth
	// inside the handler.
	petHandler.RegisterRoutes(router, authMW)

	// Adoption workflow and admin surface are fully authenticated.
	adoptionHandler.RegisterRoutes(router, authMW)
	adminHandler.RegisterRoutes(router, authMW)

	// Profile routes.
	router.Group(func(r chi.Router) {
		r.Use(authMW)
		userHandler.RegisterRoutes(r)
	})
}
