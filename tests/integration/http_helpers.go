package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/carinotj19/ShelterSync/internal/auth"
	"github.com/carinotj19/ShelterSync/internal/config"
	"github.com/carinotj19/ShelterSync/internal/handlers"
	custommiddleware "github.com/carinotj19/ShelterSync/internal/middleware"
	"github.com/carinotj19/ShelterSync/internal/routes"
	"github.com/carinotj19/ShelterSync/internal/services"
	pkghttp "github.com/carinotj19/ShelterSync/pkg/http"
	pkglogger "github.com/carinotj19/ShelterSync/pkg/logger"
)

// TestServer wraps httptest.Server with the full application stack
// backed by a real database and a captured email outbox.
type TestServer struct {
	Server *httptest.Server
	Email  *services.MockEmailService
	Config *config.Config
}

// NewTestServer wires the production router against db with email
// delivery mocked out.
func NewTestServer(db *TestDB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret-32-characters-long!!",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
			MaxLoginAttempts:   5,
			LockoutDuration:    15 * time.Minute,
			ResetTokenExpiry:   10 * time.Minute,
			CleanupInterval:    1 * time.Hour,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			TrustedProxies: []string{},
		},
		Email: config.EmailConfig{
			FromAddress: "noreply@test.local",
			ClientURL:   "http://localhost:3000",
		},
	}

	email := &services.MockEmailService{}
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	authService := services.NewAuthService(db.Users, tokenManager, email, cfg.Auth, cfg.Email.ClientURL, logger, auditLogger)
	userService := services.NewUserService(db.Users, logger, auditLogger)
	petService := services.NewPetService(db.Pets, db.Adoptions, logger)
	adoptionService := services.NewAdoptionService(db.Adoptions, email, logger)
	adminService := services.NewAdminService(db.Users, db.Pets, db.Adoptions, logger, auditLogger)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	userHandler := handlers.NewUserHandler(userService)
	petHandler := handlers.NewPetHandler(petService)
	adoptionHandler := handlers.NewAdoptionHandler(adoptionService)
	adminHandler := handlers.NewAdminHandler(adminService)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommiddleware.SecurityHeaders(custommiddleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, tokenManager, authHandler, userHandler, petHandler, adoptionHandler, adminHandler)

	return &TestServer{
		Server: httptest.NewServer(r),
		Email:  email,
		Config: cfg,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
}

// ParseJSONResponse parses a JSON response body into target
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}
