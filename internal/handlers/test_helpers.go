package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/carinotj19/ShelterSync/internal/auth"
	"github.com/carinotj19/ShelterSync/internal/models"
	"github.com/carinotj19/ShelterSync/internal/services"
)

// testTokenManager is shared across handler tests so tokens minted by
// bearerToken validate against the middleware under test.
var testTokenManager = auth.NewTokenManager("handler-test-secret", 15*time.Minute, 24*time.Hour)

func testAuthMW() func(http.Handler) http.Handler {
	return auth.Middleware(testTokenManager)
}

// bearerToken mints an access token for the given identity.
func bearerToken(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := testTokenManager.GenerateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return "Bearer " + token
}

// doJSON performs a request against the router with an optional JSON
// body and bearer token, returning the recorder.
func doJSON(t *testing.T, router chi.Router, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

// MockAuthService implements AuthServiceInterface with function fields
type MockAuthService struct {
	RegisterFunc       func(ctx context.Context, input services.RegisterInput) (*services.AuthResponse, error)
	LoginFunc          func(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error)
	RefreshTokensFunc  func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	VerifyEmailFunc    func(ctx context.Context, token string) error
	ForgotPasswordFunc func(ctx context.Context, email string) error
	ResetPasswordFunc  func(ctx context.Context, token, newPassword string) error
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, input)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, ipAddress)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	if m.RefreshTokensFunc != nil {
		return m.RefreshTokensFunc(ctx, refreshToken)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token)
	}
	return nil
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, newPassword)
	}
	return nil
}

// MockUserService implements UserServiceInterface with function fields
type MockUserService struct {
	GetProfileFunc        func(ctx context.Context, userID string) (*services.UserResponse, error)
	UpdateProfileFunc     func(ctx context.Context, userID string, input services.UpdateProfileInput) (*services.UserResponse, error)
	ChangePasswordFunc    func(ctx context.Context, userID, currentPassword, newPassword string) error
	DeactivateAccountFunc func(ctx context.Context, userID string) error
	GetPublicProfileFunc  func(ctx context.Context, userID string) (*models.UserSummary, error)
}

func (m *MockUserService) GetProfile(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID string, input services.UpdateProfileInput) (*services.UserResponse, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, input)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword)
	}
	return nil
}

func (m *MockUserService) DeactivateAccount(ctx context.Context, userID string) error {
	if m.DeactivateAccountFunc != nil {
		return m.DeactivateAccountFunc(ctx, userID)
	}
	return nil
}

func (m *MockUserService) GetPublicProfile(ctx context.Context, userID string) (*models.UserSummary, error) {
	if m.GetPublicProfileFunc != nil {
		return m.GetPublicProfileFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

// MockPetService implements PetServiceInterface with function fields
type MockPetService struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.Pet, error)
	ListFunc           func(ctx context.Context, filter models.PetFilter, page, limit int) ([]*models.Pet, *models.Pagination, error)
	ListFeaturedFunc   func(ctx context.Context, limit int) ([]*models.Pet, error)
	ListByShelterFunc  func(ctx context.Context, shelterID, status string, page, limit int) ([]*models.Pet, *models.Pagination, error)
	CreateFunc         func(ctx context.Context, shelterID string, input services.CreatePetInput) (*models.Pet, error)
	UpdateFunc         func(ctx context.Context, petID, actorID, actorRole string, input services.UpdatePetInput) (*models.Pet, error)
	DeleteFunc         func(ctx context.Context, petID, actorID, actorRole string) error
	MarkAsAdoptedFunc  func(ctx context.Context, petID, actorID, actorRole string, adopterID *string) (*models.Pet, error)
	ToggleFeaturedFunc func(ctx context.Context, petID, actorRole string) (*models.Pet, error)
	GetStatisticsFunc  func(ctx context.Context, shelterID string) (*models.PetStatistics, error)
}

func (m *MockPetService) GetByID(ctx context.Context, id string) (*models.Pet, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPetService) List(ctx context.Context, filter models.PetFilter, page, limit int) ([]*models.Pet, *models.Pagination, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, page, limit)
	}
	return nil, models.NewPagination(page, limit, 0), nil
}

func (m *MockPetService) ListFeatured(ctx context.Context, limit int) ([]*models.Pet, error) {
	if m.ListFeaturedFunc != nil {
		return m.ListFeaturedFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockPetService) ListByShelter(ctx context.Context, shelterID, status string, page, limit int) ([]*models.Pet, *models.Pagination, error) {
	if m.ListByShelterFunc != nil {
		return m.ListByShelterFunc(ctx, shelterID, status, page, limit)
	}
	return nil, models.NewPagination(page, limit, 0), nil
}

func (m *MockPetService) Create(ctx context.Context, shelterID string, input services.CreatePetInput) (*models.Pet, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, shelterID, input)
	}
	return nil, models.ErrInternalServer
}

func (m *MockPetService) Update(ctx context.Context, petID, actorID, actorRole string, input services.UpdatePetInput) (*models.Pet, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, petID, actorID, actorRole, input)
	}
	return nil, models.ErrNotFound
}

func (m *MockPetService) Delete(ctx context.Context, petID, actorID, actorRole string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, petID, actorID, actorRole)
	}
	return models.ErrNotFound
}

func (m *MockPetService) MarkAsAdopted(ctx context.Context, petID, actorID, actorRole string, adopterID *string) (*models.Pet, error) {
	if m.MarkAsAdoptedFunc != nil {
		return m.MarkAsAdoptedFunc(ctx, petID, actorID, actorRole, adopterID)
	}
	return nil, models.ErrNotFound
}

func (m *MockPetService) ToggleFeatured(ctx context.Context, petID, actorRole string) (*models.Pet, error) {
	if m.ToggleFeaturedFunc != nil {
		return m.ToggleFeaturedFunc(ctx, petID, actorRole)
	}
	return nil, models.ErrNotFound
}

func (m *MockPetService) GetStatistics(ctx context.Context, shelterID string) (*models.PetStatistics, error) {
	if m.GetStatisticsFunc != nil {
		return m.GetStatisticsFunc(ctx, shelterID)
	}
	return &models.PetStatistics{}, nil
}

// MockAdoptionService implements AdoptionServiceInterface with function fields
type MockAdoptionService struct {
	CreateRequestFunc    func(ctx context.Context, petID, adopterID string, input services.CreateRequestInput) (*models.AdoptionRequest, error)
	ApproveRequestFunc   func(ctx context.Context, requestID, actorID, actorRole, response string) (*models.AdoptionRequest, error)
	RejectRequestFunc    func(ctx context.Context, requestID, actorID, actorRole, response string) (*models.AdoptionRequest, error)
	WithdrawRequestFunc  func(ctx context.Context, requestID, adopterID string) (*models.AdoptionRequest, error)
	AddNoteFunc          func(ctx context.Context, requestID, userID, userRole, content string) (*models.AdoptionRequest, error)
	GetRequestByIDFunc   func(ctx context.Context, requestID, userID, userRole string) (*models.AdoptionRequest, error)
	ListForAdopterFunc   func(ctx context.Context, adopterID, status string, page, limit int) ([]*models.AdoptionRequest, *models.Pagination, error)
	ListForShelterFunc   func(ctx context.Context, shelterID, status string, page, limit int) ([]*models.AdoptionRequest, *models.Pagination, error)
	GetStatisticsFunc    func(ctx context.Context, shelterID string) (*models.AdoptionStatistics, error)
	BulkUpdateStatusFunc func(ctx context.Context, actorID, actorRole string, requestIDs []string, action services.BulkAction, response string) []services.BulkResult
}

func (m *MockAdoptionService) CreateRequest(ctx context.Context, petID, adopterID string, input services.CreateRequestInput) (*models.AdoptionRequest, error) {
	if m.CreateRequestFunc != nil {
		return m.CreateRequestFunc(ctx, petID, adopterID, input)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAdoptionService) ApproveRequest(ctx context.Context, requestID, actorID, actorRole, response string) (*models.AdoptionRequest, error) {
	if m.ApproveRequestFunc != nil {
		return m.ApproveRequestFunc(ctx, requestID, actorID, actorRole, response)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdoptionService) RejectRequest(ctx context.Context, requestID, actorID, actorRole, response string) (*models.AdoptionRequest, error) {
	if m.RejectRequestFunc != nil {
		return m.RejectRequestFunc(ctx, requestID, actorID, actorRole, response)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdoptionService) WithdrawRequest(ctx context.Context, requestID, adopterID string) (*models.AdoptionRequest, error) {
	if m.WithdrawRequestFunc != nil {
		return m.WithdrawRequestFunc(ctx, requestID, adopterID)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdoptionService) AddNote(ctx context.Context, requestID, userID, userRole, content string) (*models.AdoptionRequest, error) {
	if m.AddNoteFunc != nil {
		return m.AddNoteFunc(ctx, requestID, userID, userRole, content)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdoptionService) GetRequestByID(ctx context.Context, requestID, userID, userRole string) (*models.AdoptionRequest, error) {
	if m.GetRequestByIDFunc != nil {
		return m.GetRequestByIDFunc(ctx, requestID, userID, userRole)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdoptionService) ListForAdopter(ctx context.Context, adopterID, status string, page, limit int) ([]*models.AdoptionRequest, *models.Pagination, error) {
	if m.ListForAdopterFunc != nil {
		return m.ListForAdopterFunc(ctx, adopterID, status, page, limit)
	}
	return nil, models.NewPagination(page, limit, 0), nil
}

func (m *MockAdoptionService) ListForShelter(ctx context.Context, shelterID, status string, page, limit int) ([]*models.AdoptionRequest, *models.Pagination, error) {
	if m.ListForShelterFunc != nil {
		return m.ListForShelterFunc(ctx, shelterID, status, page, limit)
	}
	return nil, models.NewPagination(page, limit, 0), nil
}

func (m *MockAdoptionService) GetStatistics(ctx context.Context, shelterID string) (*models.AdoptionStatistics, error) {
	if m.GetStatisticsFunc != nil {
		return m.GetStatisticsFunc(ctx, shelterID)
	}
	return &models.AdoptionStatistics{}, nil
}

func (m *MockAdoptionService) BulkUpdateStatus(ctx context.Context, actorID, actorRole string, requestIDs []string, action services.BulkAction, response string) []services.BulkResult {
	if m.BulkUpdateStatusFunc != nil {
		return m.BulkUpdateStatusFunc(ctx, actorID, actorRole, requestIDs, action, response)
	}
	return nil
}

// MockAdminService implements AdminServiceInterface with function fields
type MockAdminService struct {
	ListUsersFunc             func(ctx context.Context, page, limit int) ([]*services.UserResponse, *models.Pagination, error)
	UpdateUserRoleFunc        func(ctx context.Context, adminID, userID, role string) (*services.UserResponse, error)
	SetUserActiveFunc         func(ctx context.Context, adminID, userID string, active bool) (*services.UserResponse, error)
	DeleteUserFunc            func(ctx context.Context, adminID, userID string) error
	GetPlatformStatisticsFunc func(ctx context.Context) (*services.PlatformStatistics, error)
}

func (m *MockAdminService) ListUsers(ctx context.Context, page, limit int) ([]*services.UserResponse, *models.Pagination, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, page, limit)
	}
	return nil, models.NewPagination(page, limit, 0), nil
}

func (m *MockAdminService) UpdateUserRole(ctx context.Context, adminID, userID, role string) (*services.UserResponse, error) {
	if m.UpdateUserRoleFunc != nil {
		return m.UpdateUserRoleFunc(ctx, adminID, userID, role)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdminService) SetUserActive(ctx context.Context, adminID, userID string, active bool) (*services.UserResponse, error) {
	if m.SetUserActiveFunc != nil {
		return m.SetUserActiveFunc(ctx, adminID, userID, active)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdminService) DeleteUser(ctx context.Context, adminID, userID string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, adminID, userID)
	}
	return models.ErrNotFound
}

func (m *MockAdminService) GetPlatformStatistics(ctx context.Context) (*services.PlatformStatistics, error) {
	if m.GetPlatformStatisticsFunc != nil {
		return m.GetPlatformStatisticsFunc(ctx)
	}
	return &services.PlatformStatistics{}, nil
}
