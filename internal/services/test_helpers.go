package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carinotj19/ShelterSync/internal/models"
	pkglogger "github.com/carinotj19/ShelterSync/pkg/logger"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc                func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc             func(ctx context.Context, email string) (*models.User, error)
	ListFunc                   func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc                 func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc                 func(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdatePasswordFunc         func(ctx context.Context, id, passwordHash string) error
	DeleteFunc                 func(ctx context.Context, id string) error
	GetByResetTokenFunc        func(ctx context.Context, hashedToken string) (*models.User, error)
	GetByVerificationTokenFunc func(ctx context.Context, token string) (*models.User, error)
	RecordFailedLoginFunc      func(ctx context.Context, id string, lockUntil *time.Time) error
	ResetLoginAttemptsFunc     func(ctx context.Context, id string) error
	CountFunc                  func(ctx context.Context, role string) (int, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, hashedToken string) (*models.User, error) {
	if m.GetByResetTokenFunc != nil {
		return m.GetByResetTokenFunc(ctx, hashedToken)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if m.GetByVerificationTokenFunc != nil {
		return m.GetByVerificationTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) RecordFailedLogin(ctx context.Context, id string, lockUntil *time.Time) error {
	if m.RecordFailedLoginFunc != nil {
		return m.RecordFailedLoginFunc(ctx, id, lockUntil)
	}
	return nil
}

func (m *MockUserRepository) ResetLoginAttempts(ctx context.Context, id string) error {
	if m.ResetLoginAttemptsFunc != nil {
		return m.ResetLoginAttemptsFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) Count(ctx context.Context, role string) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, role)
	}
	return 0, nil
}

// MockPetRepository implements PetRepository for testing
type MockPetRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.Pet, error)
	CreateFunc        func(ctx context.Context, pet *models.Pet) (*models.Pet, error)
	UpdateFunc        func(ctx context.Context, id string, pet *models.Pet) (*models.Pet, error)
	MarkAdoptedFunc   func(ctx context.Context, id, adopterID string, at time.Time) (*models.Pet, error)
	DeleteFunc        func(ctx context.Context, id string) error
	ListFunc          func(ctx context.Context, filter models.PetFilter, limit, offset int) ([]*models.Pet, int, error)
	ListByShelterFunc func(ctx context.Context, shelterID, status string, limit, offset int) ([]*models.Pet, int, error)
	ListFeaturedFunc  func(ctx context.Context, limit int) ([]*models.Pet, error)
	StatisticsFunc    func(ctx context.Context, shelterID string) (*models.PetStatistics, error)
}

func (m *MockPetRepository) GetByID(ctx context.Context, id string) (*models.Pet, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPetRepository) Create(ctx context.Context, pet *models.Pet) (*models.Pet, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, pet)
	}
	return nil, models.ErrInternalServer
}

func (m *MockPetRepository) Update(ctx context.Context, id string, pet *models.Pet) (*models.Pet, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, pet)
	}
	return nil, models.ErrInternalServer
}

func (m *MockPetRepository) MarkAdopted(ctx context.Context, id, adopterID string, at time.Time) (*models.Pet, error) {
	if m.MarkAdoptedFunc != nil {
		return m.MarkAdoptedFunc(ctx, id, adopterID, at)
	}
	return nil, models.ErrInternalServer
}

func (m *MockPetRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockPetRepository) List(ctx context.Context, filter models.PetFilter, limit, offset int) ([]*models.Pet, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, limit, offset)
	}
	return []*models.Pet{}, 0, nil
}

func (m *MockPetRepository) ListByShelter(ctx context.Context, shelterID, status string, limit, offset int) ([]*models.Pet, int, error) {
	if m.ListByShelterFunc != nil {
		return m.ListByShelterFunc(ctx, shelterID, status, limit, offset)
	}
	return []*models.Pet{}, 0, nil
}

func (m *MockPetRepository) ListFeatured(ctx context.Context, limit int) ([]*models.Pet, error) {
	if m.ListFeaturedFunc != nil {
		return m.ListFeaturedFunc(ctx, limit)
	}
	return []*models.Pet{}, nil
}

func (m *MockPetRepository) Statistics(ctx context.Context, shelterID string) (*models.PetStatistics, error) {
	if m.StatisticsFunc != nil {
		return m.StatisticsFunc(ctx, shelterID)
	}
	return &models.PetStatistics{}, nil
}

// MockEmailService records sent emails for assertions
type MockEmailService struct {
	mu   sync.Mutex
	Sent []SentEmail
	Err  error
}

type SentEmail struct {
	To      string
	Subject string
}

func (m *MockEmailService) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentEmail{To: to, Subject: subject})
	return nil
}

func (m *MockEmailService) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// memoryAdoptionStore is an in-memory AdoptionStore. Transactions are
// serialized with a mutex and rolled back by snapshot, which gives the
// same observable semantics as the row-locked Postgres implementation.
type memoryAdoptionStore struct {
	mu       sync.Mutex
	pets     map[string]*models.Pet
	requests map[string]*models.AdoptionRequest
	notes    map[string][]models.RequestNote
	users    map[string]*models.UserSummary
	seq      int
}

type memTxKey struct{}

func newMemoryAdoptionStore() *memoryAdoptionStore {
	return &memoryAdoptionStore{
		pets:     make(map[string]*models.Pet),
		requests: make(map[string]*models.AdoptionRequest),
		notes:    make(map[string][]models.RequestNote),
		users:    make(map[string]*models.UserSummary),
	}
}

func (s *memoryAdoptionStore) AddUser(u *models.UserSummary) {
	s.users[u.ID] = u
}

func (s *memoryAdoptionStore) AddPet(p *models.Pet) {
	s.pets[p.ID] = p
}

func (s *memoryAdoptionStore) lock(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memoryAdoptionStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapPets := clonePetMap(s.pets)
	snapRequests := cloneRequestMap(s.requests)

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.pets = snapPets
		s.requests = snapRequests
		return err
	}
	return nil
}

func (s *memoryAdoptionStore) GetRequest(ctx context.Context, id string) (*models.AdoptionRequest, error) {
	defer s.lock(ctx)()

	req, ok := s.requests[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	out := *req
	out.Notes = append([]models.RequestNote(nil), s.notes[id]...)
	if pet, ok := s.pets[req.PetID]; ok {
		out.Pet = &models.PetSummary{ID: pet.ID, Name: pet.Name, Breed: pet.Breed, Status: pet.Status, ImageURL: pet.ImageURL}
	}
	out.Adopter = s.users[req.AdopterID]
	out.Shelter = s.users[req.ShelterID]
	return &out, nil
}

func (s *memoryAdoptionStore) GetRequestForUpdate(ctx context.Context, id string) (*models.AdoptionRequest, error) {
	defer s.lock(ctx)()

	req, ok := s.requests[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *req
	return &out, nil
}

func (s *memoryAdoptionStore) InsertRequest(ctx context.Context, req *models.AdoptionRequest) error {
	defer s.lock(ctx)()

	req.ID = uuid.New().String()
	s.seq++
	req.CreatedAt = time.Now().Add(time.Duration(s.seq) * time.Millisecond)
	req.UpdatedAt = req.CreatedAt

	stored := *req
	s.requests[req.ID] = &stored
	return nil
}

func (s *memoryAdoptionStore) UpdateRequestStatus(ctx context.Context, req *models.AdoptionRequest) error {
	defer s.lock(ctx)()

	stored, ok := s.requests[req.ID]
	if !ok {
		return models.ErrNotFound
	}
	stored.Status = req.Status
	stored.RespondedAt = req.RespondedAt
	stored.RespondedBy = req.RespondedBy
	stored.ShelterResponse = req.ShelterResponse
	stored.UpdatedAt = time.Now()
	return nil
}

func (s *memoryAdoptionStore) HasPendingRequest(ctx context.Context, petID, adopterID string) (bool, error) {
	defer s.lock(ctx)()

	for _, req := range s.requests {
		if req.PetID == petID && req.AdopterID == adopterID && req.Status == models.RequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryAdoptionStore) CountPendingForPet(ctx context.Context, petID string) (int, error) {
	defer s.lock(ctx)()

	count := 0
	for _, req := range s.requests {
		if req.PetID == petID && req.Status == models.RequestStatusPending {
			count++
		}
	}
	return count, nil
}

func (s *memoryAdoptionStore) RejectPendingSiblings(ctx context.Context, petID, excludeRequestID, responderID string, respondedAt time.Time) (int64, error) {
	defer s.lock(ctx)()

	var rejected int64
	response := models.SiblingRejectionResponse
	for _, req := range s.requests {
		if req.PetID == petID && req.ID != excludeRequestID && req.Status == models.RequestStatusPending {
			req.Status = models.RequestStatusRejected
			req.RespondedAt = &respondedAt
			req.RespondedBy = &responderID
			req.ShelterResponse = &response
			req.UpdatedAt = respondedAt
			rejected++
		}
	}
	return rejected, nil
}

func (s *memoryAdoptionStore) ListForAdopter(ctx context.Context, adopterID, status string, limit, offset int) ([]*models.AdoptionRequest, int, error) {
	defer s.lock(ctx)()

	matches := s.filter(func(req *models.AdoptionRequest) bool {
		return req.AdopterID == adopterID && (status == "" || req.Status == status)
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return page(matches, limit, offset), len(matches), nil
}

func (s *memoryAdoptionStore) ListForShelter(ctx context.Context, shelterID, status string, limit, offset int) ([]*models.AdoptionRequest, int, error) {
	defer s.lock(ctx)()

	matches := s.filter(func(req *models.AdoptionRequest) bool {
		return req.ShelterID == shelterID && (status == "" || req.Status == status)
	})
	rank := map[string]int{models.PriorityHigh: 0, models.PriorityMedium: 1, models.PriorityLow: 2}
	sort.Slice(matches, func(i, j int) bool {
		if rank[matches[i].Priority] != rank[matches[j].Priority] {
			return rank[matches[i].Priority] < rank[matches[j].Priority]
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return page(matches, limit, offset), len(matches), nil
}

func (s *memoryAdoptionStore) AppendNote(ctx context.Context, requestID string, note *models.RequestNote) error {
	defer s.lock(ctx)()

	if _, ok := s.requests[requestID]; !ok {
		return models.ErrNotFound
	}
	note.ID = uuid.New().String()
	s.notes[requestID] = append(s.notes[requestID], *note)
	return nil
}

func (s *memoryAdoptionStore) Statistics(ctx context.Context, shelterID string) (*models.AdoptionStatistics, error) {
	defer s.lock(ctx)()

	stats := &models.AdoptionStatistics{}
	var totalHours float64
	var responded int

	for _, req := range s.requests {
		if shelterID != "" && req.ShelterID != shelterID {
			continue
		}
		stats.Total++
		switch req.Status {
		case models.RequestStatusPending:
			stats.Pending++
		case models.RequestStatusApproved:
			stats.Approved++
		case models.RequestStatusRejected:
			stats.Rejected++
		case models.RequestStatusWithdrawn:
			stats.Withdrawn++
		}
		if req.RespondedAt != nil {
			totalHours += req.RespondedAt.Sub(req.CreatedAt).Hours()
			responded++
		}
	}

	if responded > 0 {
		avg := totalHours / float64(responded)
		stats.AvgResponseTimeHours = &avg
	}
	return stats, nil
}

func (s *memoryAdoptionStore) DeleteByAdopter(ctx context.Context, adopterID string) (int64, error) {
	defer s.lock(ctx)()

	var deleted int64
	for id, req := range s.requests {
		if req.AdopterID == adopterID {
			delete(s.requests, id)
			delete(s.notes, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *memoryAdoptionStore) GetPetForUpdate(ctx context.Context, petID string) (*models.Pet, error) {
	defer s.lock(ctx)()

	pet, ok := s.pets[petID]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *pet
	return &out, nil
}

func (s *memoryAdoptionStore) SetPetStatus(ctx context.Context, petID, from, to string) error {
	defer s.lock(ctx)()

	pet, ok := s.pets[petID]
	if !ok || pet.Status != from {
		return models.ErrNotFound
	}
	pet.Status = to
	pet.UpdatedAt = time.Now()
	return nil
}

func (s *memoryAdoptionStore) MarkPetAdopted(ctx context.Context, petID, adopterID string, at time.Time) error {
	defer s.lock(ctx)()

	pet, ok := s.pets[petID]
	if !ok {
		return models.ErrNotFound
	}
	pet.Status = models.PetStatusAdopted
	pet.AdoptedBy = &adopterID
	pet.AdoptedAt = &at
	pet.UpdatedAt = at
	return nil
}

// PetStatus reads a pet's current status outside any transaction.
func (s *memoryAdoptionStore) PetStatus(petID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pet, ok := s.pets[petID]; ok {
		return pet.Status
	}
	return ""
}

func (s *memoryAdoptionStore) filter(keep func(*models.AdoptionRequest) bool) []*models.AdoptionRequest {
	var matches []*models.AdoptionRequest
	for _, req := range s.requests {
		if keep(req) {
			out := *req
			matches = append(matches, &out)
		}
	}
	return matches
}

func page(reqs []*models.AdoptionRequest, limit, offset int) []*models.AdoptionRequest {
	if offset >= len(reqs) {
		return []*models.AdoptionRequest{}
	}
	end := len(reqs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return reqs[offset:end]
}

func clonePetMap(src map[string]*models.Pet) map[string]*models.Pet {
	dst := make(map[string]*models.Pet, len(src))
	for id, pet := range src {
		out := *pet
		dst[id] = &out
	}
	return dst
}

func cloneRequestMap(src map[string]*models.AdoptionRequest) map[string]*models.AdoptionRequest {
	dst := make(map[string]*models.AdoptionRequest, len(src))
	for id, req := range src {
		out := *req
		dst[id] = &out
	}
	return dst
}

// longExperience builds adopter experience text that clears the
// priority-scoring length threshold.
func longExperience() string {
	return strings.Repeat("I have cared for rescue dogs for many years. ", 4)
}
