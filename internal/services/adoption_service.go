package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/carinotj19/ShelterSync/internal/models"
)

// AdoptionStore defines the persistence operations the adoption workflow
// engine requires. WithinTx provides the atomic unit for status
// transitions; the Postgres implementation uses row locks, the in-memory
// test implementation serializes with a mutex.
type AdoptionStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetRequest(ctx context.Context, id string) (*models.AdoptionRequest, error)
	GetRequestForUpdate(ctx context.Context, id string) (*models.AdoptionRequest, error)
	InsertRequest(ctx context.Context, req *models.AdoptionRequest) error
	UpdateRequestStatus(ctx context.Context, req *models.AdoptionRequest) error
	HasPendingRequest(ctx context.Context, petID, adopterID string) (bool, error)
	CountPendingForPet(ctx context.Context, petID string) (int, error)
	RejectPendingSiblings(ctx context.Context, petID, excludeRequestID, responderID string, respondedAt time.Time) (int64, error)
	ListForAdopter(ctx context.Context, adopterID, status string, limit, offset int) ([]*models.AdoptionRequest, int, error)
	ListForShelter(ctx context.Context, shelterID, status string, limit, offset int) ([]*models.AdoptionRequest, int, error)
	AppendNote(ctx context.Context, requestID string, note *models.RequestNote) error
	Statistics(ctx context.Context, shelterID string) (*models.AdoptionStatistics, error)

	GetPetForUpdate(ctx context.Context, petID string) (*models.Pet, error)
	SetPetStatus(ctx context.Context, petID, from, to string) error
	MarkPetAdopted(ctx context.Context, petID, adopterID string, at time.Time) error
}

// AdoptionService is the adoption workflow engine: the sole mutator of
// request status and of the pet status transitions requests drive.
type AdoptionService struct {
	store  AdoptionStore
	email  EmailService
	logger *slog.Logger
	now    func() time.Time
}

func NewAdoptionService(store AdoptionStore, email EmailService, logger *slog.Logger) *AdoptionService {
	return &AdoptionService{
		store:  store,
		email:  email,
		logger: logger,
		now:    time.Now,
	}
}

// CreateRequestInput carries the adopter-supplied fields of a new
// adoption request.
type CreateRequestInput struct {
	Message     string
	AdopterInfo models.AdopterInfo
}

// CreateRequest opens a pending adoption request against an available
// pet. The first pending request reserves the pet by flipping its status
// to pending. The owning shelter is notified best-effort.
func (s *AdoptionService) CreateRequest(ctx context.Context, petID, adopterID string, input CreateRequestInput) (*models.AdoptionRequest, error) {
	request := &models.AdoptionRequest{
		PetID:       petID,
		AdopterID:   adopterID,
		Message:     input.Message,
		Status:      models.RequestStatusPending,
		Priority:    models.ComputePriority(input.AdopterInfo),
		AdopterInfo: input.AdopterInfo,
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		pet, err := s.store.GetPetForUpdate(ctx, petID)
		if err != nil {
			return err
		}

		if !pet.CanBeAdopted() {
			return models.NewValidationError("Pet is not available for adoption")
		}

		exists, err := s.store.HasPendingRequest(ctx, petID, adopterID)
		if err != nil {
			return err
		}
		if exists {
			return models.NewValidationError("You already have a pending request for this pet")
		}

		request.ShelterID = pet.ShelterID
		if err := s.store.InsertRequest(ctx, request); err != nil {
			return err
		}

		// First pending request reserves the pet while under review.
		pending, err := s.store.CountPendingForPet(ctx, petID)
		if err != nil {
			return err
		}
		if pending == 1 {
			if err := s.store.SetPetStatus(ctx, petID, models.PetStatusAvailable, models.PetStatusPending); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		s.logger.Error("failed to create adoption request",
			slog.String("pet_id", petID),
			slog.String("adopter_id", adopterID),
			slog.Any("error", err))
		return nil, s.domainErr(err)
	}

	populated, err := s.store.GetRequest(ctx, request.ID)
	if err != nil {
		s.logger.Error("failed to load created adoption request", slog.String("request_id", request.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.notify(summaryEmail(populated.Shelter), newRequestEmail(populated))

	s.logger.Info("adoption request created",
		slog.String("request_id", populated.ID),
		slog.String("pet_id", petID),
		slog.String("adopter_id", adopterID),
		slog.String("priority", populated.Priority))

	return populated, nil
}

// ApproveRequest approves a pending request: the request is marked
// approved, the pet adopted by the requester, and every other pending
// request on the pet rejected with a system-authored response, all in
// one atomic unit.
func (s *AdoptionService) ApproveRequest(ctx context.Context, requestID, actorID, actorRole, response string) (*models.AdoptionRequest, error) {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.store.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		access := request.AccessBy(actorID, actorRole)
		if !access.IsShelter && !access.IsAdmin {
			return models.ErrForbidden
		}

		if !request.CanBeModified() {
			return models.NewValidationError("This request has already been processed")
		}

		if _, err := s.store.GetPetForUpdate(ctx, request.PetID); err != nil {
			return err
		}

		now := s.now()
		request.Status = models.RequestStatusApproved
		request.RespondedAt = &now
		request.RespondedBy = &actorID
		if response != "" {
			request.ShelterResponse = &response
		}
		if err := s.store.UpdateRequestStatus(ctx, request); err != nil {
			return err
		}

		if err := s.store.MarkPetAdopted(ctx, request.PetID, request.AdopterID, now); err != nil {
			return err
		}

		rejected, err := s.store.RejectPendingSiblings(ctx, request.PetID, request.ID, actorID, now)
		if err != nil {
			return err
		}
		if rejected > 0 {
			s.logger.Info("rejected sibling requests",
				slog.String("pet_id", request.PetID),
				slog.Int64("count", rejected))
		}

		return nil
	})
	if err != nil {
		s.logger.Error("failed to approve adoption request",
			slog.String("request_id", requestID),
			slog.String("actor_id", actorID),
			slog.Any("error", err))
		return nil, s.domainErr(err)
	}

	populated, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, models.ErrInternalServer
	}

	s.notify(summaryEmail(populated.Adopter), approvalEmail(populated))

	s.logger.Info("adoption request approved",
		slog.String("request_id", requestID),
		slog.String("pet_id", populated.PetID),
		slog.String("adopter_id", populated.AdopterID))

	return populated, nil
}

// RejectRequest declines a pending request. When no pending requests
// remain on the pet, the reservation is released and the pet becomes
// available again.
func (s *AdoptionService) RejectRequest(ctx context.Context, requestID, actorID, actorRole, response string) (*models.AdoptionRequest, error) {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.store.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		access := request.AccessBy(actorID, actorRole)
		if !access.IsShelter && !access.IsAdmin {
			return models.ErrForbidden
		}

		if !request.CanBeModified() {
			return models.NewValidationError("This request has already been processed")
		}

		if _, err := s.store.GetPetForUpdate(ctx, request.PetID); err != nil {
			return err
		}

		now := s.now()
		request.Status = models.RequestStatusRejected
		request.RespondedAt = &now
		request.RespondedBy = &actorID
		if response != "" {
			request.ShelterResponse = &response
		}
		if err := s.store.UpdateRequestStatus(ctx, request); err != nil {
			return err
		}

		return s.releaseIfNoPending(ctx, request.PetID)
	})
	if err != nil {
		s.logger.Error("failed to reject adoption request",
			slog.String("request_id", requestID),
			slog.String("actor_id", actorID),
			slog.Any("error", err))
		return nil, s.domainErr(err)
	}

	populated, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, models.ErrInternalServer
	}

	s.notify(summaryEmail(populated.Adopter), rejectionEmail(populated))

	s.logger.Info("adoption request rejected", slog.String("request_id", requestID))

	return populated, nil
}

// WithdrawRequest is the adopter's self-service exit: the request is
// closed without a shelter decision, so respondedAt/respondedBy stay
// unset.
func (s *AdoptionService) WithdrawRequest(ctx context.Context, requestID, adopterID string) (*models.AdoptionRequest, error) {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.store.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		if request.AdopterID != adopterID {
			return models.ErrForbidden
		}

		if !request.CanBeModified() {
			return models.NewValidationError("This request cannot be withdrawn")
		}

		if _, err := s.store.GetPetForUpdate(ctx, request.PetID); err != nil {
			return err
		}

		request.Status = models.RequestStatusWithdrawn
		if err := s.store.UpdateRequestStatus(ctx, request); err != nil {
			return err
		}

		return s.releaseIfNoPending(ctx, request.PetID)
	})
	if err != nil {
		s.logger.Error("failed to withdraw adoption request",
			slog.String("request_id", requestID),
			slog.String("adopter_id", adopterID),
			slog.Any("error", err))
		return nil, s.domainErr(err)
	}

	populated, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, models.ErrInternalServer
	}

	s.logger.Info("adoption request withdrawn", slog.String("request_id", requestID))

	return populated, nil
}

// releaseIfNoPending reverts the pet to available when its last pending
// request has just been resolved. The recount runs inside the caller's
// transaction so it cannot race a concurrent create.
func (s *AdoptionService) releaseIfNoPending(ctx context.Context, petID string) error {
	pending, err := s.store.CountPendingForPet(ctx, petID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return nil
	}

	err = s.store.SetPetStatus(ctx, petID, models.PetStatusPending, models.PetStatusAvailable)
	if errors.Is(err, models.ErrNotFound) {
		// Pet was not in the pending state (already adopted); nothing to release.
		return nil
	}
	return err
}

// AddNote appends a note to a request. Notes are append-only and
// visible to the adopter, the owning shelter, and admins.
func (s *AdoptionService) AddNote(ctx context.Context, requestID, userID, userRole, content string) (*models.AdoptionRequest, error) {
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, s.domainErr(err)
	}

	if !request.AccessBy(userID, userRole).CanView() {
		return nil, models.ErrForbidden
	}

	note := &models.RequestNote{
		Content: content,
		AddedBy: userID,
		AddedAt: s.now(),
	}
	if err := s.store.AppendNote(ctx, requestID, note); err != nil {
		s.logger.Error("failed to add note", slog.String("request_id", requestID), slog.Any("error", err))
		return nil, s.domainErr(err)
	}

	s.logger.Info("note added to adoption request",
		slog.String("request_id", requestID),
		slog.String("user_id", userID))

	return s.store.GetRequest(ctx, requestID)
}

// GetRequestByID returns a request to the adopter, the owning shelter,
// or an admin; everyone else gets an authorization error.
func (s *AdoptionService) GetRequestByID(ctx context.Context, requestID, userID, userRole string) (*models.AdoptionRequest, error) {
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, s.domainErr(err)
	}

	if !request.AccessBy(userID, userRole).CanView() {
		return nil, models.ErrForbidden
	}

	return request, nil
}

// ListForAdopter returns the adopter's requests, newest first.
func (s *AdoptionService) ListForAdopter(ctx context.Context, adopterID, status string, page, limit int) ([]*models.AdoptionRequest, *models.Pagination, error) {
	offset := (page - 1) * limit

	requests, total, err := s.store.ListForAdopter(ctx, adopterID, status, limit, offset)
	if err != nil {
		s.logger.Error("failed to list adopter requests", slog.String("adopter_id", adopterID), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	return requests, models.NewPagination(page, limit, total), nil
}

// ListForShelter returns the shelter's incoming requests sorted by
// priority then recency.
func (s *AdoptionService) ListForShelter(ctx context.Context, shelterID, status string, page, limit int) ([]*models.AdoptionRequest, *models.Pagination, error) {
	offset := (page - 1) * limit

	requests, total, err := s.store.ListForShelter(ctx, shelterID, status, limit, offset)
	if err != nil {
		s.logger.Error("failed to list shelter requests", slog.String("shelter_id", shelterID), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	return requests, models.NewPagination(page, limit, total), nil
}

// GetStatistics aggregates request counts and mean response latency,
// optionally scoped to one shelter.
func (s *AdoptionService) GetStatistics(ctx context.Context, shelterID string) (*models.AdoptionStatistics, error) {
	stats, err := s.store.Statistics(ctx, shelterID)
	if err != nil {
		s.logger.Error("failed to get adoption statistics", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return stats, nil
}

// BulkAction identifies a bulk decision applied to many requests.
type BulkAction string

const (
	BulkApprove BulkAction = "approve"
	BulkReject  BulkAction = "reject"
)

// BulkResult is the per-request outcome of a bulk status update.
type BulkResult struct {
	RequestID string
	Request   *models.AdoptionRequest
	Err       error
}

// BulkUpdateStatus applies a decision to each request independently. A
// failure on one request never aborts the rest; callers receive one
// result per id.
func (s *AdoptionService) BulkUpdateStatus(ctx context.Context, actorID, actorRole string, requestIDs []string, action BulkAction, response string) []BulkResult {
	results := make([]BulkResult, 0, len(requestIDs))

	for _, id := range requestIDs {
		var req *models.AdoptionRequest
		var err error

		switch action {
		case BulkApprove:
			req, err = s.ApproveRequest(ctx, id, actorID, actorRole, response)
		case BulkReject:
			req, err = s.RejectRequest(ctx, id, actorID, actorRole, response)
		default:
			err = models.NewValidationError("Unknown bulk action")
		}

		results = append(results, BulkResult{RequestID: id, Request: req, Err: err})
	}

	return results
}

// domainErr passes through business errors and hides everything else.
func (s *AdoptionService) domainErr(err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrForbidden):
		return err
	case errors.Is(err, models.ErrConflict):
		// The partial unique index fired before the pending check could
		// see the sibling request.
		return models.NewValidationError("You already have a pending request for this pet")
	default:
		return models.ErrInternalServer
	}
}

// notify dispatches an email without blocking the calling operation.
// Delivery failure is logged and never surfaced.
func (s *AdoptionService) notify(to string, msg emailMessage) {
	if to == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.email.Send(ctx, to, msg.Subject, msg.HTMLBody, msg.TextBody); err != nil {
			s.logger.Error("failed to send adoption notification",
				slog.String("subject", msg.Subject),
				slog.Any("error", err))
		}
	}()
}
