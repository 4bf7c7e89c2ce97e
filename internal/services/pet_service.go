package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/carinotj19/ShelterSync/internal/models"
)

// PetRepository defines the interface for pet catalog operations
type PetRepository interface {
	GetByID(ctx context.Context, id string) (*models.Pet, error)
	Create(ctx context.Context, pet *models.Pet) (*models.Pet, error)
	Update(ctx context.Context, id string, pet *models.Pet) (*models.Pet, error)
	MarkAdopted(ctx context.Context, id, adopterID string, at time.Time) (*models.Pet, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.PetFilter, limit, offset int) ([]*models.Pet, int, error)
	ListByShelter(ctx context.Context, shelterID, status string, limit, offset int) ([]*models.Pet, int, error)
	ListFeatured(ctx context.Context, limit int) ([]*models.Pet, error)
	Statistics(ctx context.Context, shelterID string) (*models.PetStatistics, error)
}

// PendingRequestChecker reports open adoption interest on a pet.
type PendingRequestChecker interface {
	CountPendingForPet(ctx context.Context, petID string) (int, error)
}

// PetService handles pet catalog business logic
type PetService struct {
	repo     PetRepository
	requests PendingRequestChecker
	logger   *slog.Logger
	now      func() time.Time
}

// NewPetService creates a new PetService
func NewPetService(repo PetRepository, requests PendingRequestChecker, logger *slog.Logger) *PetService {
	return &PetService{
		repo:     repo,
		requests: requests,
		logger:   logger,
		now:      time.Now,
	}
}

// CreatePetInput carries the shelter-supplied fields of a new listing.
type CreatePetInput struct {
	Name           string
	Breed          string
	Age            int
	HealthNotes    string
	ImageURL       string
	Location       string
	Vaccinated     bool
	SpayedNeutered bool
	HouseTrained   bool
	GoodWithKids   bool
	GoodWithPets   bool
	Energy         string
	Size           string
}

// UpdatePetInput carries optional updates; nil fields are untouched.
type UpdatePetInput struct {
	Name           *string
	Breed          *string
	Age            *int
	HealthNotes    *string
	ImageURL       *string
	Location       *string
	Vaccinated     *bool
	SpayedNeutered *bool
	HouseTrained   *bool
	GoodWithKids   *bool
	GoodWithPets   *bool
	Energy         *string
	Size           *string
}

// GetByID returns one pet with its shelter summary populated
func (s *PetService) GetByID(ctx context.Context, id string) (*models.Pet, error) {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get pet", slog.String("pet_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return pet, nil
}

// List returns a filtered page of the pet catalog
func (s *PetService) List(ctx context.Context, filter models.PetFilter, page, limit int) ([]*models.Pet, *models.Pagination, error) {
	offset := (page - 1) * limit

	pets, total, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		s.logger.Error("failed to list pets", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	return pets, models.NewPagination(page, limit, total), nil
}

// ListFeatured returns the featured pets shown on the landing page
func (s *PetService) ListFeatured(ctx context.Context, limit int) ([]*models.Pet, error) {
	pets, err := s.repo.ListFeatured(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list featured pets", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return pets, nil
}

// ListByShelter returns one shelter's listings
func (s *PetService) ListByShelter(ctx context.Context, shelterID, status string, page, limit int) ([]*models.Pet, *models.Pagination, error) {
	offset := (page - 1) * limit

	pets, total, err := s.repo.ListByShelter(ctx, shelterID, status, limit, offset)
	if err != nil {
		s.logger.Error("failed to list shelter pets", slog.String("shelter_id", shelterID), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	return pets, models.NewPagination(page, limit, total), nil
}

// Create adds a new available pet owned by the calling shelter
func (s *PetService) Create(ctx context.Context, shelterID string, input CreatePetInput) (*models.Pet, error) {
	pet := &models.Pet{
		Name:           input.Name,
		Breed:          input.Breed,
		Age:            input.Age,
		HealthNotes:    input.HealthNotes,
		ImageURL:       input.ImageURL,
		Location:       input.Location,
		ShelterID:      shelterID,
		Status:         models.PetStatusAvailable,
		Vaccinated:     input.Vaccinated,
		SpayedNeutered: input.SpayedNeutered,
		HouseTrained:   input.HouseTrained,
		GoodWithKids:   input.GoodWithKids,
		GoodWithPets:   input.GoodWithPets,
		Energy:         input.Energy,
		Size:           input.Size,
	}

	created, err := s.repo.Create(ctx, pet)
	if err != nil {
		s.logger.Error("failed to create pet", slog.String("shelter_id", shelterID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("pet created",
		slog.String("pet_id", created.ID),
		slog.String("shelter_id", shelterID))

	return created, nil
}

// Update modifies a listing. Only the owning shelter or an admin may
// update a pet.
func (s *PetService) Update(ctx context.Context, petID, actorID, actorRole string, input UpdatePetInput) (*models.Pet, error) {
	pet, err := s.ownedPet(ctx, petID, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	applyPetUpdate(pet, input)

	updated, err := s.repo.Update(ctx, petID, pet)
	if err != nil {
		s.logger.Error("failed to update pet", slog.String("pet_id", petID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("pet updated", slog.String("pet_id", petID))

	return updated, nil
}

// Delete removes a listing. Pets with pending adoption requests cannot
// be deleted until those requests are resolved.
func (s *PetService) Delete(ctx context.Context, petID, actorID, actorRole string) error {
	if _, err := s.ownedPet(ctx, petID, actorID, actorRole); err != nil {
		return err
	}

	pending, err := s.requests.CountPendingForPet(ctx, petID)
	if err != nil {
		s.logger.Error("failed to count pending requests", slog.String("pet_id", petID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if pending > 0 {
		return models.NewValidationError("Cannot delete a pet with pending adoption requests")
	}

	if err := s.repo.Delete(ctx, petID); err != nil {
		s.logger.Error("failed to delete pet", slog.String("pet_id", petID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("pet deleted", slog.String("pet_id", petID))
	return nil
}

// MarkAsAdopted records an adoption completed outside the request
// workflow, e.g. a walk-in adoption. An adopted pet always carries its
// adopter, so the adopter ID is mandatory.
func (s *PetService) MarkAsAdopted(ctx context.Context, petID, actorID, actorRole string, adopterID *string) (*models.Pet, error) {
	if adopterID == nil || *adopterID == "" {
		return nil, models.NewValidationError("Adopter ID is required to mark a pet as adopted")
	}

	pet, err := s.ownedPet(ctx, petID, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	if pet.Status == models.PetStatusAdopted {
		return nil, models.NewValidationError("Pet is already adopted")
	}

	// The conditional write in the repository keeps a racing approval
	// from being overwritten after the check above.
	updated, err := s.repo.MarkAdopted(ctx, petID, *adopterID, s.now())
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.NewValidationError("Pet is already adopted")
		}
		s.logger.Error("failed to mark pet adopted", slog.String("pet_id", petID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("pet marked adopted", slog.String("pet_id", petID))

	return updated, nil
}

// ToggleFeatured flips the landing-page feature flag. Admin only;
// enforced at the route layer and rechecked here.
func (s *PetService) ToggleFeatured(ctx context.Context, petID, actorRole string) (*models.Pet, error) {
	if actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	pet, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get pet", slog.String("pet_id", petID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	pet.Featured = !pet.Featured

	updated, err := s.repo.Update(ctx, petID, pet)
	if err != nil {
		s.logger.Error("failed to toggle featured flag", slog.String("pet_id", petID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("pet featured flag toggled",
		slog.String("pet_id", petID),
		slog.Bool("featured", updated.Featured))

	return updated, nil
}

// GetStatistics aggregates catalog counts, optionally for one shelter
func (s *PetService) GetStatistics(ctx context.Context, shelterID string) (*models.PetStatistics, error) {
	stats, err := s.repo.Statistics(ctx, shelterID)
	if err != nil {
		s.logger.Error("failed to get pet statistics", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return stats, nil
}

// ownedPet loads a pet and enforces shelter ownership or admin access.
func (s *PetService) ownedPet(ctx context.Context, petID, actorID, actorRole string) (*models.Pet, error) {
	pet, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get pet", slog.String("pet_id", petID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if pet.ShelterID != actorID && actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	return pet, nil
}

func applyPetUpdate(pet *models.Pet, input UpdatePetInput) {
	if input.Name != nil {
		pet.Name = *input.Name
	}
	if input.Breed != nil {
		pet.Breed = *input.Breed
	}
	if input.Age != nil {
		pet.Age = *input.Age
	}
	if input.HealthNotes != nil {
		pet.HealthNotes = *input.HealthNotes
	}
	if input.ImageURL != nil {
		pet.ImageURL = *input.ImageURL
	}
	if input.Location != nil {
		pet.Location = *input.Location
	}
	if input.Vaccinated != nil {
		pet.Vaccinated = *input.Vaccinated
	}
	if input.SpayedNeutered != nil {
		pet.SpayedNeutered = *input.SpayedNeutered
	}
	if input.HouseTrained != nil {
		pet.HouseTrained = *input.HouseTrained
	}
	if input.GoodWithKids != nil {
		pet.GoodWithKids = *input.GoodWithKids
	}
	if input.GoodWithPets != nil {
		pet.GoodWithPets = *input.GoodWithPets
	}
	if input.Energy != nil {
		pet.Energy = *input.Energy
	}
	if input.Size != nil {
		pet.Size = *input.Size
	}
}
