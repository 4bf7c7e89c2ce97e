package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/carinotj19/ShelterSync/internal/database"
	"github.com/carinotj19/ShelterSync/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const requestColumns = `r.id, r.pet_id, r.adopter_id, r.shelter_id, r.message, r.status,
		r.shelter_response, r.responded_at, r.responded_by, r.priority,
		COALESCE(r.experience, ''), COALESCE(r.living_space, ''), r.has_yard, r.has_other_pets,
		r.has_children, COALESCE(r.work_schedule, ''), r.created_at, r.updated_at,
		p.name, COALESCE(p.breed, ''), COALESCE(p.age, 0), COALESCE(p.image_url, ''), p.status,
		a.name, a.email, COALESCE(a.location, ''),
		s.name, s.email, COALESCE(s.location, '')`

const requestJoins = `
		FROM adoption_requests r
		JOIN pets p ON p.id = r.pet_id
		JOIN users a ON a.id = r.adopter_id
		JOIN users s ON s.id = r.shelter_id`

// AdoptionRepository is the persistent store behind the adoption workflow
// engine. It owns the adoption_requests and adoption_request_notes tables
// plus the narrow slice of pets the workflow drives (status, adopted_by,
// adopted_at).
type AdoptionRepository struct {
	db *database.DB
}

func NewAdoptionRepository(db *database.DB) *AdoptionRepository {
	return &AdoptionRepository{db: db}
}

// WithinTx runs fn in one transaction; all repository calls made with
// the callback's context join it.
func (r *AdoptionRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithinTx(ctx, fn)
}

func scanRequestRow(scanner rowScanner) (*models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	pet := models.PetSummary{}
	adopter := models.UserSummary{}
	shelter := models.UserSummary{}

	err := scanner.Scan(
		&req.ID, &req.PetID, &req.AdopterID, &req.ShelterID, &req.Message, &req.Status,
		&req.ShelterResponse, &req.RespondedAt, &req.RespondedBy, &req.Priority,
		&req.AdopterInfo.Experience, &req.AdopterInfo.LivingSpace, &req.AdopterInfo.HasYard,
		&req.AdopterInfo.HasOtherPets, &req.AdopterInfo.HasChildren, &req.AdopterInfo.WorkSchedule,
		&req.CreatedAt, &req.UpdatedAt,
		&pet.Name, &pet.Breed, &pet.Age, &pet.ImageURL, &pet.Status,
		&adopter.Name, &adopter.Email, &adopter.Location,
		&shelter.Name, &shelter.Email, &shelter.Location,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	pet.ID = req.PetID
	adopter.ID = req.AdopterID
	shelter.ID = req.ShelterID
	req.Pet = &pet
	req.Adopter = &adopter
	req.Shelter = &shelter

	return &req, nil
}

func scanRequestRows(rows pgx.Rows) ([]*models.AdoptionRequest, error) {
	defer rows.Close()

	requests := make([]*models.AdoptionRequest, 0)

	for rows.Next() {
		req, err := scanRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adoption request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return requests, nil
}

// GetRequest returns a request populated with pet/adopter/shelter
// summaries and its notes.
func (r *AdoptionRepository) GetRequest(ctx context.Context, id string) (*models.AdoptionRequest, error) {
	query := `SELECT ` + requestColumns + requestJoins + ` WHERE r.id = $1`

	req, err := scanRequestRow(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	notes, err := r.listNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Notes = notes

	return req, nil
}

// GetRequestForUpdate locks the request row for the remainder of the
// enclosing transaction. No summaries are populated.
func (r *AdoptionRepository) GetRequestForUpdate(ctx context.Context, id string) (*models.AdoptionRequest, error) {
	query := `
		SELECT id, pet_id, adopter_id, shelter_id, message, status,
			shelter_response, responded_at, responded_by, priority, created_at, updated_at
		FROM adoption_requests WHERE id = $1 FOR UPDATE`

	var req models.AdoptionRequest
	err := r.db.Querier(ctx).QueryRow(ctx, query, id).Scan(
		&req.ID, &req.PetID, &req.AdopterID, &req.ShelterID, &req.Message, &req.Status,
		&req.ShelterResponse, &req.RespondedAt, &req.RespondedBy, &req.Priority,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &req, nil
}

func (r *AdoptionRepository) InsertRequest(ctx context.Context, req *models.AdoptionRequest) error {
	req.ID = uuid.New().String()

	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	query := `
		INSERT INTO adoption_requests (id, pet_id, adopter_id, shelter_id, message, status, priority,
			experience, living_space, has_yard, has_other_pets, has_children, work_schedule,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Querier(ctx).Exec(ctx, query,
		req.ID, req.PetID, req.AdopterID, req.ShelterID, req.Message, req.Status, req.Priority,
		nullable(req.AdopterInfo.Experience), nullable(req.AdopterInfo.LivingSpace),
		req.AdopterInfo.HasYard, req.AdopterInfo.HasOtherPets, req.AdopterInfo.HasChildren,
		nullable(req.AdopterInfo.WorkSchedule), req.CreatedAt, req.UpdatedAt,
	)
	return database.MapPostgresError(err)
}

// UpdateRequestStatus writes the decision fields of a request.
func (r *AdoptionRepository) UpdateRequestStatus(ctx context.Context, req *models.AdoptionRequest) error {
	req.UpdatedAt = time.Now()

	query := `
		UPDATE adoption_requests
		SET status = $1, shelter_response = $2, responded_at = $3, responded_by = $4, updated_at = $5
		WHERE id = $6`

	result, err := r.db.Querier(ctx).Exec(ctx, query,
		req.Status, req.ShelterResponse, req.RespondedAt, req.RespondedBy, req.UpdatedAt, req.ID,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *AdoptionRepository) HasPendingRequest(ctx context.Context, petID, adopterID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM adoption_requests
			WHERE pet_id = $1 AND adopter_id = $2 AND status = 'pending'
		)`

	var exists bool
	if err := r.db.Querier(ctx).QueryRow(ctx, query, petID, adopterID).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}

func (r *AdoptionRepository) CountPendingForPet(ctx context.Context, petID string) (int, error) {
	query := `SELECT COUNT(*) FROM adoption_requests WHERE pet_id = $1 AND status = 'pending'`

	var count int
	if err := r.db.Querier(ctx).QueryRow(ctx, query, petID).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// RejectPendingSiblings transitions every other pending request on the
// pet to rejected with a system-authored response. Runs inside the
// approval transaction.
func (r *AdoptionRepository) RejectPendingSiblings(ctx context.Context, petID, excludeRequestID, responderID string, respondedAt time.Time) (int64, error) {
	query := `
		UPDATE adoption_requests
		SET status = 'rejected', shelter_response = $1, responded_at = $2, responded_by = $3, updated_at = $2
		WHERE pet_id = $4 AND status = 'pending' AND id <> $5`

	result, err := r.db.Querier(ctx).Exec(ctx, query,
		models.SiblingRejectionResponse, respondedAt, responderID, petID, excludeRequestID,
	)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

func (r *AdoptionRepository) ListForAdopter(ctx context.Context, adopterID, status string, limit, offset int) ([]*models.AdoptionRequest, int, error) {
	where := ` WHERE r.adopter_id = $1`
	args := []any{adopterID}

	if status != "" {
		where += ` AND r.status = $2`
		args = append(args, status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM adoption_requests r` + where
	if err := r.db.Querier(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.MapPostgresError(err)
	}

	query := `SELECT ` + requestColumns + requestJoins + where +
		fmt.Sprintf(` ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query adopter requests: %w", err)
	}

	requests, err := scanRequestRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// ListForShelter orders by priority then recency, matching how shelters
// triage their queue.
func (r *AdoptionRepository) ListForShelter(ctx context.Context, shelterID, status string, limit, offset int) ([]*models.AdoptionRequest, int, error) {
	where := ` WHERE r.shelter_id = $1`
	args := []any{shelterID}

	if status != "" {
		where += ` AND r.status = $2`
		args = append(args, status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM adoption_requests r` + where
	if err := r.db.Querier(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.MapPostgresError(err)
	}

	query := `SELECT ` + requestColumns + requestJoins + where + fmt.Sprintf(`
		ORDER BY CASE r.priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC,
			r.created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query shelter requests: %w", err)
	}

	requests, err := scanRequestRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *AdoptionRepository) AppendNote(ctx context.Context, requestID string, note *models.RequestNote) error {
	note.ID = uuid.New().String()

	query := `
		INSERT INTO adoption_request_notes (id, request_id, content, added_by, added_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Querier(ctx).Exec(ctx, query, note.ID, requestID, note.Content, note.AddedBy, note.AddedAt)
	return database.MapPostgresError(err)
}

func (r *AdoptionRepository) listNotes(ctx context.Context, requestID string) ([]models.RequestNote, error) {
	query := `
		SELECT n.id, n.content, n.added_by, n.added_at, u.name
		FROM adoption_request_notes n
		JOIN users u ON u.id = n.added_by
		WHERE n.request_id = $1
		ORDER BY n.added_at ASC`

	rows, err := r.db.Querier(ctx).Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := make([]models.RequestNote, 0)
	for rows.Next() {
		var note models.RequestNote
		if err := rows.Scan(&note.ID, &note.Content, &note.AddedBy, &note.AddedAt, &note.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notes, nil
}

func (r *AdoptionRepository) Statistics(ctx context.Context, shelterID string) (*models.AdoptionStatistics, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'withdrawn'),
			AVG(EXTRACT(EPOCH FROM (responded_at - created_at)) / 3600.0)
				FILTER (WHERE responded_at IS NOT NULL)
		FROM adoption_requests`
	args := []any{}

	if shelterID != "" {
		query += ` WHERE shelter_id = $1`
		args = append(args, shelterID)
	}

	var stats models.AdoptionStatistics
	err := r.db.Querier(ctx).QueryRow(ctx, query, args...).Scan(
		&stats.Total, &stats.Pending, &stats.Approved, &stats.Rejected, &stats.Withdrawn,
		&stats.AvgResponseTimeHours,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &stats, nil
}

// DeleteByAdopter removes every request created by an adopter. Used by
// the admin cascade when an account is deleted.
func (r *AdoptionRepository) DeleteByAdopter(ctx context.Context, adopterID string) (int64, error) {
	result, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM adoption_requests WHERE adopter_id = $1`, adopterID)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

// GetPetForUpdate locks the pet row for the remainder of the enclosing
// transaction, serializing concurrent workflow operations on the pet.
func (r *AdoptionRepository) GetPetForUpdate(ctx context.Context, petID string) (*models.Pet, error) {
	query := `
		SELECT id, name, shelter_id, status, adopted_by, adopted_at
		FROM pets WHERE id = $1 FOR UPDATE`

	var pet models.Pet
	err := r.db.Querier(ctx).QueryRow(ctx, query, petID).Scan(
		&pet.ID, &pet.Name, &pet.ShelterID, &pet.Status, &pet.AdoptedBy, &pet.AdoptedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &pet, nil
}

// SetPetStatus transitions a pet's status with a compare-and-swap on the
// current status. Returns ErrNotFound when the pet is missing or no
// longer in the expected state.
func (r *AdoptionRepository) SetPetStatus(ctx context.Context, petID, from, to string) error {
	query := `UPDATE pets SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	result, err := r.db.Querier(ctx).Exec(ctx, query, to, time.Now(), petID, from)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkPetAdopted records the adoption atomically: status, adopter, and
// timestamp move together.
func (r *AdoptionRepository) MarkPetAdopted(ctx context.Context, petID, adopterID string, at time.Time) error {
	query := `
		UPDATE pets
		SET status = 'adopted', adopted_by = $1, adopted_at = $2, updated_at = $2
		WHERE id = $3`

	result, err := r.db.Querier(ctx).Exec(ctx, query, adopterID, at, petID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
