package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carinotj19/ShelterSync/internal/database"
	"github.com/carinotj19/ShelterSync/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const petColumns = `p.id, p.name, p.breed, p.age, p.health_notes, p.image_url, p.location,
		p.shelter_id, p.status, p.adopted_by, p.adopted_at, p.featured,
		p.vaccinated, p.spayed_neutered, p.house_trained, p.good_with_kids, p.good_with_pets,
		p.energy, p.size, p.created_at, p.updated_at,
		s.name, s.email, COALESCE(s.location, '')`

type PetRepository struct {
	db *database.DB
}

func NewPetRepository(db *database.DB) *PetRepository {
	return &PetRepository{db: db}
}

func scanPetRow(scanner rowScanner) (*models.Pet, error) {
	var pet models.Pet
	var breed, healthNotes, imageURL, location *string
	var age *int
	shelter := models.UserSummary{}

	err := scanner.Scan(
		&pet.ID, &pet.Name, &breed, &age, &healthNotes, &imageURL, &location,
		&pet.ShelterID, &pet.Status, &pet.AdoptedBy, &pet.AdoptedAt, &pet.Featured,
		&pet.Vaccinated, &pet.SpayedNeutered, &pet.HouseTrained, &pet.GoodWithKids, &pet.GoodWithPets,
		&pet.Energy, &pet.Size, &pet.CreatedAt, &pet.UpdatedAt,
		&shelter.Name, &shelter.Email, &shelter.Location,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if breed != nil {
		pet.Breed = *breed
	}
	if age != nil {
		pet.Age = *age
	}
	if healthNotes != nil {
		pet.HealthNotes = *healthNotes
	}
	if imageURL != nil {
		pet.ImageURL = *imageURL
	}
	if location != nil {
		pet.Location = *location
	}
	shelter.ID = pet.ShelterID
	pet.Shelter = &shelter

	return &pet, nil
}

func scanPetRows(rows pgx.Rows) ([]*models.Pet, error) {
	defer rows.Close()

	pets := make([]*models.Pet, 0)

	for rows.Next() {
		pet, err := scanPetRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pet: %w", err)
		}
		pets = append(pets, pet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return pets, nil
}

func (r *PetRepository) GetByID(ctx context.Context, id string) (*models.Pet, error) {
	query := `SELECT ` + petColumns + `
		FROM pets p JOIN users s ON s.id = p.shelter_id
		WHERE p.id = $1`

	return scanPetRow(r.db.Querier(ctx).QueryRow(ctx, query, id))
}

func (r *PetRepository) Create(ctx context.Context, pet *models.Pet) (*models.Pet, error) {
	pet.ID = uuid.New().String()

	now := time.Now()
	pet.CreatedAt = now
	pet.UpdatedAt = now

	if pet.Status == "" {
		pet.Status = models.PetStatusAvailable
	}
	if pet.Energy == "" {
		pet.Energy = "medium"
	}
	if pet.Size == "" {
		pet.Size = "medium"
	}

	query := `
		INSERT INTO pets (id, name, breed, age, health_notes, image_url, location, shelter_id, status,
			featured, vaccinated, spayed_neutered, house_trained, good_with_kids, good_with_pets,
			energy, size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.Querier(ctx).Exec(ctx, query,
		pet.ID, pet.Name, nullable(pet.Breed), nullableInt(pet.Age), nullable(pet.HealthNotes),
		nullable(pet.ImageURL), nullable(pet.Location), pet.ShelterID, pet.Status,
		pet.Featured, pet.Vaccinated, pet.SpayedNeutered, pet.HouseTrained, pet.GoodWithKids, pet.GoodWithPets,
		pet.Energy, pet.Size, pet.CreatedAt, pet.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.GetByID(ctx, pet.ID)
}

// Update writes the catalog fields only. Status and adoption columns are
// owned by the workflow engine and MarkAdopted, so a stale catalog edit
// cannot clobber a concurrent status transition.
func (r *PetRepository) Update(ctx context.Context, id string, pet *models.Pet) (*models.Pet, error) {
	pet.UpdatedAt = time.Now()

	query := `
		UPDATE pets
		SET name = $1, breed = $2, age = $3, health_notes = $4, image_url = $5, location = $6,
			featured = $7, vaccinated = $8, spayed_neutered = $9, house_trained = $10,
			good_with_kids = $11, good_with_pets = $12, energy = $13, size = $14, updated_at = $15
		WHERE id = $16`

	result, err := r.db.Querier(ctx).Exec(ctx, query,
		pet.Name, nullable(pet.Breed), nullableInt(pet.Age), nullable(pet.HealthNotes),
		nullable(pet.ImageURL), nullable(pet.Location), pet.Featured,
		pet.Vaccinated, pet.SpayedNeutered, pet.HouseTrained,
		pet.GoodWithKids, pet.GoodWithPets, pet.Energy, pet.Size, pet.UpdatedAt, id,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// MarkAdopted completes a walk-in adoption. The status predicate makes
// the write a no-op when an approval already adopted the pet; that case
// surfaces as ErrConflict.
func (r *PetRepository) MarkAdopted(ctx context.Context, id, adopterID string, at time.Time) (*models.Pet, error) {
	query := `
		UPDATE pets
		SET status = $1, adopted_by = $2, adopted_at = $3, updated_at = $3
		WHERE id = $4 AND status <> $1`

	result, err := r.db.Querier(ctx).Exec(ctx, query, models.PetStatusAdopted, adopterID, at, id)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, models.ErrConflict
	}

	return r.GetByID(ctx, id)
}

func (r *PetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteByShelter removes every pet owned by a shelter. Used by the
// admin cascade when a shelter account is deleted.
func (r *PetRepository) DeleteByShelter(ctx context.Context, shelterID string) (int64, error) {
	result, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM pets WHERE shelter_id = $1`, shelterID)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

// List returns pets matching the filter, featured listings first, newest
// next, with a total count for pagination.
func (r *PetRepository) List(ctx context.Context, filter models.PetFilter, limit, offset int) ([]*models.Pet, int, error) {
	where, args := buildPetFilter(filter)

	countQuery := `SELECT COUNT(*) FROM pets p` + where
	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.MapPostgresError(err)
	}

	query := `SELECT ` + petColumns + `
		FROM pets p JOIN users s ON s.id = p.shelter_id` + where +
		fmt.Sprintf(` ORDER BY p.featured DESC, p.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query pets: %w", err)
	}

	pets, err := scanPetRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return pets, total, nil
}

func (r *PetRepository) ListByShelter(ctx context.Context, shelterID, status string, limit, offset int) ([]*models.Pet, int, error) {
	where := ` WHERE p.shelter_id = $1`
	args := []any{shelterID}

	if status != "" {
		where += ` AND p.status = $2`
		args = append(args, status)
	}

	countQuery := `SELECT COUNT(*) FROM pets p` + where
	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.MapPostgresError(err)
	}

	query := `SELECT ` + petColumns + `
		FROM pets p JOIN users s ON s.id = p.shelter_id` + where +
		fmt.Sprintf(` ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query shelter pets: %w", err)
	}

	pets, err := scanPetRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return pets, total, nil
}

func (r *PetRepository) ListFeatured(ctx context.Context, limit int) ([]*models.Pet, error) {
	query := `SELECT ` + petColumns + `
		FROM pets p JOIN users s ON s.id = p.shelter_id
		WHERE p.status = 'available' AND p.featured
		ORDER BY p.created_at DESC LIMIT $1`

	rows, err := r.db.Querier(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query featured pets: %w", err)
	}

	return scanPetRows(rows)
}

func (r *PetRepository) Statistics(ctx context.Context, shelterID string) (*models.PetStatistics, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'available'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'adopted'),
			COUNT(*) FILTER (WHERE featured)
		FROM pets`
	args := []any{}

	if shelterID != "" {
		query += ` WHERE shelter_id = $1`
		args = append(args, shelterID)
	}

	var stats models.PetStatistics
	err := r.db.Querier(ctx).QueryRow(ctx, query, args...).Scan(
		&stats.Total, &stats.Available, &stats.Pending, &stats.Adopted, &stats.Featured,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &stats, nil
}

// buildPetFilter assembles the WHERE clause for catalog listings. Text
// filters match case-insensitively; the free-text search spans name,
// breed, location, and health notes.
func buildPetFilter(filter models.PetFilter) (string, []any) {
	conditions := []string{}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conditions = append(conditions, "p.status = "+arg(filter.Status))
	}
	if filter.Breed != "" {
		conditions = append(conditions, "p.breed ILIKE "+arg("%"+filter.Breed+"%"))
	}
	if filter.Age != nil {
		conditions = append(conditions, "p.age = "+arg(*filter.Age))
	}
	if filter.Location != "" {
		conditions = append(conditions, "p.location ILIKE "+arg("%"+filter.Location+"%"))
	}
	if filter.Size != "" {
		conditions = append(conditions, "p.size = "+arg(filter.Size))
	}
	if filter.Energy != "" {
		conditions = append(conditions, "p.energy = "+arg(filter.Energy))
	}
	if filter.Vaccinated != nil {
		conditions = append(conditions, "p.vaccinated = "+arg(*filter.Vaccinated))
	}
	if filter.SpayedNeutered != nil {
		conditions = append(conditions, "p.spayed_neutered = "+arg(*filter.SpayedNeutered))
	}
	if filter.GoodWithKids != nil {
		conditions = append(conditions, "p.good_with_kids = "+arg(*filter.GoodWithKids))
	}
	if filter.GoodWithPets != nil {
		conditions = append(conditions, "p.good_with_pets = "+arg(*filter.GoodWithPets))
	}
	if filter.Search != "" {
		pattern := arg("%" + filter.Search + "%")
		conditions = append(conditions, fmt.Sprintf(
			"(p.name ILIKE %s OR p.breed ILIKE %s OR p.location ILIKE %s OR p.health_notes ILIKE %s)",
			pattern, pattern, pattern, pattern))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt(i int) *int {
	if i == 0 {
		return nil
	}
	return &i
}
