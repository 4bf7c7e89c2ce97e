package integration

import (
	"context"
	"fmt"

	"github.com/carinotj19/ShelterSync/internal/models"
	pkgauth "github.com/carinotj19/ShelterSync/pkg/auth"
)

// TestPassword satisfies the password policy and is shared by every
// seeded account.
const TestPassword = "Str0ng!Passw0rd"

// SeedUser inserts a user with a real bcrypt hash.
func (db *TestDB) SeedUser(ctx context.Context, email, name, role string) (*models.User, error) {
	hash, err := pkgauth.HashPassword(TestPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return db.Users.Create(ctx, &models.User{
		Email:         email,
		PasswordHash:  hash,
		Name:          name,
		Role:          role,
		EmailVerified: true,
	})
}

// SeedPet inserts an available pet owned by the given shelter.
func (db *TestDB) SeedPet(ctx context.Context, shelterID, name string) (*models.Pet, error) {
	return db.Pets.Create(ctx, &models.Pet{
		Name:      name,
		Breed:     "Labrador",
		Age:       3,
		ShelterID: shelterID,
		Status:    models.PetStatusAvailable,
		Energy:    "medium",
		Size:      "large",
	})
}

// adoptionMessage is long enough to pass the request message check.
const adoptionMessage = "We have a fenced yard and plenty of time for walks and training."
