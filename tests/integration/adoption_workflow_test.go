package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carinotj19/ShelterSync/internal/models"
	"github.com/carinotj19/ShelterSync/internal/services"
)

var (
	testDB       *TestDB
	testSetupErr error
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	testDB, testSetupErr = SetupTestDatabase(ctx)

	code := m.Run()

	if testDB != nil {
		testDB.Teardown(ctx)
	}
	os.Exit(code)
}

// requireDB skips the test when no container runtime is available.
func requireDB(t *testing.T) *TestDB {
	t.Helper()
	if testSetupErr != nil {
		t.Skipf("skipping integration test: %v", testSetupErr)
	}
	t.Cleanup(func() {
		require.NoError(t, testDB.CleanupTables(context.Background()))
	})
	return testDB
}

func newAdoptionService(db *TestDB) (*services.AdoptionService, *services.MockEmailService) {
	email := &services.MockEmailService{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return services.NewAdoptionService(db.Adoptions, email, logger), email
}

// seedWorkflow inserts a shelter, two adopters and one available pet.
func seedWorkflow(t *testing.T, db *TestDB) (shelter, adopter1, adopter2 *models.User, pet *models.Pet) {
	t.Helper()
	ctx := context.Background()

	var err error
	shelter, err = db.SeedUser(ctx, "shelter@example.com", "Happy Paws", models.RoleShelter)
	require.NoError(t, err)
	adopter1, err = db.SeedUser(ctx, "alice@example.com", "Alice", models.RoleAdopter)
	require.NoError(t, err)
	adopter2, err = db.SeedUser(ctx, "bob@example.com", "Bob", models.RoleAdopter)
	require.NoError(t, err)
	pet, err = db.SeedPet(ctx, shelter.ID, "Rex")
	require.NoError(t, err)
	return shelter, adopter1, adopter2, pet
}

func TestAdoptionWorkflow_ApprovalAdoptsPetAndRejectsSiblings(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	svc, _ := newAdoptionService(db)

	shelter, adopter1, adopter2, pet := seedWorkflow(t, db)

	req1, err := svc.CreateRequest(ctx, pet.ID, adopter1.ID, services.CreateRequestInput{
		Message: adoptionMessage,
		AdopterInfo: models.AdopterInfo{
			LivingSpace: "house",
			HasYard:     true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req1.Status)

	// The first pending request reserves the pet.
	reserved, err := db.Pets.GetByID(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PetStatusPending, reserved.Status)

	req2, err := svc.CreateRequest(ctx, pet.ID, adopter2.ID, services.CreateRequestInput{
		Message: adoptionMessage,
	})
	require.NoError(t, err)

	approved, err := svc.ApproveRequest(ctx, req1.ID, shelter.ID, models.RoleShelter, "Welcome to the family!")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, approved.Status)
	require.NotNil(t, approved.RespondedAt)
	require.NotNil(t, approved.RespondedBy)
	assert.Equal(t, shelter.ID, *approved.RespondedBy)

	adopted, err := db.Pets.GetByID(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PetStatusAdopted, adopted.Status)
	require.NotNil(t, adopted.AdoptedBy)
	assert.Equal(t, adopter1.ID, *adopted.AdoptedBy)
	assert.NotNil(t, adopted.AdoptedAt)

	// The competing request was closed in the same transaction.
	sibling, err := db.Adoptions.GetRequest(ctx, req2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, sibling.Status)
	require.NotNil(t, sibling.ShelterResponse)
	assert.Equal(t, models.SiblingRejectionResponse, *sibling.ShelterResponse)
}

func TestAdoptionWorkflow_RejectionReleasesPet(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	svc, _ := newAdoptionService(db)

	shelter, adopter1, _, pet := seedWorkflow(t, db)

	req, err := svc.CreateRequest(ctx, pet.ID, adopter1.ID, services.CreateRequestInput{Message: adoptionMessage})
	require.NoError(t, err)

	rejected, err := svc.RejectRequest(ctx, req.ID, shelter.ID, models.RoleShelter, "Not a good match for Rex.")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status)

	released, err := db.Pets.GetByID(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PetStatusAvailable, released.Status)
}

func TestAdoptionWorkflow_WithdrawKeepsReservationWhileOthersPend(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	svc, _ := newAdoptionService(db)

	_, adopter1, adopter2, pet := seedWorkflow(t, db)

	req1, err := svc.CreateRequest(ctx, pet.ID, adopter1.ID, services.CreateRequestInput{Message: adoptionMessage})
	require.NoError(t, err)
	_, err = svc.CreateRequest(ctx, pet.ID, adopter2.ID, services.CreateRequestInput{Message: adoptionMessage})
	require.NoError(t, err)

	withdrawn, err := svc.WithdrawRequest(ctx, req1.ID, adopter1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusWithdrawn, withdrawn.Status)
	assert.Nil(t, withdrawn.RespondedAt, "withdrawal is not a shelter decision")

	// Bob's request still holds the reservation.
	current, err := db.Pets.GetByID(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PetStatusPending, current.Status)
}

func TestAdoptionWorkflow_DuplicatePendingBlockedByUniqueIndex(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	shelter, adopter1, _, pet := seedWorkflow(t, db)

	insert := func() error {
		return db.Adoptions.InsertRequest(ctx, &models.AdoptionRequest{
			PetID:     pet.ID,
			AdopterID: adopter1.ID,
			ShelterID: shelter.ID,
			Message:   adoptionMessage,
			Status:    models.RequestStatusPending,
			Priority:  models.PriorityMedium,
		})
	}

	require.NoError(t, insert())

	// The partial unique index rejects a second open request even when
	// the service-level check is bypassed.
	err := insert()
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAdoptionWorkflow_ShelterQueueOrdersByPriority(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	svc, _ := newAdoptionService(db)

	shelter, adopter1, adopter2, pet := seedWorkflow(t, db)

	// Low priority: no experience, apartment, no yard.
	lowReq, err := svc.CreateRequest(ctx, pet.ID, adopter1.ID, services.CreateRequestInput{
		Message:     adoptionMessage,
		AdopterInfo: models.AdopterInfo{LivingSpace: "apartment"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, lowReq.Priority)

	highReq, err := svc.CreateRequest(ctx, pet.ID, adopter2.ID, services.CreateRequestInput{
		Message: adoptionMessage,
		AdopterInfo: models.AdopterInfo{
			Experience:  "I have fostered dogs for over ten years and worked with rescue organizations on rehabilitation and training programs.",
			LivingSpace: "farm",
			HasYard:     true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, highReq.Priority)

	requests, pagination, err := svc.ListForShelter(ctx, shelter.ID, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, pagination.Total)
	require.Len(t, requests, 2)
	assert.Equal(t, highReq.ID, requests[0].ID, "high-priority requests surface first")
}

func TestPetRepository_CatalogUpdateKeepsAdoption(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	_, adopter1, _, pet := seedWorkflow(t, db)

	adopted, err := db.Pets.MarkAdopted(ctx, pet.ID, adopter1.ID, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, models.PetStatusAdopted, adopted.Status)

	// A catalog edit based on a stale read must not touch the adoption
	// columns.
	stale := *pet
	stale.Name = "Rexy"
	updated, err := db.Pets.Update(ctx, pet.ID, &stale)
	require.NoError(t, err)
	assert.Equal(t, "Rexy", updated.Name)
	assert.Equal(t, models.PetStatusAdopted, updated.Status)
	require.NotNil(t, updated.AdoptedBy)
	assert.Equal(t, adopter1.ID, *updated.AdoptedBy)
	assert.NotNil(t, updated.AdoptedAt)

	// A second adoption attempt loses the race and reports the conflict.
	_, err = db.Pets.MarkAdopted(ctx, pet.ID, adopter1.ID, time.Now().UTC())
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestUserRepository_ExpiredCredentialCleanup(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	user, err := db.SeedUser(ctx, "stale@example.com", "Stale", models.RoleAdopter)
	require.NoError(t, err)

	_, err = db.Pool.Exec(ctx, `
		UPDATE users
		SET password_reset_token = 'deadbeef',
		    password_reset_expires = NOW() - INTERVAL '1 hour',
		    login_attempts = 5,
		    lock_until = NOW() - INTERVAL '1 minute'
		WHERE id = $1`, user.ID)
	require.NoError(t, err)

	cleared, err := db.Users.ClearExpiredResetTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	unlocked, err := db.Users.ClearExpiredLocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unlocked)

	fresh, err := db.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, fresh.PasswordResetToken)
	assert.Nil(t, fresh.LockUntil)
	assert.Zero(t, fresh.LoginAttempts)
}
