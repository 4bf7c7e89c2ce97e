package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputePriority_High(t *testing.T) {
	info := AdopterInfo{
		Experience:  strings.Repeat("x", 150),
		LivingSpace: "house",
		HasYard:     true,
	}

	assert.Equal(t, PriorityHigh, ComputePriority(info))
}

func TestComputePriority_TwoSignals(t *testing.T) {
	info := AdopterInfo{
		LivingSpace: "farm",
		HasYard:     true,
	}

	assert.Equal(t, PriorityHigh, ComputePriority(info))
}

func TestComputePriority_Medium(t *testing.T) {
	info := AdopterInfo{
		LivingSpace: "apartment",
		HasYard:     true,
	}

	assert.Equal(t, PriorityMedium, ComputePriority(info))
}

func TestComputePriority_Low(t *testing.T) {
	info := AdopterInfo{
		Experience:  "short",
		LivingSpace: "apartment",
	}

	assert.Equal(t, PriorityLow, ComputePriority(info))
}

func TestComputePriority_ExperienceExactly100CharsDoesNotCount(t *testing.T) {
	info := AdopterInfo{
		Experience: strings.Repeat("x", 100),
	}

	assert.Equal(t, PriorityLow, ComputePriority(info))
}

func TestAdoptionRequest_CanBeModified(t *testing.T) {
	req := &AdoptionRequest{Status: RequestStatusPending}
	assert.True(t, req.CanBeModified())

	for _, status := range []string{RequestStatusApproved, RequestStatusRejected, RequestStatusWithdrawn} {
		req.Status = status
		assert.False(t, req.CanBeModified(), status)
	}
}

func TestAdoptionRequest_ResponseTimeHours(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	responded := created.Add(26 * time.Hour)

	req := &AdoptionRequest{CreatedAt: created}
	assert.Nil(t, req.ResponseTimeHours())

	req.RespondedAt = &responded
	hours := req.ResponseTimeHours()
	assert.NotNil(t, hours)
	assert.Equal(t, 26, *hours)
}

func TestAdoptionRequest_AccessBy(t *testing.T) {
	req := &AdoptionRequest{
		AdopterID: "adopter-1",
		ShelterID: "shelter-1",
	}

	access := req.AccessBy("adopter-1", RoleAdopter)
	assert.True(t, access.IsAdopter)
	assert.False(t, access.IsShelter)
	assert.True(t, access.CanView())

	access = req.AccessBy("shelter-1", RoleShelter)
	assert.True(t, access.IsShelter)
	assert.True(t, access.CanView())

	access = req.AccessBy("someone-else", RoleAdmin)
	assert.True(t, access.IsAdmin)
	assert.True(t, access.CanView())

	access = req.AccessBy("someone-else", RoleAdopter)
	assert.False(t, access.CanView())
}

func TestValidationError_UnwrapsToBadRequest(t *testing.T) {
	err := NewValidationError("Pet is not available for adoption")

	assert.EqualError(t, err, "Pet is not available for adoption")
	assert.ErrorIs(t, err, ErrBadRequest)
}
