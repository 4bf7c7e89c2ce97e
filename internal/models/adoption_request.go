package models

import (
	"time"
)

// Adoption request statuses. Pending is the sole non-terminal state.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusWithdrawn = "withdrawn"
)

// Request priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// SiblingRejectionResponse is the system-authored shelter response written
// to the other pending requests on a pet when one of them is approved.
const SiblingRejectionResponse = "Pet has been adopted by another applicant"

// AdopterInfo is the self-reported household suitability information
// supplied at request creation. It feeds the priority heuristic and is
// never updated afterwards.
type AdopterInfo struct {
	Experience   string `json:"experience,omitempty" validate:"omitempty,max=500"`
	LivingSpace  string `json:"livingSpace,omitempty" validate:"omitempty,oneof=apartment house farm other"`
	HasYard      bool   `json:"hasYard"`
	HasOtherPets bool   `json:"hasOtherPets"`
	HasChildren  bool   `json:"hasChildren"`
	WorkSchedule string `json:"workSchedule,omitempty" validate:"omitempty,max=200"`
}

// RequestNote is an append-only note on an adoption request.
type RequestNote struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AddedBy    string    `json:"addedBy"`
	AddedAt    time.Time `json:"addedAt"`
	AuthorName string    `json:"authorName,omitempty"`
}

type AdoptionRequest struct {
	ID              string        `json:"id"`
	PetID           string        `json:"petId"`
	AdopterID       string        `json:"adopterId"`
	ShelterID       string        `json:"shelterId"` // denormalized from pet.shelter at creation
	Message         string        `json:"message"`
	Status          string        `json:"status"`
	ShelterResponse *string       `json:"shelterResponse,omitempty"`
	RespondedAt     *time.Time    `json:"respondedAt,omitempty"`
	RespondedBy     *string       `json:"respondedBy,omitempty"`
	Priority        string        `json:"priority"`
	AdopterInfo     AdopterInfo   `json:"adopterInfo"`
	Notes           []RequestNote `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`

	// Populated on read paths
	Pet     *PetSummary  `json:"pet,omitempty"`
	Adopter *UserSummary `json:"adopter,omitempty"`
	Shelter *UserSummary `json:"shelter,omitempty"`
}

// PetSummary is the denormalized view of a pet embedded in adoption
// requests.
type PetSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Breed    string `json:"breed,omitempty"`
	Age      int    `json:"age,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Status   string `json:"status"`
}

// CanBeModified reports whether the request is still awaiting a decision.
// Once a request leaves pending, no further transition is accepted.
func (r *AdoptionRequest) CanBeModified() bool {
	return r.Status == RequestStatusPending
}

// ResponseTimeHours returns the whole hours between creation and the
// shelter's decision, or nil for unresponded requests.
func (r *AdoptionRequest) ResponseTimeHours() *int {
	if r.RespondedAt == nil {
		return nil
	}
	hours := int(r.RespondedAt.Sub(r.CreatedAt).Hours())
	return &hours
}

// AgeInDays returns how long the request has been open.
func (r *AdoptionRequest) AgeInDays(now time.Time) int {
	return int(now.Sub(r.CreatedAt).Hours() / 24)
}

// RequestAccess describes the caller's relationship to a request.
type RequestAccess struct {
	IsAdopter bool
	IsShelter bool
	IsAdmin   bool
}

// CanView reports whether the caller may see the request at all.
func (a RequestAccess) CanView() bool {
	return a.IsAdopter || a.IsShelter || a.IsAdmin
}

// AccessBy centralizes the authorization predicate used by every
// operation that reads or mutates a request.
func (r *AdoptionRequest) AccessBy(userID, role string) RequestAccess {
	return RequestAccess{
		IsAdopter: r.AdopterID == userID,
		IsShelter: r.ShelterID == userID,
		IsAdmin:   role == RoleAdmin,
	}
}

// ComputePriority scores the adopter's household information at request
// creation: a point each for a substantial experience description, a
// yard, and house or farm living space. Two or more points rank high,
// one ranks medium, none ranks low.
func ComputePriority(info AdopterInfo) string {
	score := 0
	if len(info.Experience) > 100 {
		score++
	}
	if info.HasYard {
		score++
	}
	if info.LivingSpace == "house" || info.LivingSpace == "farm" {
		score++
	}

	switch {
	case score >= 2:
		return PriorityHigh
	case score == 1:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// AdoptionStatistics aggregates request counts and mean response latency,
// optionally scoped to one shelter.
type AdoptionStatistics struct {
	Total                int      `json:"total"`
	Pending              int      `json:"pending"`
	Approved             int      `json:"approved"`
	Rejected             int      `json:"rejected"`
	Withdrawn            int      `json:"withdrawn"`
	AvgResponseTimeHours *float64 `json:"avgResponseTimeHours,omitempty"`
}
