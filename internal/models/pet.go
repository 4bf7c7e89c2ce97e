package models

import (
	"time"
)

// Pet statuses
const (
	PetStatusAvailable = "available"
	PetStatusPending   = "pending"
	PetStatusAdopted   = "adopted"
)

type Pet struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Breed          string     `json:"breed,omitempty"`
	Age            int        `json:"age,omitempty"`
	HealthNotes    string     `json:"healthNotes,omitempty"`
	ImageURL       string     `json:"imageUrl,omitempty"` // opaque blob reference, never inspected
	Location       string     `json:"location,omitempty"`
	ShelterID      string     `json:"shelterId"`
	Status         string     `json:"status"` // "available", "pending", "adopted"
	AdoptedBy      *string    `json:"adoptedBy,omitempty"`
	AdoptedAt      *time.Time `json:"adoptedAt,omitempty"`
	Featured       bool       `json:"featured"`
	Vaccinated     bool       `json:"vaccinated"`
	SpayedNeutered bool       `json:"spayedNeutered"`
	HouseTrained   bool       `json:"houseTrained"`
	GoodWithKids   bool       `json:"goodWithKids"`
	GoodWithPets   bool       `json:"goodWithPets"`
	Energy         string     `json:"energy,omitempty"` // "low", "medium", "high"
	Size           string     `json:"size,omitempty"`   // "small", "medium", "large", "extra-large"
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`

	// Populated on read paths
	Shelter *UserSummary `json:"shelterInfo,omitempty"`
}

// CanBeAdopted reports whether new adoption requests may target this pet.
func (p *Pet) CanBeAdopted() bool {
	return p.Status == PetStatusAvailable
}

// AgeGroup buckets the pet's age for display.
func (p *Pet) AgeGroup() string {
	switch {
	case p.Age <= 0:
		return "unknown"
	case p.Age < 3:
		return "young"
	case p.Age < 7:
		return "adult"
	default:
		return "senior"
	}
}

// PetFilter narrows pet catalog listings.
type PetFilter struct {
	Breed          string
	Age            *int
	Location       string
	Size           string
	Energy         string
	Vaccinated     *bool
	SpayedNeutered *bool
	GoodWithKids   *bool
	GoodWithPets   *bool
	Status         string
	Search         string
}

// PetStatistics aggregates pet counts, optionally per shelter.
type PetStatistics struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Pending   int `json:"pending"`
	Adopted   int `json:"adopted"`
	Featured  int `json:"featured"`
}
