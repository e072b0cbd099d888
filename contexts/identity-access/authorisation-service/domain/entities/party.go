package entities

import "time"

// PartyType distinguishes organisations (identified by ABN) from individuals.
type PartyType string

const (
	PartyTypeABN        PartyType = "ABN"
	PartyTypeIndividual PartyType = "INDIVIDUAL"
)

// IsValid reports whether the party type is one of the known values.
func (t PartyType) IsValid() bool {
	return t == PartyTypeABN || t == PartyTypeIndividual
}

// Party is an organisation or individual. Parties are created when their
// first identity is created and are never physically deleted.
type Party struct {
	PartyID   string     `json:"party_id"`
	PartyType PartyType  `json:"party_type"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
