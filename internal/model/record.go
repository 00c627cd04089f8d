package model

import "time"

// Detail kinds supported by RecordDetails.
const (
	DetailsEducation = "education"
	DetailsCareer    = "career"
	DetailsTravel    = "travel"
	DetailsCustom    = "custom"
)

// RecordDetails holds category-specific fields as a tagged variant keyed
// by Kind. Unused fields for a given kind stay empty and are omitted from
// JSON output.
type RecordDetails struct {
	Kind string `json:"type"`

	// education
	DegreeName      string `json:"degree_name,omitempty"`
	ProgramName     string `json:"program_name,omitempty"`
	InstitutionName string `json:"institution_name,omitempty"`

	// career
	EmployerName string `json:"employer_name,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	IsCurrent    bool   `json:"is_current,omitempty"`

	// travel
	TripName     string `json:"trip_name,omitempty"`
	FromLocation string `json:"from_location,omitempty"`
	ToLocation   string `json:"to_location,omitempty"`
	Purpose      string `json:"purpose,omitempty"`

	// custom
	Fields map[string]string `json:"fields,omitempty"`
}

// Record is a user's personal record. Documents is an ordered list (newest
// appended last) and DocumentsCount must always equal len(Documents); both
// are mutated only through the document ledger, which recomputes the count
// from the list on every write.
type Record struct {
	ID             string        `json:"id"`
	OwnerID        string        `json:"owner_id,omitempty"`
	CategoryID     string        `json:"category_id"`
	Title          string        `json:"title"`
	Notes          string        `json:"notes,omitempty"`
	StartDate      *time.Time    `json:"start_date,omitempty"`
	EndDate        *time.Time    `json:"end_date,omitempty"`
	Highlight      bool          `json:"highlight"`
	Tags           []string      `json:"tags"`
	Details        RecordDetails `json:"details"`
	Documents      []Document    `json:"documents"`
	DocumentsCount int           `json:"documents_count"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Category groups records per owner. Names are unique per owner.
type Category struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
