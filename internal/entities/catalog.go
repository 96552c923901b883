package entities

import "time"

// CatalogEntry is one row of a catalog entity (department, location,
// resource or role). The four catalogs share an identical shape; the
// RelationKind chooses which one a repository operates on.
type CatalogEntry struct {
	ID          int64
	Title       string
	CreatedByID int64
	CreatedAt   time.Time

	// CreatedBy is the creator loaded alongside the entry on reads.
	CreatedBy *User
	// Processes are summaries of the processes linked to this entry
	// through its junction table.
	Processes []Ref
}

// CatalogInput is the payload for creating or updating a catalog entry.
type CatalogInput struct {
	Title       string
	CreatedByID int64 // create only
}

// ValidateCreate checks the input for a create operation.
func (in *CatalogInput) ValidateCreate() error {
	if in.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if in.CreatedByID <= 0 {
		return &ValidationError{Field: "created_by_id", Reason: "must be a positive user id"}
	}
	return nil
}

// ValidateUpdate checks the input for an update operation.
func (in *CatalogInput) ValidateUpdate() error {
	if in.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	return nil
}
