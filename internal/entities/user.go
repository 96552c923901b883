package entities

import "time"

// User is a system actor. Users create processes and catalog entries and
// are referenced by their created_by_id columns.
type User struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// UserInput is the payload for creating or updating a user.
type UserInput struct {
	Title string
}

// Validate checks the input for a create or update operation.
func (in *UserInput) Validate() error {
	if in.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	return nil
}
