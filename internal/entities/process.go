package entities

import (
	"fmt"
	"time"
)

// RelationKind identifies one of the four many-to-many association
// categories a process carries.
type RelationKind string

const (
	KindDepartment RelationKind = "department"
	KindLocation   RelationKind = "location"
	KindResource   RelationKind = "resource"
	KindRole       RelationKind = "role"
)

// RelationKinds lists every relation kind in a fixed order.
var RelationKinds = []RelationKind{KindDepartment, KindLocation, KindResource, KindRole}

// Ref is a compact related-entity summary embedded in process responses.
type Ref struct {
	ID    int64
	Title string
}

// Process represents a business process and the four relation sets
// attached to it. CreatedByID and CreatedAt are set once at creation and
// never change afterwards.
type Process struct {
	ID          int64
	Title       string
	Description string
	CreatedByID int64
	CreatedAt   time.Time

	CreatedBy   *User
	Departments []Ref
	Locations   []Ref
	Resources   []Ref
	Roles       []Ref
}

// SetRelations replaces the loaded summary slice for one relation kind.
func (p *Process) SetRelations(kind RelationKind, refs []Ref) {
	switch kind {
	case KindDepartment:
		p.Departments = refs
	case KindLocation:
		p.Locations = refs
	case KindResource:
		p.Resources = refs
	case KindRole:
		p.Roles = refs
	}
}

// ProcessInput is the validated payload for create and replace operations.
// The id lists may contain duplicates; the storage layer collapses them
// before writing.
type ProcessInput struct {
	Title         string
	Description   string
	CreatedByID   int64 // create only; ignored on replace
	DepartmentIDs []int64
	LocationIDs   []int64
	ResourceIDs   []int64
	RoleIDs       []int64
}

// RelationIDs returns the input id list for one relation kind.
func (in *ProcessInput) RelationIDs(kind RelationKind) []int64 {
	switch kind {
	case KindDepartment:
		return in.DepartmentIDs
	case KindLocation:
		return in.LocationIDs
	case KindResource:
		return in.ResourceIDs
	case KindRole:
		return in.RoleIDs
	}
	return nil
}

// ValidateCreate checks the input for a create operation.
func (in *ProcessInput) ValidateCreate() error {
	if err := in.validateCommon(); err != nil {
		return err
	}
	if in.CreatedByID <= 0 {
		return &ValidationError{Field: "created_by_id", Reason: "must be a positive user id"}
	}
	return nil
}

// ValidateReplace checks the input for a replace operation.
func (in *ProcessInput) ValidateReplace() error {
	return in.validateCommon()
}

func (in *ProcessInput) validateCommon() error {
	if in.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	for _, kind := range RelationKinds {
		for _, id := range in.RelationIDs(kind) {
			if id <= 0 {
				return &ValidationError{
					Field:  fmt.Sprintf("%s_ids", kind),
					Reason: fmt.Sprintf("contains invalid id %d", id),
				}
			}
		}
	}
	return nil
}
