package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/asakaida/purosesu/internal/entities"
)

var validate = validator.New()

// validateRequest runs struct-tag validation and converts the first
// failure to the shared validation error shape so the status mapping
// yields 422 before any write is issued.
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &entities.ValidationError{
			Field:  strings.ToLower(fe.Field()),
			Reason: fmt.Sprintf("failed %s validation", fe.Tag()),
		}
	}
	return &entities.ValidationError{Field: "body", Reason: err.Error()}
}

type processCreateRequest struct {
	Title         string  `json:"title" validate:"required"`
	Description   string  `json:"description"`
	CreatedByID   int64   `json:"created_by_id" validate:"required,gte=1"`
	DepartmentIDs []int64 `json:"department_ids" validate:"dive,gte=1"`
	LocationIDs   []int64 `json:"location_ids" validate:"dive,gte=1"`
	ResourceIDs   []int64 `json:"resource_ids" validate:"dive,gte=1"`
	RoleIDs       []int64 `json:"role_ids" validate:"dive,gte=1"`
}

func (req *processCreateRequest) toInput() *entities.ProcessInput {
	return &entities.ProcessInput{
		Title:         req.Title,
		Description:   req.Description,
		CreatedByID:   req.CreatedByID,
		DepartmentIDs: req.DepartmentIDs,
		LocationIDs:   req.LocationIDs,
		ResourceIDs:   req.ResourceIDs,
		RoleIDs:       req.RoleIDs,
	}
}

type processUpdateRequest struct {
	Title         string  `json:"title" validate:"required"`
	Description   string  `json:"description"`
	DepartmentIDs []int64 `json:"department_ids" validate:"dive,gte=1"`
	LocationIDs   []int64 `json:"location_ids" validate:"dive,gte=1"`
	ResourceIDs   []int64 `json:"resource_ids" validate:"dive,gte=1"`
	RoleIDs       []int64 `json:"role_ids" validate:"dive,gte=1"`
}

func (req *processUpdateRequest) toInput() *entities.ProcessInput {
	return &entities.ProcessInput{
		Title:         req.Title,
		Description:   req.Description,
		DepartmentIDs: req.DepartmentIDs,
		LocationIDs:   req.LocationIDs,
		ResourceIDs:   req.ResourceIDs,
		RoleIDs:       req.RoleIDs,
	}
}

type catalogRequest struct {
	Title       string `json:"title" validate:"required"`
	CreatedByID int64  `json:"created_by_id"`
}

func (req *catalogRequest) toInput() *entities.CatalogInput {
	return &entities.CatalogInput{
		Title:       req.Title,
		CreatedByID: req.CreatedByID,
	}
}

type userRequest struct {
	Title string `json:"title" validate:"required"`
}

type refResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type catalogResponse struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	CreatedByID int64         `json:"created_by_id"`
	CreatedAt   time.Time     `json:"created_at"`
	CreatedBy   *userResponse `json:"created_by,omitempty"`
	Processes   []refResponse `json:"processes"`
}

type processResponse struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	CreatedByID int64         `json:"created_by_id"`
	CreatedAt   time.Time     `json:"created_at"`
	CreatedBy   *userResponse `json:"created_by,omitempty"`
	Departments []refResponse `json:"departments"`
	Locations   []refResponse `json:"locations"`
	Resources   []refResponse `json:"resources"`
	Roles       []refResponse `json:"roles"`
}

func toRefResponses(refs []entities.Ref) []refResponse {
	out := make([]refResponse, 0, len(refs))
	for _, ref := range refs {
		out = append(out, refResponse{ID: ref.ID, Title: ref.Title})
	}
	return out
}

func toUserResponse(user *entities.User) *userResponse {
	if user == nil {
		return nil
	}
	return &userResponse{ID: user.ID, Title: user.Title, CreatedAt: user.CreatedAt}
}

func toCatalogResponse(entry *entities.CatalogEntry) *catalogResponse {
	return &catalogResponse{
		ID:          entry.ID,
		Title:       entry.Title,
		CreatedByID: entry.CreatedByID,
		CreatedAt:   entry.CreatedAt,
		CreatedBy:   toUserResponse(entry.CreatedBy),
		Processes:   toRefResponses(entry.Processes),
	}
}

func toProcessResponse(proc *entities.Process) *processResponse {
	return &processResponse{
		ID:          proc.ID,
		Title:       proc.Title,
		Description: proc.Description,
		CreatedByID: proc.CreatedByID,
		CreatedAt:   proc.CreatedAt,
		CreatedBy:   toUserResponse(proc.CreatedBy),
		Departments: toRefResponses(proc.Departments),
		Locations:   toRefResponses(proc.Locations),
		Resources:   toRefResponses(proc.Resources),
		Roles:       toRefResponses(proc.Roles),
	}
}
