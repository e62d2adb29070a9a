package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"project-camp/api/middleware"
	"project-camp/api/models"
	"project-camp/api/utils"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxUploadMemory = 32 << 20

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 13)),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.FullName, validation.Length(0, 100)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type EmailRequest struct {
	Email string `json:"email"`
}

func (r EmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required),
	)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r ProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Description, validation.Length(0, 1000)),
	)
}

func roleValues() []interface{} {
	out := make([]interface{}, 0, len(models.AvailableRoles))
	for _, role := range models.AvailableRoles {
		out = append(out, string(role))
	}
	return out
}

type AddMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r AddMemberRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Role, validation.Required, validation.In(roleValues()...)),
	)
}

type UpdateRoleRequest struct {
	NewRole string `json:"newRole"`
}

func (r UpdateRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewRole, validation.Required, validation.In(roleValues()...)),
	)
}

func statusValues() []interface{} {
	out := make([]interface{}, 0, len(models.AvailableTaskStatuses))
	for _, s := range models.AvailableTaskStatuses {
		out = append(out, string(s))
	}
	return out
}

func isObjectID(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v != nil {
			s = *v
		}
	}
	if s == "" {
		return nil
	}
	if _, err := primitive.ObjectIDFromHex(s); err != nil {
		return errors.New("must be a valid id")
	}
	return nil
}

type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	Status      string `json:"status"`
}

func (r TaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.AssignedTo, validation.By(isObjectID)),
		validation.Field(&r.Status, validation.In(statusValues()...)),
	)
}

// TaskPatch is a partial task update. An empty assignedTo unassigns.
type TaskPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assignedTo"`
	Status      *string `json:"status"`
}

func (r TaskPatch) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.AssignedTo, validation.By(isObjectID)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(statusValues()...)),
	)
}

type SubTaskRequest struct {
	Title string `json:"title"`
}

func (r SubTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
	)
}

type SubTaskPatch struct {
	Title       *string `json:"title"`
	IsCompleted *bool   `json:"isCompleted"`
}

func (r SubTaskPatch) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
	)
}

type NoteRequest struct {
	Content string `json:"content"`
}

func (r NoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required, validation.Length(1, 5000)),
	)
}

// decodeJSON reads and validates a request body. An empty body decodes to the
// zero value so validation reports the missing fields.
// bodyError reports an oversized body as 413 and anything else as fallback.
func bodyError(err error, fallback string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return utils.NewApiError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
	}
	return utils.BadRequest(fallback)
}

func decodeJSON(r *http.Request, dst validation.Validatable) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return bodyError(err, "Invalid request payload")
	}
	if err := dst.Validate(); err != nil {
		return utils.ValidationFailed(err)
	}
	return nil
}

// decodeForm fills a TaskRequest from a multipart or urlencoded form.
func decodeForm(r *http.Request, dst *TaskRequest) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return bodyError(err, "Invalid multipart payload")
		}
	} else if err := r.ParseForm(); err != nil {
		return bodyError(err, "Invalid form payload")
	}
	dst.Title = r.FormValue("title")
	dst.Description = r.FormValue("description")
	dst.AssignedTo = r.FormValue("assignedTo")
	dst.Status = r.FormValue("status")
	if err := dst.Validate(); err != nil {
		return utils.ValidationFailed(err)
	}
	return nil
}

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, utils.BadRequest("Invalid " + name)
	}
	return id, nil
}

// projectScope resolves the caller and the {projectId} path variable.
func projectScope(r *http.Request) (*models.User, primitive.ObjectID, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	return user, projectID, nil
}

func currentUser(r *http.Request) (*models.User, error) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		return nil, utils.Unauthorized("Unauthorized request")
	}
	return user, nil
}

// optionalID converts a validated hex id; empty means none.
func optionalID(hex string) *primitive.ObjectID {
	if hex == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}
