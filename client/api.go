package client

import (
	"context"
	"net/http"
	"net/url"

	"project-camp/api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	body, err := jsonPayload(in)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, body, out)
}

func (c *Client) Healthcheck(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/healthcheck", nil, nil)
}

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	if err := c.call(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login stores the access token and the signed-in user. The refresh token
// arrives as a cookie and stays in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out struct {
		User        models.User `json:"user"`
		AccessToken string      `json:"accessToken"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, loginPath, in, &out); err != nil {
		return nil, err
	}
	c.creds.SetAccessToken(out.AccessToken)
	c.auth.SetUser(&out.User)
	return &out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.creds.Clear()
	c.jar.Reset()
	c.auth.Clear()
	return err
}

func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.call(ctx, http.MethodGet, "/auth/current-user", nil, &user); err != nil {
		return nil, err
	}
	c.auth.SetUser(&user)
	return &user, nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.call(ctx, http.MethodGet, "/auth/verify-email/"+url.PathEscape(token), nil, nil)
}

func (c *Client) ResendEmailVerification(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/auth/resend-email-verification", nil, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.call(ctx, http.MethodPost, "/auth/reset-password/"+url.PathEscape(token), map[string]string{"newPassword": newPassword}, nil)
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.call(ctx, http.MethodPost, "/auth/change-password", map[string]string{
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	}, nil)
}

func (c *Client) UpdateAvatar(ctx context.Context, avatar FileUpload) (*models.User, error) {
	body, err := multipartPayload(nil, "avatar", []FileUpload{avatar})
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := c.do(ctx, http.MethodPatch, "/auth/avatar", body, &user); err != nil {
		return nil, err
	}
	c.auth.SetUser(&user)
	return &user, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]models.ProjectListItem, error) {
	var out []models.ProjectListItem
	if err := c.call(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, name, description string) (*models.Project, error) {
	var out models.Project
	in := map[string]string{"name": name, "description": description}
	if err := c.call(ctx, http.MethodPost, "/projects", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProject(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	var out models.Project
	if err := c.call(ctx, http.MethodGet, "/projects/"+projectID.Hex(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, projectID primitive.ObjectID, name, description string) (*models.Project, error) {
	var out models.Project
	in := map[string]string{"name": name, "description": description}
	if err := c.call(ctx, http.MethodPut, "/projects/"+projectID.Hex(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, projectID primitive.ObjectID) error {
	return c.call(ctx, http.MethodDelete, "/projects/"+projectID.Hex(), nil, nil)
}

func (c *Client) ListMembers(ctx context.Context, projectID primitive.ObjectID) ([]models.MemberView, error) {
	var out []models.MemberView
	if err := c.call(ctx, http.MethodGet, "/projects/"+projectID.Hex()+"/members", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddMember(ctx context.Context, projectID primitive.ObjectID, email string, role models.Role) (*models.MemberView, error) {
	var out models.MemberView
	in := map[string]string{"email": email, "role": string(role)}
	if err := c.call(ctx, http.MethodPost, "/projects/"+projectID.Hex()+"/members", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMemberRole(ctx context.Context, projectID, userID primitive.ObjectID, role models.Role) (*models.MemberView, error) {
	var out models.MemberView
	in := map[string]string{"newRole": string(role)}
	if err := c.call(ctx, http.MethodPut, "/projects/"+projectID.Hex()+"/members/"+userID.Hex(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveMember(ctx context.Context, projectID, userID primitive.ObjectID) error {
	return c.call(ctx, http.MethodDelete, "/projects/"+projectID.Hex()+"/members/"+userID.Hex(), nil, nil)
}

type TaskInput struct {
	Title       string
	Description string
	AssignedTo  primitive.ObjectID
	Status      models.TaskStatus
	Attachments []FileUpload
}

// TaskPatch sends only the non-nil fields. An empty AssignedTo unassigns.
type TaskPatch struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	AssignedTo  *string            `json:"assignedTo,omitempty"`
	Status      *models.TaskStatus `json:"status,omitempty"`
}

func tasksPath(projectID primitive.ObjectID) string {
	return "/tasks/" + projectID.Hex()
}

func (c *Client) ListTasks(ctx context.Context, projectID primitive.ObjectID) ([]models.TaskView, error) {
	var out []models.TaskView
	if err := c.call(ctx, http.MethodGet, tasksPath(projectID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTask(ctx context.Context, projectID primitive.ObjectID, in TaskInput) (*models.TaskView, error) {
	fields := map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"status":      string(in.Status),
	}
	if !in.AssignedTo.IsZero() {
		fields["assignedTo"] = in.AssignedTo.Hex()
	}
	body, err := multipartPayload(fields, "attachments", in.Attachments)
	if err != nil {
		return nil, err
	}
	var out models.TaskView
	if err := c.do(ctx, http.MethodPost, tasksPath(projectID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTask(ctx context.Context, projectID, taskID primitive.ObjectID) (*models.TaskDetail, error) {
	var out models.TaskDetail
	if err := c.call(ctx, http.MethodGet, tasksPath(projectID)+"/t/"+taskID.Hex(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, projectID, taskID primitive.ObjectID, patch TaskPatch) (*models.TaskView, error) {
	var out models.TaskView
	if err := c.call(ctx, http.MethodPut, tasksPath(projectID)+"/t/"+taskID.Hex(), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	return c.call(ctx, http.MethodDelete, tasksPath(projectID)+"/t/"+taskID.Hex(), nil, nil)
}

func (c *Client) CreateSubTask(ctx context.Context, projectID, taskID primitive.ObjectID, title string) (*models.SubTaskView, error) {
	var out models.SubTaskView
	in := map[string]string{"title": title}
	if err := c.call(ctx, http.MethodPost, tasksPath(projectID)+"/t/"+taskID.Hex()+"/subtasks", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetSubTaskCompleted(ctx context.Context, projectID, subTaskID primitive.ObjectID, done bool) (*models.SubTaskView, error) {
	var out models.SubTaskView
	in := map[string]bool{"isCompleted": done}
	if err := c.call(ctx, http.MethodPut, tasksPath(projectID)+"/st/"+subTaskID.Hex(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameSubTask(ctx context.Context, projectID, subTaskID primitive.ObjectID, title string) (*models.SubTaskView, error) {
	var out models.SubTaskView
	in := map[string]string{"title": title}
	if err := c.call(ctx, http.MethodPut, tasksPath(projectID)+"/st/"+subTaskID.Hex(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSubTask(ctx context.Context, projectID, subTaskID primitive.ObjectID) error {
	return c.call(ctx, http.MethodDelete, tasksPath(projectID)+"/st/"+subTaskID.Hex(), nil, nil)
}

func notesPath(projectID primitive.ObjectID) string {
	return "/notes/" + projectID.Hex()
}

func (c *Client) ListNotes(ctx context.Context, projectID primitive.ObjectID) ([]models.NoteView, error) {
	var out []models.NoteView
	if err := c.call(ctx, http.MethodGet, notesPath(projectID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateNote(ctx context.Context, projectID primitive.ObjectID, content string) (*models.NoteView, error) {
	var out models.NoteView
	if err := c.call(ctx, http.MethodPost, notesPath(projectID), map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetNote(ctx context.Context, projectID, noteID primitive.ObjectID) (*models.NoteView, error) {
	var out models.NoteView
	if err := c.call(ctx, http.MethodGet, notesPath(projectID)+"/n/"+noteID.Hex(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateNote(ctx context.Context, projectID, noteID primitive.ObjectID, content string) (*models.NoteView, error) {
	var out models.NoteView
	if err := c.call(ctx, http.MethodPut, notesPath(projectID)+"/n/"+noteID.Hex(), map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteNote(ctx context.Context, projectID, noteID primitive.ObjectID) error {
	return c.call(ctx, http.MethodDelete, notesPath(projectID)+"/n/"+noteID.Hex(), nil, nil)
}
