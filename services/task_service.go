package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"project-camp/api/logging"
	"project-camp/api/models"
	"project-camp/api/policy"
	"project-camp/api/repositories"
	"project-camp/api/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskInput struct {
	Title       string
	Description string
	AssignedTo  *primitive.ObjectID
	Status      models.TaskStatus
}

// TaskUpdate holds the fields a caller sent. Nil means unchanged.
type TaskUpdate struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	AssignedTo    *primitive.ObjectID
	ClearAssignee bool
}

type SubTaskUpdate struct {
	Title       *string
	IsCompleted *bool
}

type TaskService struct {
	projectAccess
	users    repositories.UserRepository
	tasks    repositories.TaskRepository
	subtasks repositories.SubTaskRepository
	uploads  *utils.UploadStore
	now      func() time.Time
}

func NewTaskService(store *repositories.Store, uploads *utils.UploadStore) *TaskService {
	return &TaskService{
		projectAccess: projectAccess{projects: store.Projects, members: store.Members},
		users:         store.Users,
		tasks:         store.Tasks,
		subtasks:      store.SubTasks,
		uploads:       uploads,
		now:           time.Now,
	}
}

func (s *TaskService) ListTasks(ctx context.Context, userID, projectID primitive.ObjectID) ([]models.TaskView, error) {
	if _, err := s.authorize(ctx, projectID, userID, policy.ViewProject); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, 2*len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.AssignedBy)
		if t.AssignedTo != nil {
			ids = append(ids, *t.AssignedTo)
		}
	}
	dir, err := loadUsers(ctx, s.users, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]models.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView(t, dir))
	}
	return views, nil
}

// CreateTask stores the task with any uploaded attachments. An assignee has to
// be a member of the project.
func (s *TaskService) CreateTask(ctx context.Context, userID, projectID primitive.ObjectID, in TaskInput, files []*multipart.FileHeader) (*models.TaskView, error) {
	members, err := s.authorize(ctx, projectID, userID, policy.CreateTask)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.StatusTodo
	}
	if !status.IsValid() {
		return nil, utils.BadRequest("Invalid task status")
	}
	if err := checkAssignee(in.AssignedTo, members); err != nil {
		return nil, err
	}

	attachments := make([]models.Attachment, 0, len(files))
	for _, fh := range files {
		stored, err := s.uploads.Save(fh)
		if err != nil {
			removeAttachments(s.uploads, attachments)
			return nil, fmt.Errorf("saving attachment: %w", err)
		}
		attachments = append(attachments, stored.Attachment())
	}

	now := s.now()
	task := &models.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Project:     projectID,
		AssignedTo:  in.AssignedTo,
		AssignedBy:  userID,
		Status:      status,
		Attachments: attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		removeAttachments(s.uploads, attachments)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task '%s' created in project %s", task.Title, projectID.Hex())
	return s.view(ctx, task)
}

// GetTask returns the task with its subtasks and completion count.
func (s *TaskService) GetTask(ctx context.Context, userID, projectID, taskID primitive.ObjectID) (*models.TaskDetail, error) {
	if _, err := s.authorize(ctx, projectID, userID, policy.ViewProject); err != nil {
		return nil, err
	}
	task, err := s.findTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}
	subtasks, err := s.subtasks.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("loading subtasks: %w", err)
	}

	ids := []primitive.ObjectID{task.AssignedBy}
	if task.AssignedTo != nil {
		ids = append(ids, *task.AssignedTo)
	}
	for _, st := range subtasks {
		ids = append(ids, st.CreatedBy)
	}
	dir, err := loadUsers(ctx, s.users, ids...)
	if err != nil {
		return nil, err
	}

	detail := &models.TaskDetail{
		TaskView:   taskView(*task, dir),
		SubTasks:   make([]models.SubTaskView, 0, len(subtasks)),
		Completion: models.CompletionOf(subtasks),
	}
	for _, st := range subtasks {
		detail.SubTasks = append(detail.SubTasks, subTaskView(st, dir))
	}
	return detail, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, userID, projectID, taskID primitive.ObjectID, in TaskUpdate) (*models.TaskView, error) {
	members, err := s.authorize(ctx, projectID, userID, policy.UpdateTask)
	if err != nil {
		return nil, err
	}
	task, err := s.findTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return nil, utils.BadRequest("Invalid task status")
		}
		task.Status = *in.Status
	}
	switch {
	case in.ClearAssignee:
		task.AssignedTo = nil
	case in.AssignedTo != nil:
		if err := checkAssignee(in.AssignedTo, members); err != nil {
			return nil, err
		}
		task.AssignedTo = in.AssignedTo
		task.AssignedBy = userID
	}
	task.UpdatedAt = s.now()

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return s.view(ctx, task)
}

// DeleteTask removes the task, its subtasks and its attachment files.
func (s *TaskService) DeleteTask(ctx context.Context, userID, projectID, taskID primitive.ObjectID) error {
	if _, err := s.authorize(ctx, projectID, userID, policy.DeleteTask); err != nil {
		return err
	}
	task, err := s.findTask(ctx, projectID, taskID)
	if err != nil {
		return err
	}

	if err := s.subtasks.DeleteByTasks(ctx, []primitive.ObjectID{task.ID}); err != nil {
		return fmt.Errorf("deleting subtasks: %w", err)
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	removeAttachments(s.uploads, task.Attachments)
	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted from project %s", task.ID.Hex(), projectID.Hex())
	return nil
}

func (s *TaskService) CreateSubTask(ctx context.Context, userID, projectID, taskID primitive.ObjectID, title string) (*models.SubTaskView, error) {
	if _, err := s.authorize(ctx, projectID, userID, policy.CreateSubTask); err != nil {
		return nil, err
	}
	task, err := s.findTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	subtask := &models.SubTask{
		Title:     strings.TrimSpace(title),
		Task:      task.ID,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.subtasks.Create(ctx, subtask); err != nil {
		return nil, fmt.Errorf("failed to create subtask: %w", err)
	}
	return s.subTaskView(ctx, subtask)
}

// UpdateSubTask is open to every member so anyone can tick off a step.
func (s *TaskService) UpdateSubTask(ctx context.Context, userID, projectID, subTaskID primitive.ObjectID, in SubTaskUpdate) (*models.SubTaskView, error) {
	if _, err := s.authorize(ctx, projectID, userID, policy.UpdateSubTask); err != nil {
		return nil, err
	}
	subtask, err := s.findSubTask(ctx, projectID, subTaskID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		subtask.Title = strings.TrimSpace(*in.Title)
	}
	if in.IsCompleted != nil {
		subtask.IsCompleted = *in.IsCompleted
	}
	subtask.UpdatedAt = s.now()
	if err := s.subtasks.Update(ctx, subtask); err != nil {
		return nil, fmt.Errorf("failed to update subtask: %w", err)
	}
	return s.subTaskView(ctx, subtask)
}

func (s *TaskService) DeleteSubTask(ctx context.Context, userID, projectID, subTaskID primitive.ObjectID) error {
	if _, err := s.authorize(ctx, projectID, userID, policy.DeleteSubTask); err != nil {
		return err
	}
	subtask, err := s.findSubTask(ctx, projectID, subTaskID)
	if err != nil {
		return err
	}
	if err := s.subtasks.Delete(ctx, subtask.ID); err != nil {
		return fmt.Errorf("deleting subtask: %w", err)
	}
	return nil
}

func (s *TaskService) findTask(ctx context.Context, projectID, taskID primitive.ObjectID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && task.Project != projectID) {
		return nil, utils.NotFound("Task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding task: %w", err)
	}
	return task, nil
}

// findSubTask also proves the subtask's task lives in projectID.
func (s *TaskService) findSubTask(ctx context.Context, projectID, subTaskID primitive.ObjectID) (*models.SubTask, error) {
	subtask, err := s.subtasks.FindByID(ctx, subTaskID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, utils.NotFound("Subtask not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding subtask: %w", err)
	}
	if _, err := s.findTask(ctx, projectID, subtask.Task); err != nil {
		var apiErr *utils.ApiError
		if errors.As(err, &apiErr) {
			return nil, utils.NotFound("Subtask not found")
		}
		return nil, err
	}
	return subtask, nil
}

func (s *TaskService) view(ctx context.Context, task *models.Task) (*models.TaskView, error) {
	ids := []primitive.ObjectID{task.AssignedBy}
	if task.AssignedTo != nil {
		ids = append(ids, *task.AssignedTo)
	}
	dir, err := loadUsers(ctx, s.users, ids...)
	if err != nil {
		return nil, err
	}
	view := taskView(*task, dir)
	return &view, nil
}

func (s *TaskService) subTaskView(ctx context.Context, subtask *models.SubTask) (*models.SubTaskView, error) {
	dir, err := loadUsers(ctx, s.users, subtask.CreatedBy)
	if err != nil {
		return nil, err
	}
	view := subTaskView(*subtask, dir)
	return &view, nil
}

func checkAssignee(assignee *primitive.ObjectID, members []models.ProjectMember) error {
	if assignee == nil {
		return nil
	}
	if _, ok := policy.RoleOf(*assignee, members); !ok {
		return utils.BadRequest("Assignee is not a member of this project")
	}
	return nil
}

func taskView(t models.Task, dir userDirectory) models.TaskView {
	view := models.TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Project:     t.Project,
		AssignedBy:  dir.lookup(t.AssignedBy),
		Status:      t.Status,
		Attachments: t.Attachments,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if view.Attachments == nil {
		view.Attachments = []models.Attachment{}
	}
	if t.AssignedTo != nil {
		view.AssignedTo = dir.lookup(*t.AssignedTo)
	}
	return view
}

func subTaskView(st models.SubTask, dir userDirectory) models.SubTaskView {
	return models.SubTaskView{
		ID:          st.ID,
		Title:       st.Title,
		Task:        st.Task,
		IsCompleted: st.IsCompleted,
		CreatedBy:   dir.lookup(st.CreatedBy),
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
	}
}

// removeAttachments deletes stored attachment files. Failures are logged; the
// documents referencing them are already gone.
func removeAttachments(uploads *utils.UploadStore, attachments []models.Attachment) {
	if uploads == nil {
		return
	}
	for _, a := range attachments {
		if err := uploads.Remove(a.URL); err != nil {
			logging.Logger.Warnf("Event ID: ATTACHMENT_CLEANUP_FAILED, Description: %v", err)
		}
	}
}
