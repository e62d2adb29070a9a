package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"project-camp/api/models"
	"project-camp/api/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type taskFixture struct {
	store     *repositories.Store
	projects  *ProjectService
	tasks     *TaskService
	admin     *models.User
	lead      *models.User
	member    *models.User
	projectID primitive.ObjectID
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	f := &taskFixture{
		store:    store,
		projects: NewProjectService(store, nil),
		tasks:    NewTaskService(store, nil),
		admin:    seedUser(t, store, "ana"),
		lead:     seedUser(t, store, "lead"),
		member:   seedUser(t, store, "bo"),
	}
	f.projectID = seedProject(t, f.projects, f.admin, "Apollo", map[*models.User]models.Role{
		f.lead:   models.RoleProjectAdmin,
		f.member: models.RoleMember,
	})
	return f
}

func TestSubTaskCompletion(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	task, err := f.tasks.CreateTask(ctx, f.lead.ID, f.projectID, TaskInput{Title: "Launch", AssignedTo: &f.member.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, task.Status)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, "bo", task.AssignedTo.Username)
	assert.Equal(t, "lead", task.AssignedBy.Username)

	var first *models.SubTaskView
	for _, title := range []string{"Fuel", "Check", "Go"} {
		st, err := f.tasks.CreateSubTask(ctx, f.lead.ID, f.projectID, task.ID, title)
		require.NoError(t, err)
		if first == nil {
			first = st
		}
	}

	done := true
	updated, err := f.tasks.UpdateSubTask(ctx, f.member.ID, f.projectID, first.ID, SubTaskUpdate{IsCompleted: &done})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)

	detail, err := f.tasks.GetTask(ctx, f.member.ID, f.projectID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Completion{Completed: 1, Total: 3}, detail.Completion)
	assert.Len(t, detail.SubTasks, 3)
	assert.Equal(t, "lead", detail.SubTasks[0].CreatedBy.Username)
}

func TestMembersCannotEditTasks(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	_, err := f.tasks.CreateTask(ctx, f.member.ID, f.projectID, TaskInput{Title: "Nope"}, nil)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	task, err := f.tasks.CreateTask(ctx, f.admin.ID, f.projectID, TaskInput{Title: "Launch"}, nil)
	require.NoError(t, err)

	title := "Renamed"
	_, err = f.tasks.UpdateTask(ctx, f.member.ID, f.projectID, task.ID, TaskUpdate{Title: &title})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.tasks.CreateSubTask(ctx, f.member.ID, f.projectID, task.ID, "Step")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	err = f.tasks.DeleteTask(ctx, f.member.ID, f.projectID, task.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	tasks, err := f.tasks.ListTasks(ctx, f.member.ID, f.projectID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestTaskValidation(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)
	outsider := seedUser(t, f.store, "zed")

	_, err := f.tasks.CreateTask(ctx, f.admin.ID, f.projectID, TaskInput{Title: "Launch", AssignedTo: &outsider.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.tasks.CreateTask(ctx, f.admin.ID, f.projectID, TaskInput{Title: "Launch", Status: "blocked"}, nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	task, err := f.tasks.CreateTask(ctx, f.admin.ID, f.projectID, TaskInput{Title: "Launch", AssignedTo: &f.member.ID}, nil)
	require.NoError(t, err)

	status := models.StatusInProgress
	updated, err := f.tasks.UpdateTask(ctx, f.admin.ID, f.projectID, task.ID, TaskUpdate{Status: &status, ClearAssignee: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Nil(t, updated.AssignedTo)
}

func TestTasksAreScopedToTheirProject(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)
	otherProject := seedProject(t, f.projects, f.admin, "Gemini", nil)

	task, err := f.tasks.CreateTask(ctx, f.admin.ID, f.projectID, TaskInput{Title: "Launch"}, nil)
	require.NoError(t, err)
	subtask, err := f.tasks.CreateSubTask(ctx, f.admin.ID, f.projectID, task.ID, "Fuel")
	require.NoError(t, err)

	_, err = f.tasks.GetTask(ctx, f.admin.ID, otherProject, task.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	err = f.tasks.DeleteSubTask(ctx, f.admin.ID, otherProject, subtask.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	require.NoError(t, f.tasks.DeleteTask(ctx, f.admin.ID, f.projectID, task.ID))
	_, err = f.tasks.GetTask(ctx, f.admin.ID, f.projectID, task.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = f.store.SubTasks.FindByID(ctx, subtask.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

type failingTasks struct {
	repositories.TaskRepository
}

func (failingTasks) Create(context.Context, *models.Task) error {
	return errors.New("write failed")
}

func TestCreateTaskRemovesFilesWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	uploads := newUploadStore(t)
	projects := NewProjectService(store, uploads)
	ana := seedUser(t, store, "ana")
	projectID := seedProject(t, projects, ana, "Apollo", nil)

	store.Tasks = failingTasks{TaskRepository: store.Tasks}
	tasks := NewTaskService(store, uploads)

	_, err := tasks.CreateTask(ctx, ana.ID, projectID, TaskInput{Title: "Launch"}, uploadFiles(t, "plan.txt", "map.png"))
	require.Error(t, err)

	assert.Zero(t, storedFiles(t, uploads))
}

func TestDeleteTaskRemovesFiles(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	uploads := newUploadStore(t)
	projects := NewProjectService(store, uploads)
	tasks := NewTaskService(store, uploads)
	ana := seedUser(t, store, "ana")
	projectID := seedProject(t, projects, ana, "Apollo", nil)

	task, err := tasks.CreateTask(ctx, ana.ID, projectID, TaskInput{Title: "Launch"}, uploadFiles(t, "plan.txt"))
	require.NoError(t, err)
	require.Equal(t, 1, storedFiles(t, uploads))

	require.NoError(t, tasks.DeleteTask(ctx, ana.ID, projectID, task.ID))

	assert.Zero(t, storedFiles(t, uploads))
}
