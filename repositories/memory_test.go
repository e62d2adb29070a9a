package repositories_test

import (
	"context"
	"testing"
	"time"

	"project-camp/api/models"
	"project-camp/api/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryUsersAreUnique(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()

	user := &models.User{Email: "ana@example.com", Username: "ana"}
	require.NoError(t, store.Users.Create(ctx, user))
	assert.False(t, user.ID.IsZero())

	err := store.Users.Create(ctx, &models.User{Email: "ana@example.com", Username: "other"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	err = store.Users.Create(ctx, &models.User{Email: "other@example.com", Username: "ana"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	found, err := store.Users.FindByEmailOrUsername(ctx, "nobody@example.com", "ana")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestMemoryTokenLookupHonoursExpiry(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	now := time.Now()

	user := &models.User{
		Email:                   "ana@example.com",
		Username:                "ana",
		EmailVerificationToken:  "hash",
		EmailVerificationExpiry: now.Add(time.Minute),
	}
	require.NoError(t, store.Users.Create(ctx, user))

	_, err := store.Users.FindByVerificationToken(ctx, "hash", now)
	assert.NoError(t, err)

	_, err = store.Users.FindByVerificationToken(ctx, "hash", now.Add(2*time.Minute))
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = store.Users.FindByResetToken(ctx, "", now)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestMemoryMembershipIsUniquePerProject(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	project := primitive.NewObjectID()
	user := primitive.NewObjectID()

	require.NoError(t, store.Members.Create(ctx, &models.ProjectMember{Project: project, User: user, Role: models.RoleAdmin}))
	err := store.Members.Create(ctx, &models.ProjectMember{Project: project, User: user, Role: models.RoleMember})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	require.NoError(t, store.Members.Create(ctx, &models.ProjectMember{Project: primitive.NewObjectID(), User: user}))

	n, err := store.Members.CountByProject(ctx, project)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, store.Members.Delete(ctx, project, user))
	assert.ErrorIs(t, store.Members.Delete(ctx, project, user), repositories.ErrNotFound)
}

func TestMemoryProjectNameIsUnique(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()

	a := &models.Project{Name: "alpha"}
	b := &models.Project{Name: "beta"}
	require.NoError(t, store.Projects.Create(ctx, a))
	require.NoError(t, store.Projects.Create(ctx, b))

	assert.ErrorIs(t, store.Projects.Create(ctx, &models.Project{Name: "alpha"}), repositories.ErrDuplicate)

	b.Name = "alpha"
	assert.ErrorIs(t, store.Projects.Update(ctx, b), repositories.ErrDuplicate)
}

func TestMemoryTaskCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()

	task := &models.Task{Project: primitive.NewObjectID(), Attachments: []models.Attachment{{URL: "a"}}}
	require.NoError(t, store.Tasks.Create(ctx, task))

	found, err := store.Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	found.Attachments[0].URL = "changed"

	again, err := store.Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Attachments[0].URL)
}

func TestMemoryCascadeDeletes(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	project := primitive.NewObjectID()

	task := &models.Task{Project: project}
	require.NoError(t, store.Tasks.Create(ctx, task))
	require.NoError(t, store.SubTasks.Create(ctx, &models.SubTask{Task: task.ID}))
	require.NoError(t, store.Notes.Create(ctx, &models.Note{Project: project}))

	require.NoError(t, store.SubTasks.DeleteByTasks(ctx, []primitive.ObjectID{task.ID}))
	require.NoError(t, store.Tasks.DeleteByProject(ctx, project))
	require.NoError(t, store.Notes.DeleteByProject(ctx, project))

	subtasks, err := store.SubTasks.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, subtasks)

	tasks, err := store.Tasks.ListByProject(ctx, project)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	notes, err := store.Notes.ListByProject(ctx, project)
	require.NoError(t, err)
	assert.Empty(t, notes)
}
