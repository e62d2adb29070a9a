package services

import (
	"context"
	"net/http"
	"testing"

	"project-camp/api/models"
	"project-camp/api/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewProjectService(store, nil)
	ana := seedUser(t, store, "ana")

	created, err := svc.CreateProject(ctx, ana.ID, "  Apollo ", "moon")
	require.NoError(t, err)
	assert.Equal(t, "Apollo", created.Name)

	got, err := svc.GetProject(ctx, ana.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	updated, err := svc.UpdateProject(ctx, ana.ID, created.ID, "Artemis", "moon again")
	require.NoError(t, err)
	assert.Equal(t, "Artemis", updated.Name)

	require.NoError(t, svc.DeleteProject(ctx, ana.ID, created.ID))

	_, err = svc.GetProject(ctx, ana.ID, created.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestProjectNamesAreUnique(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewProjectService(store, nil)
	ana := seedUser(t, store, "ana")

	_, err := svc.CreateProject(ctx, ana.ID, "Apollo", "")
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, ana.ID, "Apollo", "")
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

func TestListProjectsCarriesRoleAndCount(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewProjectService(store, nil)
	ana := seedUser(t, store, "ana")
	bo := seedUser(t, store, "bo")

	seedProject(t, svc, ana, "Apollo", map[*models.User]models.Role{bo: models.RoleMember})
	seedProject(t, svc, bo, "Gemini", nil)

	items, err := svc.ListProjects(ctx, bo.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byName := map[string]models.ProjectListItem{}
	for _, item := range items {
		byName[item.Project.Name] = item
	}
	assert.Equal(t, models.RoleMember, byName["Apollo"].Role)
	assert.EqualValues(t, 2, byName["Apollo"].MemberCount)
	assert.Equal(t, models.RoleAdmin, byName["Gemini"].Role)
	assert.EqualValues(t, 1, byName["Gemini"].MemberCount)

	items, err = svc.ListProjects(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestOnlyAdminsManageMembers(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewProjectService(store, nil)
	ana := seedUser(t, store, "ana")
	lead := seedUser(t, store, "lead")
	bo := seedUser(t, store, "bo")
	cy := seedUser(t, store, "cy")

	projectID := seedProject(t, svc, ana, "Apollo", map[*models.User]models.Role{
		lead: models.RoleProjectAdmin,
		bo:   models.RoleMember,
	})

	for _, actor := range []*models.User{lead, bo} {
		_, err := svc.AddMember(ctx, actor.ID, projectID, cy.Email, models.RoleMember)
		assert.Equal(t, http.StatusForbidden, statusOf(t, err), actor.Username)

		_, err = svc.UpdateMemberRole(ctx, actor.ID, projectID, bo.ID, models.RoleAdmin)
		assert.Equal(t, http.StatusForbidden, statusOf(t, err), actor.Username)

		err = svc.RemoveMember(ctx, actor.ID, projectID, bo.ID)
		assert.Equal(t, http.StatusForbidden, statusOf(t, err), actor.Username)

		_, err = svc.UpdateProject(ctx, actor.ID, projectID, "Renamed", "")
		assert.Equal(t, http.StatusForbidden, statusOf(t, err), actor.Username)
	}

	_, err := svc.AddMember(ctx, cy.ID, projectID, cy.Email, models.RoleMember)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err), "non-members cannot add themselves")
}

func TestAddMemberErrors(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewProjectService(store, nil)
	ana := seedUser(t, store, "ana")
	bo := seedUser(t, store, "bo")
	projectID := seedProject(t, svc, ana, "Apollo", map[*models.User]models.Role{bo: models.RoleMember})

	_, err := svc.AddMember(ctx, ana.ID, projectID, bo.Email, models.RoleMember)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = svc.AddMember(ctx, ana.ID, projectID, "ghost@example.com", models.RoleMember)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = svc.AddMember(ctx, ana.ID, projectID, bo.Email, "owner")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.AddMember(ctx, ana.ID, primitive.NewObjectID(), bo.Email, models.RoleMember)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

// A creates a project, invites B, and can only leave once B is an admin.
func TestLastAdminHandOver(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewProjectService(store, nil)
	a := seedUser(t, store, "alice")
	b := seedUser(t, store, "bob")
	projectID := seedProject(t, svc, a, "Apollo", map[*models.User]models.Role{b: models.RoleMember})

	err := svc.RemoveMember(ctx, b.ID, projectID, a.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	err = svc.RemoveMember(ctx, a.ID, projectID, a.ID)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.UpdateMemberRole(ctx, a.ID, projectID, a.ID, models.RoleMember)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	view, err := svc.UpdateMemberRole(ctx, a.ID, projectID, b.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, view.Role)
	assert.Equal(t, "bob", view.User.Username)

	require.NoError(t, svc.RemoveMember(ctx, a.ID, projectID, a.ID))

	members, err := svc.ListMembers(ctx, b.ID, projectID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, b.ID, members[0].User.ID)

	_, err = svc.GetProject(ctx, a.ID, projectID)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	err = svc.RemoveMember(ctx, b.ID, projectID, a.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	projects := NewProjectService(store, nil)
	tasks := NewTaskService(store, nil)
	notes := NewNoteService(store)
	ana := seedUser(t, store, "ana")
	projectID := seedProject(t, projects, ana, "Apollo", nil)

	task, err := tasks.CreateTask(ctx, ana.ID, projectID, TaskInput{Title: "Launch"}, nil)
	require.NoError(t, err)
	_, err = tasks.CreateSubTask(ctx, ana.ID, projectID, task.ID, "Fuel")
	require.NoError(t, err)
	_, err = notes.CreateNote(ctx, ana.ID, projectID, "Remember the checklist")
	require.NoError(t, err)

	require.NoError(t, projects.DeleteProject(ctx, ana.ID, projectID))

	left, err := store.Tasks.ListByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, left)

	subtasks, err := store.SubTasks.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, subtasks)

	remaining, err := store.Notes.ListByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	count, err := store.Members.CountByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteProjectRemovesAttachmentFiles(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	uploads := newUploadStore(t)
	projects := NewProjectService(store, uploads)
	tasks := NewTaskService(store, uploads)
	ana := seedUser(t, store, "ana")
	projectID := seedProject(t, projects, ana, "Apollo", nil)

	_, err := tasks.CreateTask(ctx, ana.ID, projectID, TaskInput{Title: "Launch"}, uploadFiles(t, "plan.txt", "map.png"))
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, ana.ID, projectID, TaskInput{Title: "Land"}, uploadFiles(t, "route.txt"))
	require.NoError(t, err)
	require.Equal(t, 3, storedFiles(t, uploads))

	require.NoError(t, projects.DeleteProject(ctx, ana.ID, projectID))

	assert.Zero(t, storedFiles(t, uploads))
}
