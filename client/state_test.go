package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"project-camp/api/client"
	"project-camp/api/models"
	"project-camp/api/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOptimistic(t *testing.T) {
	value := 1
	apply := func() func() {
		value = 2
		return func() { value = 1 }
	}

	require.NoError(t, client.Optimistic(apply, func() error { return nil }))
	assert.Equal(t, 2, value)

	value = 1
	boom := errors.New("boom")
	err := client.Optimistic(apply, func() error {
		assert.Equal(t, 2, value, "change is visible before the commit returns")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, value)
}

type projectFixture struct {
	projectID primitive.ObjectID
	admin     primitive.ObjectID
	member    primitive.ObjectID
	state     *client.ProjectState
	// seenMembers and seenAdmins are what ProjectState held while the
	// server was handling the last mutation.
	seenMembers int
	seenAdmins  int
}

func newProjectFixture(t *testing.T, mutationStatus int) *projectFixture {
	t.Helper()
	f := &projectFixture{
		projectID: primitive.NewObjectID(),
		admin:     primitive.NewObjectID(),
		member:    primitive.NewObjectID(),
	}
	members := []models.MemberView{
		{User: models.UserSummary{ID: f.admin, Username: "ana"}, Project: f.projectID, Role: models.RoleAdmin},
		{User: models.UserSummary{ID: f.member, Username: "bo"}, Project: f.projectID, Role: models.RoleMember},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/members"):
			writeEnvelope(w, http.StatusOK, members, "Project members fetched successfully")
		case r.Method == http.MethodDelete || r.Method == http.MethodPut:
			current := f.state.Members()
			f.seenMembers = len(current)
			f.seenAdmins = 0
			for _, m := range current {
				if m.Role == models.RoleAdmin {
					f.seenAdmins++
				}
			}
			if mutationStatus != http.StatusOK {
				writeEnvelope(w, mutationStatus, nil, policy.ReasonForbidden)
				return
			}
			writeEnvelope(w, http.StatusOK, map[string]any{}, "ok")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	api := client.New(srv.URL, client.Options{Notifier: &recordingNotifier{}})
	f.state = client.NewProjectState(api, f.projectID)
	require.NoError(t, f.state.Load(context.Background()))
	return f
}

func TestProjectStatePermissions(t *testing.T) {
	f := newProjectFixture(t, http.StatusOK)

	assert.True(t, f.state.Can(f.admin, policy.ManageMembers))
	assert.False(t, f.state.Can(f.member, policy.ManageMembers))
	assert.True(t, f.state.Can(f.member, policy.UpdateSubTask))
	assert.False(t, f.state.Can(primitive.NewObjectID(), policy.ViewProject))

	d := f.state.CanRemoveMember(f.admin, f.admin)
	assert.True(t, d.IsLastAdmin())
	assert.True(t, f.state.CanRemoveMember(f.admin, f.member).Allowed)
}

func TestProjectStateRemoveMember(t *testing.T) {
	f := newProjectFixture(t, http.StatusOK)

	require.NoError(t, f.state.RemoveMember(context.Background(), f.member))

	assert.Equal(t, 1, f.seenMembers)
	require.Len(t, f.state.Members(), 1)
	assert.Equal(t, f.admin, f.state.Members()[0].User.ID)
}

func TestProjectStateRemoveMemberRollsBack(t *testing.T) {
	f := newProjectFixture(t, http.StatusForbidden)

	err := f.state.RemoveMember(context.Background(), f.member)
	require.Error(t, err)

	assert.True(t, client.IsStatus(err, http.StatusForbidden))
	assert.Equal(t, 1, f.seenMembers)
	assert.Len(t, f.state.Members(), 2)
}

func TestProjectStateChangeRole(t *testing.T) {
	f := newProjectFixture(t, http.StatusOK)

	require.NoError(t, f.state.ChangeRole(context.Background(), f.member, models.RoleAdmin))

	assert.Equal(t, 2, f.seenAdmins)
	assert.True(t, f.state.Can(f.member, policy.ManageMembers))
}

func TestProjectStateChangeRoleRollsBack(t *testing.T) {
	f := newProjectFixture(t, http.StatusForbidden)

	err := f.state.ChangeRole(context.Background(), f.member, models.RoleAdmin)
	require.Error(t, err)

	assert.Equal(t, 2, f.seenAdmins)
	assert.False(t, f.state.Can(f.member, policy.ManageMembers))
}
