package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotePermissions(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)
	notes := NewNoteService(f.store)

	_, err := notes.CreateNote(ctx, f.member.ID, f.projectID, "hello")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	note, err := notes.CreateNote(ctx, f.lead.ID, f.projectID, "  standup at nine ")
	require.NoError(t, err)
	assert.Equal(t, "standup at nine", note.Content)
	require.NotNil(t, note.CreatedBy)
	assert.Equal(t, "lead", note.CreatedBy.Username)

	list, err := notes.ListNotes(ctx, f.member.ID, f.projectID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := notes.GetNote(ctx, f.member.ID, f.projectID, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)

	_, err = notes.UpdateNote(ctx, f.member.ID, f.projectID, note.ID, "edited")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	updated, err := notes.UpdateNote(ctx, f.admin.ID, f.projectID, note.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	require.NoError(t, notes.DeleteNote(ctx, f.lead.ID, f.projectID, note.ID))
	_, err = notes.GetNote(ctx, f.admin.ID, f.projectID, note.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestNotesAreScopedToTheirProject(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)
	notes := NewNoteService(f.store)
	other := seedProject(t, f.projects, f.admin, "Gemini", nil)

	note, err := notes.CreateNote(ctx, f.admin.ID, f.projectID, "hello")
	require.NoError(t, err)

	_, err = notes.GetNote(ctx, f.admin.ID, other, note.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = notes.ListNotes(ctx, f.member.ID, other)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}
