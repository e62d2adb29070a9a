package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"project-camp/api/models"
	"project-camp/api/policy"
	"project-camp/api/repositories"
	"project-camp/api/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NoteService struct {
	projectAccess
	users repositories.UserRepository
	notes repositories.NoteRepository
	now   func() time.Time
}

func NewNoteService(store *repositories.Store) *NoteService {
	return &NoteService{
		projectAccess: projectAccess{projects: store.Projects, members: store.Members},
		users:         store.Users,
		notes:         store.Notes,
		now:           time.Now,
	}
}

func (s *NoteService) ListNotes(ctx context.Context, userID, projectID primitive.ObjectID) ([]models.NoteView, error) {
	if _, err := s.authorize(ctx, projectID, userID, policy.ViewProject); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading notes: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.CreatedBy)
	}
	dir, err := loadUsers(ctx, s.users, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]models.NoteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, noteView(n, dir))
	}
	return views, nil
}

func (s *NoteService) CreateNote(ctx context.Context, userID, projectID primitive.ObjectID, content string) (*models.NoteView, error) {
	if _, err := s.authorize(ctx, projectID, userID, policy.CreateNote); err != nil {
		return nil, err
	}
	now := s.now()
	note := &models.Note{
		Project:   projectID,
		CreatedBy: userID,
		Content:   strings.TrimSpace(content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return s.view(ctx, note)
}

func (s *NoteService) GetNote(ctx context.Context, userID, projectID, noteID primitive.ObjectID) (*models.NoteView, error) {
	if _, err := s.authorize(ctx, projectID, userID, policy.ViewProject); err != nil {
		return nil, err
	}
	note, err := s.findNote(ctx, projectID, noteID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, note)
}

func (s *NoteService) UpdateNote(ctx context.Context, userID, projectID, noteID primitive.ObjectID, content string) (*models.NoteView, error) {
	if _, err := s.authorize(ctx, projectID, userID, policy.UpdateNote); err != nil {
		return nil, err
	}
	note, err := s.findNote(ctx, projectID, noteID)
	if err != nil {
		return nil, err
	}
	note.Content = strings.TrimSpace(content)
	note.UpdatedAt = s.now()
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return s.view(ctx, note)
}

func (s *NoteService) DeleteNote(ctx context.Context, userID, projectID, noteID primitive.ObjectID) error {
	if _, err := s.authorize(ctx, projectID, userID, policy.DeleteNote); err != nil {
		return err
	}
	note, err := s.findNote(ctx, projectID, noteID)
	if err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, note.ID); err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	return nil
}

func (s *NoteService) findNote(ctx context.Context, projectID, noteID primitive.ObjectID) (*models.Note, error) {
	note, err := s.notes.FindByID(ctx, noteID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && note.Project != projectID) {
		return nil, utils.NotFound("Note not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding note: %w", err)
	}
	return note, nil
}

func (s *NoteService) view(ctx context.Context, note *models.Note) (*models.NoteView, error) {
	dir, err := loadUsers(ctx, s.users, note.CreatedBy)
	if err != nil {
		return nil, err
	}
	view := noteView(*note, dir)
	return &view, nil
}

func noteView(n models.Note, dir userDirectory) models.NoteView {
	return models.NoteView{
		ID:        n.ID,
		Project:   n.Project,
		CreatedBy: dir.lookup(n.CreatedBy),
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
