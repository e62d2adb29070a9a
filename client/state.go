package client

import (
	"context"
	"slices"
	"sync"

	"project-camp/api/models"
	"project-camp/api/policy"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthState holds the signed-in user.
type AuthState struct {
	mu   sync.RWMutex
	user *models.User
}

func (s *AuthState) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

func (s *AuthState) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *AuthState) IsAuthenticated() bool {
	return s.User() != nil
}

func (s *AuthState) Clear() {
	s.SetUser(nil)
}

// ProjectState is the client's view of one project's members. Permission
// checks here only shape the UI; the server decides.
type ProjectState struct {
	mu        sync.RWMutex
	api       *Client
	projectID primitive.ObjectID
	members   []models.MemberView
}

func NewProjectState(api *Client, projectID primitive.ObjectID) *ProjectState {
	return &ProjectState{api: api, projectID: projectID}
}

func (s *ProjectState) Load(ctx context.Context) error {
	members, err := s.api.ListMembers(ctx, s.projectID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = members
	return nil
}

func (s *ProjectState) Members() []models.MemberView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.members)
}

func (s *ProjectState) memberships() []models.ProjectMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ProjectMember, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, models.ProjectMember{User: m.User.ID, Project: m.Project, Role: m.Role})
	}
	return out
}

// Can reports whether user may perform action according to the loaded members.
func (s *ProjectState) Can(user primitive.ObjectID, action policy.Action) bool {
	return policy.Can(user, s.memberships(), action)
}

func (s *ProjectState) CanRemoveMember(user, target primitive.ObjectID) policy.Decision {
	return policy.CanRemoveMember(user, target, s.memberships())
}

// RemoveMember drops the member locally at once and restores it if the
// server refuses.
func (s *ProjectState) RemoveMember(ctx context.Context, userID primitive.ObjectID) error {
	return Optimistic(func() func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		previous := slices.Clone(s.members)
		s.members = slices.DeleteFunc(s.members, func(m models.MemberView) bool {
			return m.User.ID == userID
		})
		return func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.members = previous
		}
	}, func() error {
		return s.api.RemoveMember(ctx, s.projectID, userID)
	})
}

// ChangeRole updates the role locally at once and restores it on failure.
func (s *ProjectState) ChangeRole(ctx context.Context, userID primitive.ObjectID, role models.Role) error {
	return Optimistic(func() func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		previous := slices.Clone(s.members)
		for i := range s.members {
			if s.members[i].User.ID == userID {
				s.members[i].Role = role
			}
		}
		return func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.members = previous
		}
	}, func() error {
		_, err := s.api.UpdateMemberRole(ctx, s.projectID, userID, role)
		return err
	})
}
