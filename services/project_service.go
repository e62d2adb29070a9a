package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"project-camp/api/logging"
	"project-camp/api/models"
	"project-camp/api/policy"
	"project-camp/api/repositories"
	"project-camp/api/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectService struct {
	projectAccess
	users    repositories.UserRepository
	tasks    repositories.TaskRepository
	subtasks repositories.SubTaskRepository
	notes    repositories.NoteRepository
	uploads  *utils.UploadStore
	now      func() time.Time
}

// NewProjectService builds the service. uploads holds task attachments, which
// go with the project; nil skips file cleanup.
func NewProjectService(store *repositories.Store, uploads *utils.UploadStore) *ProjectService {
	return &ProjectService{
		projectAccess: projectAccess{projects: store.Projects, members: store.Members},
		users:         store.Users,
		tasks:         store.Tasks,
		subtasks:      store.SubTasks,
		notes:         store.Notes,
		uploads:       uploads,
		now:           time.Now,
	}
}

// ListProjects returns every project user belongs to with the caller's role
// and the member count.
func (s *ProjectService) ListProjects(ctx context.Context, userID primitive.ObjectID) ([]models.ProjectListItem, error) {
	memberships, err := s.members.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading memberships: %w", err)
	}

	roles := make(map[primitive.ObjectID]models.Role, len(memberships))
	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		roles[m.Project] = m.Role
		ids = append(ids, m.Project)
	}

	projects, err := s.projects.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}

	items := make([]models.ProjectListItem, 0, len(projects))
	for _, p := range projects {
		count, err := s.members.CountByProject(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("counting members: %w", err)
		}
		items = append(items, models.ProjectListItem{Project: p, Role: roles[p.ID], MemberCount: count})
	}
	return items, nil
}

// CreateProject stores the project and makes its creator the first admin.
func (s *ProjectService) CreateProject(ctx context.Context, userID primitive.ObjectID, name, description string) (*models.Project, error) {
	now := s.now()
	project := &models.Project{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.Conflict("Project with this name already exists")
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	admin := &models.ProjectMember{
		User:      userID,
		Project:   project.ID,
		Role:      models.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.members.Create(ctx, admin); err != nil {
		if delErr := s.projects.Delete(ctx, project.ID); delErr != nil {
			logging.Logger.Errorf("Event ID: PROJECT_ROLLBACK_FAILED, Description: Project %s left without admin: %v", project.ID.Hex(), delErr)
		}
		return nil, fmt.Errorf("failed to add project admin: %w", err)
	}

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project '%s' created by %s", project.Name, userID.Hex())
	return project, nil
}

func (s *ProjectService) GetProject(ctx context.Context, userID, projectID primitive.ObjectID) (*models.Project, error) {
	if _, err := s.authorize(ctx, projectID, userID, policy.ViewProject); err != nil {
		return nil, err
	}
	return s.findProject(ctx, projectID)
}

func (s *ProjectService) UpdateProject(ctx context.Context, userID, projectID primitive.ObjectID, name, description string) (*models.Project, error) {
	if _, err := s.authorize(ctx, projectID, userID, policy.UpdateProject); err != nil {
		return nil, err
	}
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	project.Name = strings.TrimSpace(name)
	project.Description = strings.TrimSpace(description)
	project.UpdatedAt = s.now()
	if err := s.projects.Update(ctx, project); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.Conflict("Project with this name already exists")
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// DeleteProject removes the project together with its subtasks, tasks, notes
// and memberships.
func (s *ProjectService) DeleteProject(ctx context.Context, userID, projectID primitive.ObjectID) error {
	if _, err := s.authorize(ctx, projectID, userID, policy.DeleteProject); err != nil {
		return err
	}

	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	taskIDs := make([]primitive.ObjectID, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
	}

	if err := s.subtasks.DeleteByTasks(ctx, taskIDs); err != nil {
		return fmt.Errorf("deleting subtasks: %w", err)
	}
	if err := s.tasks.DeleteByProject(ctx, projectID); err != nil {
		return fmt.Errorf("deleting tasks: %w", err)
	}
	if err := s.notes.DeleteByProject(ctx, projectID); err != nil {
		return fmt.Errorf("deleting notes: %w", err)
	}
	if err := s.members.DeleteByProject(ctx, projectID); err != nil {
		return fmt.Errorf("deleting members: %w", err)
	}
	if err := s.projects.Delete(ctx, projectID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("deleting project: %w", err)
	}
	for _, t := range tasks {
		removeAttachments(s.uploads, t.Attachments)
	}

	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted by %s", projectID.Hex(), userID.Hex())
	return nil
}

func (s *ProjectService) ListMembers(ctx context.Context, userID, projectID primitive.ObjectID) ([]models.MemberView, error) {
	members, err := s.authorize(ctx, projectID, userID, policy.ViewProject)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.User)
	}
	dir, err := loadUsers(ctx, s.users, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]models.MemberView, 0, len(members))
	for _, m := range members {
		summary := dir.lookup(m.User)
		if summary == nil {
			continue
		}
		views = append(views, memberView(m, *summary))
	}
	return views, nil
}

// AddMember invites an existing user by email.
func (s *ProjectService) AddMember(ctx context.Context, userID, projectID primitive.ObjectID, email string, role models.Role) (*models.MemberView, error) {
	if !role.IsValid() {
		return nil, utils.BadRequest(policy.ReasonInvalidRole)
	}
	if _, err := s.authorize(ctx, projectID, userID, policy.ManageMembers); err != nil {
		return nil, err
	}

	invitee, err := s.users.FindByEmail(ctx, normalize(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, utils.NotFound("User does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}

	now := s.now()
	member := &models.ProjectMember{
		User:      invitee.ID,
		Project:   projectID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.Conflict("User is already a member of this project")
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	logging.Logger.Infof("Event ID: MEMBER_ADDED, Description: User '%s' added to project %s as %s", invitee.Username, projectID.Hex(), role)
	view := memberView(*member, invitee.Summary())
	return &view, nil
}

// UpdateMemberRole changes target's role. Demoting the only admin is refused.
func (s *ProjectService) UpdateMemberRole(ctx context.Context, userID, projectID, targetID primitive.ObjectID, newRole models.Role) (*models.MemberView, error) {
	members, err := s.loadMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if d := policy.CanChangeRole(userID, targetID, newRole, members); d.Denied() {
		return nil, decisionError(d)
	}

	member, err := s.members.Find(ctx, projectID, targetID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, utils.NotFound(policy.ReasonTargetMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("finding member: %w", err)
	}

	member.Role = newRole
	member.UpdatedAt = s.now()
	if err := s.members.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	view := memberView(*member, target.Summary())
	return &view, nil
}

// RemoveMember deletes target's membership. The admin count is read before
// the delete, so two concurrent removals of the last two admins can both pass.
func (s *ProjectService) RemoveMember(ctx context.Context, userID, projectID, targetID primitive.ObjectID) error {
	members, err := s.loadMembers(ctx, projectID)
	if err != nil {
		return err
	}
	if d := policy.CanRemoveMember(userID, targetID, members); d.Denied() {
		return decisionError(d)
	}

	if err := s.members.Delete(ctx, projectID, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return utils.NotFound(policy.ReasonTargetMissing)
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}
	logging.Logger.Infof("Event ID: MEMBER_REMOVED, Description: User %s removed from project %s", targetID.Hex(), projectID.Hex())
	return nil
}

func (s *ProjectService) findProject(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, utils.NotFound("Project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding project: %w", err)
	}
	return project, nil
}

func memberView(m models.ProjectMember, user models.UserSummary) models.MemberView {
	return models.MemberView{
		User:      user,
		Project:   m.Project,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
