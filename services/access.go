package services

import (
	"context"
	"errors"
	"fmt"

	"project-camp/api/models"
	"project-camp/api/policy"
	"project-camp/api/repositories"
	"project-camp/api/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// projectAccess is the server-side gate every project-scoped operation passes.
type projectAccess struct {
	projects repositories.ProjectRepository
	members  repositories.MemberRepository
}

// loadMembers returns the project's members, or 404 when the project is gone.
func (a projectAccess) loadMembers(ctx context.Context, projectID primitive.ObjectID) ([]models.ProjectMember, error) {
	members, err := a.members.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading members: %w", err)
	}
	if len(members) > 0 {
		return members, nil
	}
	if _, err := a.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, utils.NotFound("Project not found")
		}
		return nil, fmt.Errorf("finding project: %w", err)
	}
	return members, nil
}

// authorize checks action for user and returns the members it decided on.
func (a projectAccess) authorize(ctx context.Context, projectID, userID primitive.ObjectID, action policy.Action) ([]models.ProjectMember, error) {
	members, err := a.loadMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if d := policy.Check(userID, members, action); d.Denied() {
		return nil, decisionError(d)
	}
	return members, nil
}

func decisionError(d policy.Decision) error {
	switch d.Reason {
	case policy.ReasonLastAdmin, policy.ReasonInvalidRole:
		return utils.BadRequest(d.Reason)
	case policy.ReasonTargetMissing:
		return utils.NotFound(d.Reason)
	default:
		return utils.Forbidden(d.Reason)
	}
}
