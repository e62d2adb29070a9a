package services

import (
	"context"
	"fmt"

	"project-camp/api/models"
	"project-camp/api/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// userDirectory expands user references into summaries with one lookup.
type userDirectory map[primitive.ObjectID]models.UserSummary

func loadUsers(ctx context.Context, users repositories.UserRepository, ids ...primitive.ObjectID) (userDirectory, error) {
	unique := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	found, err := users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	dir := make(userDirectory, len(found))
	for i := range found {
		dir[found[i].ID] = found[i].Summary()
	}
	return dir, nil
}

// lookup returns nil for references to users that no longer resolve.
func (d userDirectory) lookup(id primitive.ObjectID) *models.UserSummary {
	summary, ok := d[id]
	if !ok {
		return nil
	}
	return &summary
}
