package repositories

import (
	"context"
	"errors"
	"time"

	"project-camp/api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	FindByVerificationToken(ctx context.Context, hashed string, now time.Time) (*models.User, error)
	FindByResetToken(ctx context.Context, hashed string, now time.Time) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *models.ProjectMember) error
	Find(ctx context.Context, projectID, userID primitive.ObjectID) (*models.ProjectMember, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.ProjectMember, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ProjectMember, error)
	CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
	Update(ctx context.Context, member *models.ProjectMember) error
	Delete(ctx context.Context, projectID, userID primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error
}

type SubTaskRepository interface {
	Create(ctx context.Context, subtask *models.SubTask) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.SubTask, error)
	ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.SubTask, error)
	Update(ctx context.Context, subtask *models.SubTask) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByTasks(ctx context.Context, taskIDs []primitive.ObjectID) error
}

type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Note, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error
}

// Store groups the repositories of one backing database.
type Store struct {
	Users    UserRepository
	Projects ProjectRepository
	Members  MemberRepository
	Tasks    TaskRepository
	SubTasks SubTaskRepository
	Notes    NoteRepository
}
