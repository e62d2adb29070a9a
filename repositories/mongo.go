package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"project-camp/api/logging"
	"project-camp/api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	projectsCollection = "projects"
	membersCollection  = "projectmembers"
	tasksCollection    = "tasks"
	subTasksCollection = "subtasks"
	notesCollection    = "projectnotes"
)

// NewMongoStore returns repositories backed by db.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:    &mongoUsers{coll: db.Collection(usersCollection)},
		Projects: &mongoProjects{coll: db.Collection(projectsCollection)},
		Members:  &mongoMembers{coll: db.Collection(membersCollection)},
		Tasks:    &mongoTasks{coll: db.Collection(tasksCollection)},
		SubTasks: &mongoSubTasks{coll: db.Collection(subTasksCollection)},
		Notes:    &mongoNotes{coll: db.Collection(notesCollection)},
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		projectsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		membersCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "project", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "project", Value: 1}}},
		},
		tasksCollection: {
			{Keys: bson.D{{Key: "project", Value: 1}}},
		},
		subTasksCollection: {
			{Keys: bson.D{{Key: "task", Value: 1}}},
		},
		notesCollection: {
			{Keys: bson.D{{Key: "project", Value: 1}}},
		},
	}

	for name, specs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
		logging.Logger.Infof("Event ID: DB_INDEXES_READY, Description: Indexes ensured on collection %s", name)
	}
	return nil
}

var byCreatedAt = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	return &out, nil
}

func findMany[T any](ctx context.Context, coll *mongo.Collection, filter any) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, byCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc any) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	return nil
}

func replaceOne(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("replace in %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, filter any) error {
	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteMany(ctx context.Context, coll *mongo.Collection, filter any) error {
	if _, err := coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("delete from %s: %w", coll.Name(), err)
	}
	return nil
}

func ensureID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

type mongoUsers struct{ coll *mongo.Collection }

func (r *mongoUsers) Create(ctx context.Context, user *models.User) error {
	ensureID(&user.ID)
	return insertOne(ctx, r.coll, user)
}

func (r *mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoUsers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return findMany[models.User](ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"email": email})
}

func (r *mongoUsers) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
}

func (r *mongoUsers) FindByVerificationToken(ctx context.Context, hashed string, now time.Time) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{
		"emailVerificationToken":  hashed,
		"emailVerificationExpiry": bson.M{"$gt": now},
	})
}

func (r *mongoUsers) FindByResetToken(ctx context.Context, hashed string, now time.Time) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{
		"forgotPasswordToken":  hashed,
		"forgotPasswordExpiry": bson.M{"$gt": now},
	})
}

func (r *mongoUsers) Update(ctx context.Context, user *models.User) error {
	return replaceOne(ctx, r.coll, user.ID, user)
}

type mongoProjects struct{ coll *mongo.Collection }

func (r *mongoProjects) Create(ctx context.Context, project *models.Project) error {
	ensureID(&project.ID)
	return insertOne(ctx, r.coll, project)
}

func (r *mongoProjects) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	return findOne[models.Project](ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoProjects) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Project, error) {
	if len(ids) == 0 {
		return []models.Project{}, nil
	}
	return findMany[models.Project](ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoProjects) Update(ctx context.Context, project *models.Project) error {
	return replaceOne(ctx, r.coll, project.ID, project)
}

func (r *mongoProjects) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, bson.M{"_id": id})
}

type mongoMembers struct{ coll *mongo.Collection }

func (r *mongoMembers) Create(ctx context.Context, member *models.ProjectMember) error {
	ensureID(&member.ID)
	return insertOne(ctx, r.coll, member)
}

func (r *mongoMembers) Find(ctx context.Context, projectID, userID primitive.ObjectID) (*models.ProjectMember, error) {
	return findOne[models.ProjectMember](ctx, r.coll, bson.M{"project": projectID, "user": userID})
}

func (r *mongoMembers) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.ProjectMember, error) {
	return findMany[models.ProjectMember](ctx, r.coll, bson.M{"project": projectID})
}

func (r *mongoMembers) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ProjectMember, error) {
	return findMany[models.ProjectMember](ctx, r.coll, bson.M{"user": userID})
}

func (r *mongoMembers) CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"project": projectID})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.coll.Name(), err)
	}
	return n, nil
}

func (r *mongoMembers) Update(ctx context.Context, member *models.ProjectMember) error {
	return replaceOne(ctx, r.coll, member.ID, member)
}

func (r *mongoMembers) Delete(ctx context.Context, projectID, userID primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, bson.M{"project": projectID, "user": userID})
}

func (r *mongoMembers) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	return deleteMany(ctx, r.coll, bson.M{"project": projectID})
}

type mongoTasks struct{ coll *mongo.Collection }

func (r *mongoTasks) Create(ctx context.Context, task *models.Task) error {
	ensureID(&task.ID)
	return insertOne(ctx, r.coll, task)
}

func (r *mongoTasks) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	return findOne[models.Task](ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoTasks) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	return findMany[models.Task](ctx, r.coll, bson.M{"project": projectID})
}

func (r *mongoTasks) Update(ctx context.Context, task *models.Task) error {
	return replaceOne(ctx, r.coll, task.ID, task)
}

func (r *mongoTasks) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoTasks) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	return deleteMany(ctx, r.coll, bson.M{"project": projectID})
}

type mongoSubTasks struct{ coll *mongo.Collection }

func (r *mongoSubTasks) Create(ctx context.Context, subtask *models.SubTask) error {
	ensureID(&subtask.ID)
	return insertOne(ctx, r.coll, subtask)
}

func (r *mongoSubTasks) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SubTask, error) {
	return findOne[models.SubTask](ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoSubTasks) ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.SubTask, error) {
	return findMany[models.SubTask](ctx, r.coll, bson.M{"task": taskID})
}

func (r *mongoSubTasks) Update(ctx context.Context, subtask *models.SubTask) error {
	return replaceOne(ctx, r.coll, subtask.ID, subtask)
}

func (r *mongoSubTasks) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoSubTasks) DeleteByTasks(ctx context.Context, taskIDs []primitive.ObjectID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	return deleteMany(ctx, r.coll, bson.M{"task": bson.M{"$in": taskIDs}})
}

type mongoNotes struct{ coll *mongo.Collection }

func (r *mongoNotes) Create(ctx context.Context, note *models.Note) error {
	ensureID(&note.ID)
	return insertOne(ctx, r.coll, note)
}

func (r *mongoNotes) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Note, error) {
	return findOne[models.Note](ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoNotes) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Note, error) {
	return findMany[models.Note](ctx, r.coll, bson.M{"project": projectID})
}

func (r *mongoNotes) Update(ctx context.Context, note *models.Note) error {
	return replaceOne(ctx, r.coll, note.ID, note)
}

func (r *mongoNotes) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoNotes) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	return deleteMany(ctx, r.coll, bson.M{"project": projectID})
}
