package repositories

import (
	"context"
	"slices"
	"sync"
	"time"

	"project-camp/api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryDB keeps every collection behind one lock so uniqueness checks
// and cascades see a consistent view.
type memoryDB struct {
	mu       sync.RWMutex
	users    []models.User
	projects []models.Project
	members  []models.ProjectMember
	tasks    []models.Task
	subtasks []models.SubTask
	notes    []models.Note
}

// NewMemoryStore returns repositories that live in process memory.
func NewMemoryStore() *Store {
	db := &memoryDB{}
	return &Store{
		Users:    &memoryUsers{db},
		Projects: &memoryProjects{db},
		Members:  &memoryMembers{db},
		Tasks:    &memoryTasks{db},
		SubTasks: &memorySubTasks{db},
		Notes:    &memoryNotes{db},
	}
}

func indexOf[T any](rows []T, match func(*T) bool) int {
	for i := range rows {
		if match(&rows[i]) {
			return i
		}
	}
	return -1
}

func findRow[T any](rows []T, match func(*T) bool) (*T, error) {
	i := indexOf(rows, match)
	if i < 0 {
		return nil, ErrNotFound
	}
	row := rows[i]
	return &row, nil
}

func filterRows[T any](rows []T, match func(*T) bool) []T {
	out := []T{}
	for i := range rows {
		if match(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

func replaceRow[T any](rows []T, match func(*T) bool, row T) error {
	i := indexOf(rows, match)
	if i < 0 {
		return ErrNotFound
	}
	rows[i] = row
	return nil
}

func removeRows[T any](rows []T, match func(*T) bool) ([]T, int) {
	kept := rows[:0]
	removed := 0
	for i := range rows {
		if match(&rows[i]) {
			removed++
			continue
		}
		kept = append(kept, rows[i])
	}
	return kept, removed
}

type memoryUsers struct{ db *memoryDB }

func (r *memoryUsers) Create(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if indexOf(r.db.users, func(u *models.User) bool {
		return u.Email == user.Email || u.Username == user.Username
	}) >= 0 {
		return ErrDuplicate
	}
	ensureID(&user.ID)
	r.db.users = append(r.db.users, *user)
	return nil
}

func (r *memoryUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return findRow(r.db.users, func(u *models.User) bool { return u.ID == id })
}

func (r *memoryUsers) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return filterRows(r.db.users, func(u *models.User) bool { return slices.Contains(ids, u.ID) }), nil
}

func (r *memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return findRow(r.db.users, func(u *models.User) bool { return u.Email == email })
}

func (r *memoryUsers) FindByEmailOrUsername(_ context.Context, email, username string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return findRow(r.db.users, func(u *models.User) bool {
		return u.Email == email || u.Username == username
	})
}

func (r *memoryUsers) FindByVerificationToken(_ context.Context, hashed string, now time.Time) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return findRow(r.db.users, func(u *models.User) bool {
		return hashed != "" && u.EmailVerificationToken == hashed && u.EmailVerificationExpiry.After(now)
	})
}

func (r *memoryUsers) FindByResetToken(_ context.Context, hashed string, now time.Time) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return findRow(r.db.users, func(u *models.User) bool {
		return hashed != "" && u.ForgotPasswordToken == hashed && u.ForgotPasswordExpiry.After(now)
	})
}

func (r *memoryUsers) Update(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if indexOf(r.db.users, func(u *models.User) bool {
		return u.ID != user.ID && (u.Email == user.Email || u.Username == user.Username)
	}) >= 0 {
		return ErrDuplicate
	}
	return replaceRow(r.db.users, func(u *models.User) bool { return u.ID == user.ID }, *user)
}

type memoryProjects struct{ db *memoryDB }

func (r *memoryProjects) Create(_ context.Context, project *models.Project) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if indexOf(r.db.projects, func(p *models.Project) bool { return p.Name == project.Name }) >= 0 {
		return ErrDuplicate
	}
	ensureID(&project.ID)
	r.db.projects = append(r.db.projects, *project)
	return nil
}

func (r *memoryProjects) FindByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return findRow(r.db.projects, func(p *models.Project) bool { return p.ID == id })
}

func (r *memoryProjects) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Project, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return filterRows(r.db.projects, func(p *models.Project) bool { return slices.Contains(ids, p.ID) }), nil
}

func (r *memoryProjects) Update(_ context.Context, project *models.Project) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if indexOf(r.db.projects, func(p *models.Project) bool {
		return p.ID != project.ID && p.Name == project.Name
	}) >= 0 {
		return ErrDuplicate
	}
	return replaceRow(r.db.projects, func(p *models.Project) bool { return p.ID == project.ID }, *project)
}

func (r *memoryProjects) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int
	r.db.projects, n = removeRows(r.db.projects, func(p *models.Project) bool { return p.ID == id })
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type memoryMembers struct{ db *memoryDB }

func (r *memoryMembers) Create(_ context.Context, member *models.ProjectMember) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if indexOf(r.db.members, func(m *models.ProjectMember) bool {
		return m.Project == member.Project && m.User == member.User
	}) >= 0 {
		return ErrDuplicate
	}
	ensureID(&member.ID)
	r.db.members = append(r.db.members, *member)
	return nil
}

func (r *memoryMembers) Find(_ context.Context, projectID, userID primitive.ObjectID) (*models.ProjectMember, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return findRow(r.db.members, func(m *models.ProjectMember) bool {
		return m.Project == projectID && m.User == userID
	})
}

func (r *memoryMembers) ListByProject(_ context.Context, projectID primitive.ObjectID) ([]models.ProjectMember, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return filterRows(r.db.members, func(m *models.ProjectMember) bool { return m.Project == projectID }), nil
}

func (r *memoryMembers) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.ProjectMember, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return filterRows(r.db.members, func(m *models.ProjectMember) bool { return m.User == userID }), nil
}

func (r *memoryMembers) CountByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, m := range r.db.members {
		if m.Project == projectID {
			n++
		}
	}
	return n, nil
}

func (r *memoryMembers) Update(_ context.Context, member *models.ProjectMember) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return replaceRow(r.db.members, func(m *models.ProjectMember) bool { return m.ID == member.ID }, *member)
}

func (r *memoryMembers) Delete(_ context.Context, projectID, userID primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int
	r.db.members, n = removeRows(r.db.members, func(m *models.ProjectMember) bool {
		return m.Project == projectID && m.User == userID
	})
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *memoryMembers) DeleteByProject(_ context.Context, projectID primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.members, _ = removeRows(r.db.members, func(m *models.ProjectMember) bool { return m.Project == projectID })
	return nil
}

type memoryTasks struct{ db *memoryDB }

func (r *memoryTasks) Create(_ context.Context, task *models.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ensureID(&task.ID)
	r.db.tasks = append(r.db.tasks, cloneTask(*task))
	return nil
}

func (r *memoryTasks) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	task, err := findRow(r.db.tasks, func(t *models.Task) bool { return t.ID == id })
	if err != nil {
		return nil, err
	}
	clone := cloneTask(*task)
	return &clone, nil
}

func (r *memoryTasks) ListByProject(_ context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	tasks := filterRows(r.db.tasks, func(t *models.Task) bool { return t.Project == projectID })
	for i := range tasks {
		tasks[i] = cloneTask(tasks[i])
	}
	return tasks, nil
}

func (r *memoryTasks) Update(_ context.Context, task *models.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return replaceRow(r.db.tasks, func(t *models.Task) bool { return t.ID == task.ID }, cloneTask(*task))
}

func (r *memoryTasks) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int
	r.db.tasks, n = removeRows(r.db.tasks, func(t *models.Task) bool { return t.ID == id })
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *memoryTasks) DeleteByProject(_ context.Context, projectID primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.tasks, _ = removeRows(r.db.tasks, func(t *models.Task) bool { return t.Project == projectID })
	return nil
}

func cloneTask(t models.Task) models.Task {
	t.Attachments = slices.Clone(t.Attachments)
	if t.AssignedTo != nil {
		id := *t.AssignedTo
		t.AssignedTo = &id
	}
	return t
}

type memorySubTasks struct{ db *memoryDB }

func (r *memorySubTasks) Create(_ context.Context, subtask *models.SubTask) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ensureID(&subtask.ID)
	r.db.subtasks = append(r.db.subtasks, *subtask)
	return nil
}

func (r *memorySubTasks) FindByID(_ context.Context, id primitive.ObjectID) (*models.SubTask, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return findRow(r.db.subtasks, func(st *models.SubTask) bool { return st.ID == id })
}

func (r *memorySubTasks) ListByTask(_ context.Context, taskID primitive.ObjectID) ([]models.SubTask, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return filterRows(r.db.subtasks, func(st *models.SubTask) bool { return st.Task == taskID }), nil
}

func (r *memorySubTasks) Update(_ context.Context, subtask *models.SubTask) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return replaceRow(r.db.subtasks, func(st *models.SubTask) bool { return st.ID == subtask.ID }, *subtask)
}

func (r *memorySubTasks) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int
	r.db.subtasks, n = removeRows(r.db.subtasks, func(st *models.SubTask) bool { return st.ID == id })
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *memorySubTasks) DeleteByTasks(_ context.Context, taskIDs []primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.subtasks, _ = removeRows(r.db.subtasks, func(st *models.SubTask) bool { return slices.Contains(taskIDs, st.Task) })
	return nil
}

type memoryNotes struct{ db *memoryDB }

func (r *memoryNotes) Create(_ context.Context, note *models.Note) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ensureID(&note.ID)
	r.db.notes = append(r.db.notes, *note)
	return nil
}

func (r *memoryNotes) FindByID(_ context.Context, id primitive.ObjectID) (*models.Note, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return findRow(r.db.notes, func(n *models.Note) bool { return n.ID == id })
}

func (r *memoryNotes) ListByProject(_ context.Context, projectID primitive.ObjectID) ([]models.Note, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return filterRows(r.db.notes, func(n *models.Note) bool { return n.Project == projectID }), nil
}

func (r *memoryNotes) Update(_ context.Context, note *models.Note) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return replaceRow(r.db.notes, func(n *models.Note) bool { return n.ID == note.ID }, *note)
}

func (r *memoryNotes) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int
	r.db.notes, n = removeRows(r.db.notes, func(note *models.Note) bool { return note.ID == id })
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *memoryNotes) DeleteByProject(_ context.Context, projectID primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.notes, _ = removeRows(r.db.notes, func(n *models.Note) bool { return n.Project == projectID })
	return nil
}
