package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

var AvailableTaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

type Attachment struct {
	URL      string `bson:"url" json:"url"`
	MimeType string `bson:"mimetype" json:"mimetype"`
	Size     int64  `bson:"size" json:"size"`
}

type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Project     primitive.ObjectID  `bson:"project" json:"project"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedBy  primitive.ObjectID  `bson:"assignedBy" json:"assignedBy"`
	Status      TaskStatus          `bson:"status" json:"status"`
	Attachments []Attachment        `bson:"attachments" json:"attachments"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// TaskView is a task with its user references expanded.
type TaskView struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Project     primitive.ObjectID `json:"project"`
	AssignedTo  *UserSummary       `json:"assignedTo"`
	AssignedBy  *UserSummary       `json:"assignedBy"`
	Status      TaskStatus         `json:"status"`
	Attachments []Attachment       `json:"attachments"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type Completion struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type TaskDetail struct {
	TaskView
	SubTasks   []SubTaskView `json:"subtasks"`
	Completion Completion    `json:"completion"`
}
