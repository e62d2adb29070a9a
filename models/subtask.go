package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubTask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Task        primitive.ObjectID `bson:"task" json:"task"`
	IsCompleted bool               `bson:"isCompleted" json:"isCompleted"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type SubTaskView struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Task        primitive.ObjectID `json:"task"`
	IsCompleted bool               `json:"isCompleted"`
	CreatedBy   *UserSummary       `json:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// CompletionOf counts completed subtasks.
func CompletionOf(subtasks []SubTask) Completion {
	c := Completion{Total: len(subtasks)}
	for _, st := range subtasks {
		if st.IsCompleted {
			c.Completed++
		}
	}
	return c
}
