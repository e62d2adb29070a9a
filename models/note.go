package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Note struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Project   primitive.ObjectID `bson:"project" json:"project"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type NoteView struct {
	ID        primitive.ObjectID `json:"_id"`
	Project   primitive.ObjectID `json:"project"`
	CreatedBy *UserSummary       `json:"createdBy"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
