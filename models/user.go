package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultAvatarURL is used until the user uploads an avatar.
const DefaultAvatarURL = "https://placehold.co/600x400"

type Avatar struct {
	URL       string `bson:"url" json:"url"`
	LocalPath string `bson:"localPath" json:"-"`
}

// User is the credential record. Fields tagged json:"-" never leave the server.
type User struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Avatar                  Avatar             `bson:"avatar" json:"avatar"`
	Username                string             `bson:"username" json:"username"`
	Email                   string             `bson:"email" json:"email"`
	FullName                string             `bson:"fullName" json:"fullName"`
	Password                string             `bson:"password" json:"-"`
	RefreshToken            string             `bson:"refreshToken,omitempty" json:"-"`
	IsEmailVerified         bool               `bson:"isEmailVerified" json:"isEmailVerified"`
	EmailVerificationToken  string             `bson:"emailVerificationToken,omitempty" json:"-"`
	EmailVerificationExpiry time.Time          `bson:"emailVerificationExpiry,omitempty" json:"-"`
	ForgotPasswordToken     string             `bson:"forgotPasswordToken,omitempty" json:"-"`
	ForgotPasswordExpiry    time.Time          `bson:"forgotPasswordExpiry,omitempty" json:"-"`
	CreatedAt               time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the only projection of a user embedded in other resources.
type UserSummary struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	FullName string             `json:"fullName"`
	Avatar   Avatar             `json:"avatar"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}
