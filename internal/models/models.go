package models

import "time"

// User represents an account within the FriendLoop platform. Password holds
// the bcrypt hash, never the plaintext credential.
type User struct {
	ID                     string
	Name                   string
	Username               string
	Email                  string
	Password               string
	PasswordResetToken     *string
	PasswordResetExpiresAt *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Friendship is a directed edge between two users. Direction records who
// initiated the request; once Accepted is true the relationship is symmetric.
type Friendship struct {
	ID         string
	SenderID   string
	ReceiverID string
	Accepted   bool
	CreatedAt  time.Time
	AcceptedAt *time.Time
}

// TokenPair groups the signed bearer credentials issued on login.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
