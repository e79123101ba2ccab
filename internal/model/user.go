package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user document in MongoDB. Profile fields are owned by the
// account service; this process reads them for presence broadcasts and owns
// the presence fields (is_online, last_seen, socket_id and the client
// metadata captured at connect time).
type User struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      string             `json:"userId" bson:"user_id"`
	FirstName   string             `json:"firstName" bson:"first_name"`
	LastName    string             `json:"lastName" bson:"last_name"`
	Email       string             `json:"email" bson:"email"`
	Avatar      string             `json:"avatar" bson:"avatar"`
	IsActive    bool               `json:"isActive" bson:"is_active"`
	IsOnline    bool               `json:"isOnline" bson:"is_online"`
	LastSeen    time.Time          `json:"lastSeen" bson:"last_seen"`
	SocketID    string             `json:"socketId" bson:"socket_id"`
	DeviceInfo  string             `json:"deviceInfo" bson:"device_info"`
	LastLoginIP string             `json:"lastLoginIp" bson:"last_login_ip"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   *time.Time         `json:"updatedAt" bson:"updated_at"`
}

// Identity returns the canonical identity of the user.
func (u *User) Identity() Identity {
	return ParseIdentity(u.UserID)
}

// Profile is the public subset of a user that rides along with presence
// broadcasts and typing indicators.
type Profile struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Avatar    string `json:"image,omitempty"`
}

// Profile extracts the broadcastable subset of the user document.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.UserID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Avatar:    u.Avatar,
	}
}

// PresenceStatus is the per-identity answer to a batch status read.
type PresenceStatus struct {
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}
