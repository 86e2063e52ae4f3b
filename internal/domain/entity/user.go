package entity

import (
	"time"
)

type User struct {
	ID          string `json:"id" firestore:"id"`
	Email       string `json:"email" firestore:"email"`
	DisplayName string `json:"display_name" firestore:"displayName"`
	Handle      string `json:"handle" firestore:"handle"`
	Bio         string `json:"bio,omitempty" firestore:"bio,omitempty"`
	Role        string `json:"role" firestore:"role"` // "athlete", "coach", "club", "brand", "admin"
	Status      string `json:"status" firestore:"status"`

	// AvatarPath is the object path inside the avatar bucket; AvatarURL is the
	// resolved public URL filled in by the repository.
	AvatarPath string `json:"-" firestore:"avatarPath,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`

	Sport    string `json:"sport,omitempty" firestore:"sport,omitempty"`
	Position string `json:"position,omitempty" firestore:"position,omitempty"`
	ClubName string `json:"club_name,omitempty" firestore:"clubName,omitempty"`

	LastSeen  time.Time `json:"last_seen" firestore:"lastSeen"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Snapshot trims a full profile down to the denormalized form carried on a
// conversation.
func (u *User) Snapshot() *UserSnapshot {
	if u == nil {
		return nil
	}
	return &UserSnapshot{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Handle:      u.Handle,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
	}
}
