package domain

import "time"

type User struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	Email      string    `bson:"email" json:"email"`
	College    string    `bson:"college" json:"college"`
	Department string    `bson:"department,omitempty" json:"department,omitempty"`
	Hostel     string    `bson:"hostel,omitempty" json:"hostel,omitempty"`
	AvatarURL  string    `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// UserRef is the identity slice of a user embedded in populated responses.
type UserRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hostel string `json:"hostel,omitempty"`
}

func (u *User) Ref() *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Name: u.Name, Hostel: u.Hostel}
}
