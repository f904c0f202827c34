// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash is a bcrypt digest and must
// never leave the server.
type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"-"`
	PostIDs      []string  `json:"posts"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public returns a copy of u with the password hash removed.
func (u *User) Public() *User {
	c := *u
	c.PasswordHash = nil
	c.PostIDs = append([]string(nil), u.PostIDs...)
	return &c
}
