package models

import "time"

// User is a registered account. Users are immutable once created.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
