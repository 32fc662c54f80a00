package model

import "time"

// User represents an account record as stored in the `users` table.
// The password hash never leaves the repository/service layers; handlers
// expose their own response types with only the public fields.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash of the password.
//  CreatedAt    – timestamp of registration.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}
