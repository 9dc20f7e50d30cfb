package models

import "time"

// User captures application-facing fields for a registered player.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	CPF          string    `json:"cpf"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
