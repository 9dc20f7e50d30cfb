package dto

import (
	"time"

	"github.com/hongminglow/reveal-be/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	CPF      string `json:"cpf"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

type PlanStatus struct {
	Active  bool       `json:"active"`
	EndDate *time.Time `json:"end_date"`
}

type ProfileResponse struct {
	User models.User `json:"user"`
	Plan PlanStatus  `json:"plan"`
}

type PlanResponse struct {
	Message string      `json:"message"`
	Plan    models.Plan `json:"plan"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
