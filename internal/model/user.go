package model

import "time"

// User represents an exam-prep candidate account.
type User struct {
	ID             int        `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	PasswordHash   string     `json:"-"`
	Bio            string     `json:"bio,omitempty"`
	TargetExamDate *time.Time `json:"target_exam_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LoginRequest is the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// UpdateProfileRequest is the payload for editing profile fields.
type UpdateProfileRequest struct {
	Name           string     `json:"name" binding:"required,min=1,max=100"`
	Bio            string     `json:"bio" binding:"omitempty,max=500"`
	TargetExamDate *time.Time `json:"target_exam_date"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
