package models

import "time"

// Employee belongs to an admin and logs in separately to see assigned work.
type Employee struct {
	ID           string    `json:"id"`
	AdminID      string    `json:"adminId"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	JobTitle     string    `json:"jobTitle,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Project groups tasks and documents.
type Project struct {
	ID          string    `json:"id"`
	AdminID     string    `json:"adminId"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID         string    `json:"id"`
	AdminID    string    `json:"adminId"`
	ProjectID  string    `json:"projectId"`
	Title      string    `json:"title"`
	Status     string    `json:"status"` // todo, in_progress, done
	AssigneeID *string   `json:"assigneeId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Document is a markdown document attached to a project.
type Document struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"adminId"`
	ProjectID *string   `json:"projectId,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Research stores a query and the text the research service returned.
type Research struct {
	ID         string    `json:"id"`
	AdminID    string    `json:"adminId"`
	Query      string    `json:"query"`
	Result     string    `json:"result"`
	TokensUsed int       `json:"tokensUsed"`
	CreatedAt  time.Time `json:"createdAt"`
}
