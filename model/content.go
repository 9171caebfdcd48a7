package model

import "time"

// Content is a shared community entry that status updates attach to.
type Content struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Update is a status update; a child record of Content.
type Update struct {
	ID        string    `json:"id"`
	ContentID string    `json:"contentId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscriber receives notifications.  Only approved preference changes write it.
type Subscriber struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	IsAdmin   bool      `json:"isAdmin"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultContentStatus is assigned to content created by an approved update.
const DefaultContentStatus = "open"
