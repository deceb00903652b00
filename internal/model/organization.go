package model

import "time"

// Instance is an organizational tenant. Groups, students and the products,
// stocks and share types offered to them are scoped by instance.
type Instance struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// Group represents a class of students inside an instance.
type Group struct {
	ID         string     `json:"id"`
	InstanceID string     `json:"instanceId"`
	Name       string     `json:"name"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// Student represents an account holder. Soft-deleted students keep their
// shares and ledger but can no longer transact.
type Student struct {
	ID            string     `json:"id"`
	GroupID       string     `json:"groupId"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	AccountNumber string     `json:"accountNumber"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
}
