// Package client keeps the customer directory: validation, identity
// resolution with merge-on-save, and CSV exchange.
package client

import (
	"strings"
	"time"
)

// Record is a stored client.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r Record) trimmed() Record {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.TrimSpace(r.Type)
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	return r
}

// matches reports whether incoming identifies the same client as r:
// same id, same non-empty email, or same non-empty name and phone.
func (r Record) matches(incoming Record) bool {
	if incoming.ID != "" && r.ID == incoming.ID {
		return true
	}
	if incoming.Email != "" && r.Email != "" && strings.EqualFold(r.Email, incoming.Email) {
		return true
	}
	return incoming.Name != "" && incoming.Phone != "" &&
		r.Name == incoming.Name && r.Phone == incoming.Phone
}

// merge overwrites r with every non-empty field of incoming.
func (r Record) merge(incoming Record) Record {
	if incoming.Name != "" {
		r.Name = incoming.Name
	}
	if incoming.Type != "" {
		r.Type = incoming.Type
	}
	if incoming.Address != "" {
		r.Address = incoming.Address
	}
	if incoming.Phone != "" {
		r.Phone = incoming.Phone
	}
	if incoming.Email != "" {
		r.Email = incoming.Email
	}
	return r
}
