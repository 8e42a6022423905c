// Package clients manages customer records.
package clients

import "github.com/odyssey-erp/boutique/internal/store"

// ClientInput is the create/update payload.
type ClientInput struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	ClientType string `json:"clientType" validate:"omitempty,oneof=Individual Business"`
	Notes      string `json:"notes"`
}

func (in ClientInput) apply(c store.Client) store.Client {
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.ClientType = store.ClientType(in.ClientType)
	if c.ClientType == "" {
		c.ClientType = store.ClientIndividual
	}
	c.Notes = in.Notes
	return c
}
