package models

import (
	"time"
)

// Person is the identity a caller resolves to. Persons are owned by the
// account system; the coordinator only reads them.
type Person struct {
	ID         string    `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Email      *string   `db:"email" json:"email,omitempty"`
	PositionID *string   `db:"position_id" json:"position_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// PersonRef identifies a person in an operation payload.
type PersonRef struct {
	Username string `json:"username" validate:"required,max=150"`
}

type PersonResponse struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (p *Person) ToResponse() *PersonResponse {
	return &PersonResponse{
		Username:  p.Username,
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}
}
