package models

import (
	"time"
)

// Mode kinds
const (
	ModeKindCar = "car"
	ModeKindVan = "van"
	ModeKindBus = "bus"
)

// Mode is a driver's vehicle. A person may own several modes, but only one
// per (make, model, capacity, kind) signature.
type Mode struct {
	ID        string    `db:"id" json:"id,omitempty"`
	PersonID  string    `db:"person_id" json:"-"`
	Kind      string    `db:"kind" json:"kind"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Vacancy   int       `db:"vacancy" json:"vacancy"`
	Make      string    `db:"make" json:"make"`
	Model     string    `db:"model" json:"model"`
	Year      int       `db:"year" json:"year,omitempty"`
	Color     string    `db:"color" json:"color,omitempty"`
	Lic       string    `db:"lic" json:"lic,omitempty"`
	Cost      float64   `db:"cost" json:"cost,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

type ModePayload struct {
	Kind     string  `json:"kind" validate:"required,oneof=car van bus"`
	Capacity int     `json:"capacity" validate:"min=0"`
	Vacancy  int     `json:"vacancy" validate:"min=0,ltefield=Capacity"`
	Make     string  `json:"make" validate:"max=255"`
	Model    string  `json:"model" validate:"max=255"`
	Year     int     `json:"year,omitempty" validate:"min=0"`
	Color    string  `json:"color,omitempty" validate:"max=255"`
	Lic      string  `json:"lic,omitempty" validate:"max=255"`
	Cost     float64 `json:"cost,omitempty" validate:"min=0"`
}

func (p *ModePayload) ToMode(personID string) *Mode {
	return &Mode{
		PersonID: personID,
		Kind:     p.Kind,
		Capacity: p.Capacity,
		Vacancy:  p.Vacancy,
		Make:     p.Make,
		Model:    p.Model,
		Year:     p.Year,
		Color:    p.Color,
		Lic:      p.Lic,
		Cost:     p.Cost,
	}
}

// SameSignature reports whether two modes deduplicate to the same row.
func (m *Mode) SameSignature(other *Mode) bool {
	return m.PersonID == other.PersonID &&
		m.Make == other.Make &&
		m.Model == other.Model &&
		m.Capacity == other.Capacity &&
		m.Kind == other.Kind
}
