package models

import (
	"time"
)

type Prefs struct {
	ID         string    `db:"id" json:"id,omitempty"`
	Age        string    `db:"age" json:"age,omitempty"`
	Nonsmoking bool      `db:"nonsmoking" json:"nonsmoking"`
	Gender     string    `db:"gender" json:"gender,omitempty"`
	Drive      bool      `db:"drive" json:"drive"`
	Ride       bool      `db:"ride" json:"ride"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
}

type PrefsPayload struct {
	Age        string `json:"age,omitempty" validate:"max=32"`
	Nonsmoking bool   `json:"nonsmoking"`
	Gender     string `json:"gender,omitempty" validate:"max=32"`
	Drive      bool   `json:"drive"`
	Ride       bool   `json:"ride"`
}

func (p *PrefsPayload) ToPrefs() *Prefs {
	return &Prefs{
		Age:        p.Age,
		Nonsmoking: p.Nonsmoking,
		Gender:     p.Gender,
		Drive:      p.Drive,
		Ride:       p.Ride,
	}
}
