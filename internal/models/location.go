package models

import (
	"time"
)

// Location roles
const (
	LocationRoleOrigin      = "orig"
	LocationRoleDestination = "dest"
	LocationRoleWaypoint    = "wayp"
	LocationRolePosition    = "posi"
)

// Location is an immutable geographic point. Coordinates are opaque to the
// coordinator; they are stored and echoed back, never interpreted.
type Location struct {
	ID        string     `db:"id" json:"id,omitempty"`
	Role      string     `db:"role" json:"role"`
	Label     string     `db:"label" json:"label,omitempty"`
	Street    string     `db:"street" json:"street,omitempty"`
	Town      string     `db:"town" json:"town,omitempty"`
	Region    string     `db:"region" json:"region,omitempty"`
	Country   string     `db:"country" json:"country,omitempty"`
	Postcode  string     `db:"postcode" json:"postcode,omitempty"`
	Lat       float64    `db:"lat" json:"lat"`
	Lon       float64    `db:"lon" json:"lon"`
	Leaves    *time.Time `db:"leaves" json:"leaves,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"-"`
}

// LocationPayload is a location as received from a caller.
type LocationPayload struct {
	Role     string     `json:"role" validate:"required,oneof=orig dest wayp"`
	Label    string     `json:"label,omitempty" validate:"max=255"`
	Street   string     `json:"street,omitempty" validate:"max=255"`
	Town     string     `json:"town,omitempty" validate:"max=255"`
	Region   string     `json:"region,omitempty" validate:"max=255"`
	Country  string     `json:"country,omitempty" validate:"max=255"`
	Postcode string     `json:"postcode,omitempty" validate:"max=32"`
	Lat      float64    `json:"lat" validate:"latitude"`
	Lon      float64    `json:"lon" validate:"longitude"`
	Leaves   *time.Time `json:"leaves,omitempty"`
}

func (p *LocationPayload) ToLocation() *Location {
	return &Location{
		Role:     p.Role,
		Label:    p.Label,
		Street:   p.Street,
		Town:     p.Town,
		Region:   p.Region,
		Country:  p.Country,
		Postcode: p.Postcode,
		Lat:      p.Lat,
		Lon:      p.Lon,
		Leaves:   p.Leaves,
	}
}

// PositionPayload is a person's reported current position.
type PositionPayload struct {
	Label string  `json:"label,omitempty" validate:"max=255"`
	Lat   float64 `json:"lat" validate:"latitude"`
	Lon   float64 `json:"lon" validate:"longitude"`
}

func (p *PositionPayload) ToLocation() *Location {
	return &Location{
		Role:  LocationRolePosition,
		Label: p.Label,
		Lat:   p.Lat,
		Lon:   p.Lon,
	}
}
