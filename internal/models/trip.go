package models

import (
	"time"
)

type Trip struct {
	ID        string     `db:"id" json:"id"`
	AuthorID  string     `db:"author_id" json:"author_id"`
	ModeID    string     `db:"mode_id" json:"mode_id"`
	PrefsID   string     `db:"prefs_id" json:"prefs_id"`
	Expires   *time.Time `db:"expires" json:"expires,omitempty"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// TripLocation orders a location within a trip.
type TripLocation struct {
	TripID     string `db:"trip_id"`
	LocationID string `db:"location_id"`
	Role       string `db:"role"`
	Seq        int    `db:"seq"`
}

// TripRef identifies an existing trip in an operation payload.
type TripRef struct {
	ID string `json:"id" validate:"required,uuid"`
}

// TripContent is the nested body of an experimental trip payload.
type TripContent struct {
	Mode      ModePayload       `json:"mode" validate:"required"`
	Prefs     PrefsPayload      `json:"prefs"`
	Locations []LocationPayload `json:"locations" validate:"required,min=2,dive"`
}

// TripPayload is the body accepted by the experimental trip insertion.
type TripPayload struct {
	Expires *time.Time  `json:"expires,omitempty"`
	Content TripContent `json:"content" validate:"required"`
}

// AddTripRequest is the deprecated flat insertion body.
type AddTripRequest struct {
	Trip        TripAttributes  `json:"trip"`
	Mode        ModePayload     `json:"mode" validate:"required"`
	Prefs       PrefsPayload    `json:"prefs"`
	Source      LocationPayload `json:"source" validate:"required"`
	Destination LocationPayload `json:"destination" validate:"required"`
}

type TripAttributes struct {
	Expires *time.Time `json:"expires,omitempty"`
}

// Origin returns the first origin location of the payload, if any.
func (p *TripPayload) Origin() *LocationPayload {
	return p.find(LocationRoleOrigin)
}

func (p *TripPayload) Destination() *LocationPayload {
	return p.find(LocationRoleDestination)
}

// Waypoints returns the waypoint locations in payload order.
func (p *TripPayload) Waypoints() []LocationPayload {
	var out []LocationPayload
	for _, loc := range p.Content.Locations {
		if loc.Role == LocationRoleWaypoint {
			out = append(out, loc)
		}
	}
	return out
}

func (p *TripPayload) find(role string) *LocationPayload {
	for i := range p.Content.Locations {
		if p.Content.Locations[i].Role == role {
			return &p.Content.Locations[i]
		}
	}
	return nil
}

type TripResponse struct {
	ID        string          `json:"id"`
	Author    *PersonResponse `json:"author,omitempty"`
	Expires   *time.Time      `json:"expires,omitempty"`
	Active    bool            `json:"active"`
	Mode      *Mode           `json:"mode,omitempty"`
	Prefs     *Prefs          `json:"prefs,omitempty"`
	Locations []Location      `json:"locations"`
	CreatedAt time.Time       `json:"created_at"`
}

func (t *Trip) ToResponse() *TripResponse {
	return &TripResponse{
		ID:        t.ID,
		Expires:   t.Expires,
		Active:    t.Active,
		Locations: []Location{},
		CreatedAt: t.CreatedAt,
	}
}
