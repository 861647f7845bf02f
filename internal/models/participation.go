package models

import (
	"time"
)

// Participation roles
const (
	ParticipationRoleDriver = "driver"
	ParticipationRoleRider  = "rider"
)

// Participation joins a person to a trip. Its flags only ever go from false
// to true; rows are never deleted.
type Participation struct {
	ID                  string     `db:"id" json:"id"`
	PersonID            string     `db:"person_id" json:"person_id"`
	TripID              string     `db:"trip_id" json:"trip_id"`
	Role                string     `db:"role" json:"role"`
	Requested           bool       `db:"requested" json:"requested"`
	RequestedTimestamp  *time.Time `db:"requested_timestamp" json:"requested_timestamp,omitempty"`
	RequestedPositionID *string    `db:"requested_position_id" json:"requested_position_id,omitempty"`
	RequestedDeleted    bool       `db:"requested_deleted" json:"requested_deleted"`
	Accepted            bool       `db:"accepted" json:"accepted"`
	AcceptedTimestamp   *time.Time `db:"accepted_timestamp" json:"accepted_timestamp,omitempty"`
	AcceptedPositionID  *string    `db:"accepted_position_id" json:"accepted_position_id,omitempty"`
	Refused             bool       `db:"refused" json:"refused"`
	RefusedTimestamp    *time.Time `db:"refused_timestamp" json:"refused_timestamp,omitempty"`
	RefusedPositionID   *string    `db:"refused_position_id" json:"refused_position_id,omitempty"`
	Started             bool       `db:"started" json:"started"`
	StartedTimestamp    *time.Time `db:"started_timestamp" json:"started_timestamp,omitempty"`
	StartedPositionID   *string    `db:"started_position_id" json:"started_position_id,omitempty"`
	Finished            bool       `db:"finished" json:"finished"`
	FinishedTimestamp   *time.Time `db:"finished_timestamp" json:"finished_timestamp,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// IsPendingRequest reports whether the participation is an unanswered ride
// request on a trip that has not started or finished for this person.
func (p *Participation) IsPendingRequest() bool {
	return p.Requested && !p.RequestedDeleted && !p.Accepted && !p.Refused &&
		!p.Started && !p.Finished
}

// CanAccept mirrors the conditional update used to accept a request.
func (p *Participation) CanAccept() bool {
	return p.Requested && !p.RequestedDeleted && !p.Accepted && !p.Refused
}

// CanRefuse reports whether a refusal would apply. Outside strict mode any
// participation may be refused.
func (p *Participation) CanRefuse(strict bool) bool {
	if !strict {
		return true
	}
	return p.Requested && !p.Accepted && !p.Refused
}

func (p *Participation) CanStart() bool {
	return !p.Started
}

// CanFinish reports whether the participation is started and not yet finished.
func (p *Participation) CanFinish() bool {
	return p.Started && !p.Finished
}
