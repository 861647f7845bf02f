package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/google/uuid"
)

type memoryState struct {
	persons        map[string]models.Person
	locations      map[string]models.Location
	modes          map[string]models.Mode
	prefs          map[string]models.Prefs
	trips          map[string]models.Trip
	tripLocations  []models.TripLocation
	participations []models.Participation
}

func newMemoryState() *memoryState {
	return &memoryState{
		persons:   make(map[string]models.Person),
		locations: make(map[string]models.Location),
		modes:     make(map[string]models.Mode),
		prefs:     make(map[string]models.Prefs),
		trips:     make(map[string]models.Trip),
	}
}

func (st *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range st.persons {
		c.persons[k] = v
	}
	for k, v := range st.locations {
		c.locations[k] = v
	}
	for k, v := range st.modes {
		c.modes[k] = v
	}
	for k, v := range st.prefs {
		c.prefs[k] = v
	}
	for k, v := range st.trips {
		c.trips[k] = v
	}
	c.tripLocations = append([]models.TripLocation(nil), st.tripLocations...)
	c.participations = append([]models.Participation(nil), st.participations...)
	return c
}

// MemoryStore keeps all state in process. Transactions take the store-wide
// write lock and work on a copy of the state that replaces the shared state on
// commit, so they are fully serialized and roll back cleanly.
type MemoryStore struct {
	mu    *sync.RWMutex
	root  *MemoryStore
	state *memoryState
	inTx  bool
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{mu: &sync.RWMutex{}, state: newMemoryState()}
	s.root = s
	return s
}

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{mu: s.mu, root: s.root, state: s.root.state.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.root.state = tx.state
	return nil
}

func (s *MemoryStore) read(fn func(st *memoryState)) {
	if s.inTx {
		fn(s.state)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.root.state)
}

func (s *MemoryStore) write(fn func(st *memoryState) error) error {
	if s.inTx {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.root.state)
}

// MemoryStats counts the rows held by a MemoryStore.
type MemoryStats struct {
	Persons        int
	Locations      int
	Modes          int
	Prefs          int
	Trips          int
	TripLocations  int
	Participations int
}

func (s *MemoryStore) Stats() MemoryStats {
	var stats MemoryStats
	s.read(func(st *memoryState) {
		stats = MemoryStats{
			Persons:        len(st.persons),
			Locations:      len(st.locations),
			Modes:          len(st.modes),
			Prefs:          len(st.prefs),
			Trips:          len(st.trips),
			TripLocations:  len(st.tripLocations),
			Participations: len(st.participations),
		}
	})
	return stats
}

func (s *MemoryStore) CreateLocation(ctx context.Context, loc *models.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	loc.CreatedAt = time.Now()
	return s.write(func(st *memoryState) error {
		st.locations[loc.ID] = *loc
		return nil
	})
}

func (s *MemoryStore) GetLocationByID(ctx context.Context, id string) (*models.Location, error) {
	var out *models.Location
	s.read(func(st *memoryState) {
		if loc, ok := st.locations[id]; ok {
			out = &loc
		}
	})
	return out, nil
}

func (s *MemoryStore) UpsertMode(ctx context.Context, mode *models.Mode) error {
	if mode.Vacancy < 0 || mode.Capacity < 0 || mode.Vacancy > mode.Capacity {
		return apperrors.Constraint(fmt.Errorf("mode vacancy %d out of range for capacity %d", mode.Vacancy, mode.Capacity))
	}
	now := time.Now()
	return s.write(func(st *memoryState) error {
		for id, existing := range st.modes {
			if existing.SameSignature(mode) {
				existing.Vacancy = mode.Vacancy
				existing.UpdatedAt = now
				st.modes[id] = existing
				*mode = existing
				return nil
			}
		}
		mode.ID = uuid.New().String()
		mode.CreatedAt = now
		mode.UpdatedAt = now
		st.modes[mode.ID] = *mode
		return nil
	})
}

func (s *MemoryStore) GetModeByID(ctx context.Context, id string) (*models.Mode, error) {
	var out *models.Mode
	s.read(func(st *memoryState) {
		if m, ok := st.modes[id]; ok {
			out = &m
		}
	})
	return out, nil
}

func (s *MemoryStore) CreatePrefs(ctx context.Context, prefs *models.Prefs) error {
	if prefs.ID == "" {
		prefs.ID = uuid.New().String()
	}
	prefs.CreatedAt = time.Now()
	return s.write(func(st *memoryState) error {
		st.prefs[prefs.ID] = *prefs
		return nil
	})
}

func (s *MemoryStore) GetPrefsByID(ctx context.Context, id string) (*models.Prefs, error) {
	var out *models.Prefs
	s.read(func(st *memoryState) {
		if p, ok := st.prefs[id]; ok {
			out = &p
		}
	})
	return out, nil
}

func (s *MemoryStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	now := time.Now()
	trip.CreatedAt = now
	trip.UpdatedAt = now
	return s.write(func(st *memoryState) error {
		if _, ok := st.persons[trip.AuthorID]; !ok {
			return apperrors.Constraint(fmt.Errorf("trip author %s does not exist", trip.AuthorID))
		}
		if _, ok := st.modes[trip.ModeID]; !ok {
			return apperrors.Constraint(fmt.Errorf("trip mode %s does not exist", trip.ModeID))
		}
		st.trips[trip.ID] = *trip
		return nil
	})
}

func (s *MemoryStore) GetTripByID(ctx context.Context, id string) (*models.Trip, error) {
	var out *models.Trip
	s.read(func(st *memoryState) {
		if t, ok := st.trips[id]; ok {
			out = &t
		}
	})
	return out, nil
}

func (s *MemoryStore) GetTripByIDForUpdate(ctx context.Context, id string) (*models.Trip, error) {
	return s.GetTripByID(ctx, id)
}

func (s *MemoryStore) SetTripActive(ctx context.Context, id string, active bool) error {
	return s.write(func(st *memoryState) error {
		t, ok := st.trips[id]
		if !ok {
			return nil
		}
		t.Active = active
		t.UpdatedAt = time.Now()
		st.trips[id] = t
		return nil
	})
}

func (s *MemoryStore) AddTripLocation(ctx context.Context, tl *models.TripLocation) error {
	return s.write(func(st *memoryState) error {
		if _, ok := st.locations[tl.LocationID]; !ok {
			return apperrors.Constraint(fmt.Errorf("location %s does not exist", tl.LocationID))
		}
		st.tripLocations = append(st.tripLocations, *tl)
		return nil
	})
}

func (s *MemoryStore) GetTripLocations(ctx context.Context, tripID string) ([]models.Location, error) {
	var tls []models.TripLocation
	locs := []models.Location{}
	s.read(func(st *memoryState) {
		for _, tl := range st.tripLocations {
			if tl.TripID == tripID {
				tls = append(tls, tl)
			}
		}
		sort.SliceStable(tls, func(i, j int) bool { return tls[i].Seq < tls[j].Seq })
		for _, tl := range tls {
			locs = append(locs, st.locations[tl.LocationID])
		}
	})
	return locs, nil
}

func (s *MemoryStore) GetActiveTripByAuthor(ctx context.Context, authorID string) (*models.Trip, error) {
	var out *models.Trip
	s.read(func(st *memoryState) {
		for _, t := range st.trips {
			if t.AuthorID != authorID || !t.Active {
				continue
			}
			if out == nil || t.CreatedAt.After(out.CreatedAt) {
				trip := t
				out = &trip
			}
		}
	})
	return out, nil
}

func (s *MemoryStore) CreatePerson(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	now := time.Now()
	person.CreatedAt = now
	person.UpdatedAt = now
	return s.write(func(st *memoryState) error {
		for _, p := range st.persons {
			if p.Username == person.Username {
				return apperrors.Constraint(fmt.Errorf("username %q already exists", person.Username))
			}
		}
		st.persons[person.ID] = *person
		return nil
	})
}

func (s *MemoryStore) GetPersonByID(ctx context.Context, id string) (*models.Person, error) {
	var out *models.Person
	s.read(func(st *memoryState) {
		if p, ok := st.persons[id]; ok {
			out = &p
		}
	})
	return out, nil
}

func (s *MemoryStore) GetPersonByUsername(ctx context.Context, username string) (*models.Person, error) {
	var out *models.Person
	s.read(func(st *memoryState) {
		for _, p := range st.persons {
			if p.Username == username {
				person := p
				out = &person
				return
			}
		}
	})
	return out, nil
}

func (s *MemoryStore) SetPersonPosition(ctx context.Context, personID string, loc *models.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	loc.Role = models.LocationRolePosition
	loc.CreatedAt = time.Now()
	return s.write(func(st *memoryState) error {
		p, ok := st.persons[personID]
		if !ok {
			return apperrors.Constraint(fmt.Errorf("person %s does not exist", personID))
		}
		st.locations[loc.ID] = *loc
		id := loc.ID
		p.PositionID = &id
		p.UpdatedAt = time.Now()
		st.persons[personID] = p
		return nil
	})
}

func (s *MemoryStore) GetPersonPosition(ctx context.Context, personID string) (*models.Location, error) {
	var out *models.Location
	s.read(func(st *memoryState) {
		p, ok := st.persons[personID]
		if !ok || p.PositionID == nil {
			return
		}
		if loc, ok := st.locations[*p.PositionID]; ok {
			out = &loc
		}
	})
	return out, nil
}

func (s *MemoryStore) CreateParticipation(ctx context.Context, p *models.Participation) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.write(func(st *memoryState) error {
		if _, ok := st.trips[p.TripID]; !ok {
			return apperrors.Constraint(fmt.Errorf("trip %s does not exist", p.TripID))
		}
		if _, ok := st.persons[p.PersonID]; !ok {
			return apperrors.Constraint(fmt.Errorf("person %s does not exist", p.PersonID))
		}
		for _, existing := range st.participations {
			if existing.TripID != p.TripID {
				continue
			}
			if existing.PersonID == p.PersonID {
				return apperrors.Constraint(fmt.Errorf("person %s already participates in trip %s", p.PersonID, p.TripID))
			}
			if p.Role == models.ParticipationRoleDriver && existing.Role == models.ParticipationRoleDriver {
				return apperrors.Constraint(fmt.Errorf("trip %s already has a driver", p.TripID))
			}
		}
		st.participations = append(st.participations, *p)
		return nil
	})
}

func (s *MemoryStore) GetParticipation(ctx context.Context, tripID, personID string) (*models.Participation, error) {
	return s.findParticipation(func(p *models.Participation) bool {
		return p.TripID == tripID && p.PersonID == personID
	}), nil
}

func (s *MemoryStore) GetParticipationForUpdate(ctx context.Context, tripID, personID string) (*models.Participation, error) {
	return s.GetParticipation(ctx, tripID, personID)
}

func (s *MemoryStore) GetDriverParticipationForUpdate(ctx context.Context, tripID string) (*models.Participation, error) {
	return s.findParticipation(func(p *models.Participation) bool {
		return p.TripID == tripID && p.Role == models.ParticipationRoleDriver
	}), nil
}

func (s *MemoryStore) findParticipation(match func(p *models.Participation) bool) *models.Participation {
	var out *models.Participation
	s.read(func(st *memoryState) {
		for i := range st.participations {
			if match(&st.participations[i]) {
				p := st.participations[i]
				out = &p
				return
			}
		}
	})
	return out
}

func (s *MemoryStore) ListParticipations(ctx context.Context, tripID string) ([]models.Participation, error) {
	var out []models.Participation
	s.read(func(st *memoryState) {
		for _, p := range st.participations {
			if p.TripID == tripID {
				out = append(out, p)
			}
		}
	})
	return out, nil
}

func (s *MemoryStore) ListRideRequests(ctx context.Context, tripID, excludePersonID string) ([]models.Person, error) {
	var out []models.Person
	s.read(func(st *memoryState) {
		for _, p := range st.participations {
			if p.TripID != tripID || p.PersonID == excludePersonID || !p.IsPendingRequest() {
				continue
			}
			if person, ok := st.persons[p.PersonID]; ok {
				out = append(out, person)
			}
		}
	})
	return out, nil
}

// mark applies fn to the participation with the given id when guard holds.
func (s *MemoryStore) mark(id string, guard func(p *models.Participation) bool, fn func(p *models.Participation)) (bool, error) {
	applied := false
	err := s.write(func(st *memoryState) error {
		for i := range st.participations {
			p := &st.participations[i]
			if p.ID != id {
				continue
			}
			if guard(p) {
				fn(p)
				p.UpdatedAt = time.Now()
				applied = true
			}
			return nil
		}
		return nil
	})
	return applied, err
}

func (s *MemoryStore) MarkStarted(ctx context.Context, id string, at time.Time, positionID *string) (bool, error) {
	return s.mark(id, (*models.Participation).CanStart, func(p *models.Participation) {
		p.Started = true
		p.StartedTimestamp = &at
		p.StartedPositionID = positionID
	})
}

func (s *MemoryStore) MarkAccepted(ctx context.Context, id string, at time.Time, positionID *string) (bool, error) {
	return s.mark(id, (*models.Participation).CanAccept, func(p *models.Participation) {
		p.Accepted = true
		p.AcceptedTimestamp = &at
		p.AcceptedPositionID = positionID
	})
}

func (s *MemoryStore) MarkRefused(ctx context.Context, id string, at time.Time, positionID *string, strict bool) (bool, error) {
	guard := func(p *models.Participation) bool { return p.CanRefuse(strict) }
	return s.mark(id, guard, func(p *models.Participation) {
		p.Refused = true
		p.RefusedTimestamp = &at
		p.RefusedPositionID = positionID
	})
}

func (s *MemoryStore) MarkFinished(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.mark(id, (*models.Participation).CanFinish, func(p *models.Participation) {
		p.Finished = true
		p.FinishedTimestamp = &at
	})
}
