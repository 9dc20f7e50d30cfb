// Package testutil provides an in-memory storage.Store and request helpers for tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hongminglow/reveal-be/internal/models"
	"github.com/hongminglow/reveal-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store mirrors the constraints of the Postgres schema in memory.
type Store struct {
	mu      sync.Mutex
	users   map[int64]models.User
	events  map[int64]models.Event
	bets    []models.Bet
	winners map[int64]models.Winner
	plans   []models.Plan
	nextID  int64
}

func NewStore() *Store {
	return &Store{
		users:   make(map[int64]models.User),
		events:  make(map[int64]models.Event),
		winners: make(map[int64]models.Winner),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return models.User{}, storage.ErrEmailTaken
		}
		if u.CPF == user.CPF {
			return models.User{}, storage.ErrCPFTaken
		}
	}
	user.ID = s.id()
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, storage.ErrUserNotFound
}

func (s *Store) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) ActivePlan(_ context.Context, userID int64, now time.Time) (models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.activePlan(userID, now); ok {
		return p, nil
	}
	return models.Plan{}, storage.ErrNotFound
}

func (s *Store) CreatePlan(_ context.Context, plan models.Plan) (models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[plan.UserID]; !ok {
		return models.Plan{}, storage.ErrUserNotFound
	}
	if _, ok := s.activePlan(plan.UserID, plan.StartDate); ok {
		return models.Plan{}, storage.ErrActivePlan
	}
	plan.ID = s.id()
	s.plans = append(s.plans, plan)
	return plan, nil
}

func (s *Store) activePlan(userID int64, now time.Time) (models.Plan, bool) {
	for _, p := range s.plans {
		if p.UserID == userID && p.ActiveAt(now) {
			return p, true
		}
	}
	return models.Plan{}, false
}

func (s *Store) CreateEvent(_ context.Context, event models.Event) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creator, ok := s.users[event.CreatorID]
	if !ok {
		return models.Event{}, storage.ErrUserNotFound
	}
	event.ID = s.id()
	event.CreatorName = creator.Name
	event.Status = models.EventActive
	event.CreatedAt = time.Now().UTC()
	s.events[event.ID] = event
	return event, nil
}

func (s *Store) GetEvent(_ context.Context, id int64) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return models.Event{}, storage.ErrEventNotFound
	}
	return e, nil
}

func (s *Store) ListEventsByStatus(_ context.Context, status string) ([]models.Event, error) {
	return s.filterEvents(func(e models.Event) bool { return e.Status == status }), nil
}

func (s *Store) ListEventsByCreator(_ context.Context, creatorID int64) ([]models.Event, error) {
	return s.filterEvents(func(e models.Event) bool { return e.CreatorID == creatorID }), nil
}

func (s *Store) ListWageredEvents(_ context.Context, userID int64) ([]models.WageredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WageredEvent
	for _, b := range s.bets {
		if b.UserID == userID {
			out = append(out, models.WageredEvent{Event: s.events[b.EventID], Guess: b.GenderGuess})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Event.ID < out[j].Event.ID })
	return out, nil
}

func (s *Store) PlaceBet(_ context.Context, bet models.Bet, fee float64) (models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[bet.EventID]
	if !ok {
		return models.Bet{}, storage.ErrEventNotFound
	}
	if event.Status != models.EventActive {
		return models.Bet{}, storage.ErrEventClosed
	}
	for _, b := range s.bets {
		if b.UserID == bet.UserID && b.EventID == bet.EventID {
			return models.Bet{}, storage.ErrBetPlaced
		}
	}
	if _, ok := s.users[bet.UserID]; !ok {
		return models.Bet{}, storage.ErrUserNotFound
	}

	bet.ID = s.id()
	bet.CreatedAt = time.Now().UTC()
	s.bets = append(s.bets, bet)

	event.TotalRaised += fee
	switch bet.GenderGuess {
	case models.GuessBoy:
		event.BoyBetsCount++
	case models.GuessGirl:
		event.GirlBetsCount++
	}
	s.events[event.ID] = event
	return bet, nil
}

func (s *Store) Reveal(_ context.Context, eventID int64, outcome string, draw storage.DrawFunc) (models.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return models.Settlement{}, storage.ErrEventNotFound
	}
	if event.Revealed() {
		return models.Settlement{}, storage.ErrAlreadyRevealed
	}
	event.Outcome = outcome
	event.Status = models.EventCompleted
	s.events[eventID] = event

	var bets []models.Bet
	for _, b := range s.bets {
		if b.EventID == eventID {
			bets = append(bets, b)
		}
	}
	settlement := models.Settlement{Event: event}
	if winner := draw(event, bets); winner != nil {
		winner.ID = s.id()
		winner.CreatedAt = time.Now().UTC()
		s.winners[eventID] = *winner
		settlement.Winner = winner
	}
	return settlement, nil
}

// Bets returns the recorded bets of an event.
func (s *Store) Bets(eventID int64) []models.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bet
	for _, b := range s.bets {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out
}

// Winner returns the stored winner of an event, if any.
func (s *Store) Winner(eventID int64) (models.Winner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.winners[eventID]
	return w, ok
}

// AddUser inserts a user directly, bypassing password hashing.
func (s *Store) AddUser(name, email string) models.User {
	u, err := s.CreateUser(context.Background(), models.User{Name: name, Email: email, CPF: email, Phone: "555"})
	if err != nil {
		panic(err)
	}
	return u
}

func (s *Store) filterEvents(keep func(models.Event) bool) []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Event
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
