package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/reveal-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

var (
	ErrEmailTaken = fmt.Errorf("email: %w", ErrAlreadyExists)
	ErrCPFTaken   = fmt.Errorf("cpf: %w", ErrAlreadyExists)
	ErrBetPlaced  = fmt.Errorf("bet: %w", ErrAlreadyExists)
	ErrActivePlan = fmt.Errorf("active plan: %w", ErrAlreadyExists)
)

var (
	ErrUserNotFound  = fmt.Errorf("user: %w", ErrNotFound)
	ErrEventNotFound = fmt.Errorf("event: %w", ErrNotFound)
)

// ErrEventClosed indicates a wager on an event that is no longer active.
var ErrEventClosed = errors.New("event is not active")

// ErrAlreadyRevealed indicates the event outcome is already fixed.
var ErrAlreadyRevealed = errors.New("event already revealed")

// UserStore captures persistence operations for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
}

// PlanStore captures persistence operations for plans.
type PlanStore interface {
	// ActivePlan returns ErrNotFound when the user has no plan active at now.
	ActivePlan(ctx context.Context, userID int64, now time.Time) (models.Plan, error)
	// CreatePlan returns ErrActivePlan when another plan is active at plan.StartDate.
	CreatePlan(ctx context.Context, plan models.Plan) (models.Plan, error)
}

// DrawFunc picks the winner among the bets of a just revealed event.
// It returns nil when no payout is due.
type DrawFunc func(event models.Event, bets []models.Bet) *models.Winner

// EventStore captures persistence operations for events and their wagers.
type EventStore interface {
	CreateEvent(ctx context.Context, event models.Event) (models.Event, error)
	GetEvent(ctx context.Context, id int64) (models.Event, error)
	ListEventsByStatus(ctx context.Context, status string) ([]models.Event, error)
	ListEventsByCreator(ctx context.Context, creatorID int64) ([]models.Event, error)
	ListWageredEvents(ctx context.Context, userID int64) ([]models.WageredEvent, error)

	// PlaceBet records the bet and adds fee to the event totals atomically.
	// Failures are reported in order: ErrEventNotFound, ErrEventClosed, ErrBetPlaced.
	PlaceBet(ctx context.Context, bet models.Bet, fee float64) (models.Bet, error)

	// Reveal fixes the outcome, completes the event and records whatever
	// winner draw returns, all or nothing.
	Reveal(ctx context.Context, eventID int64, outcome string, draw DrawFunc) (models.Settlement, error)
}

// Store is everything the service needs from the database.
type Store interface {
	UserStore
	PlanStore
	EventStore
	Ping(ctx context.Context) error
}
