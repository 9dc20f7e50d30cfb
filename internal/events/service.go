package events

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/reveal-be/internal/apperr"
	"github.com/hongminglow/reveal-be/internal/metrics"
	"github.com/hongminglow/reveal-be/internal/models"
	"github.com/hongminglow/reveal-be/internal/models/dto"
	"github.com/hongminglow/reveal-be/internal/publisher"
	"github.com/hongminglow/reveal-be/internal/storage"
)

// Chooser returns a uniformly distributed index in [0, n).
type Chooser func(n int) int

// Service implements the event lifecycle: creation, wagering and settlement.
type Service struct {
	store   storage.EventStore
	pub     publisher.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
	fee     float64

	mu     sync.Mutex
	choose Chooser
}

type Option func(*Service)

// WithChooser replaces the random source used to draw winners.
func WithChooser(c Chooser) Option {
	return func(s *Service) { s.choose = c }
}

// NewService wires the service. fee is added to an event's total for every wager.
func NewService(store storage.EventStore, pub publisher.Publisher, m *metrics.Metrics, log *zap.Logger, fee float64, opts ...Option) *Service {
	s := &Service{
		store:   store,
		pub:     pub,
		metrics: m,
		log:     log,
		fee:     fee,
		choose:  rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEvent validates the request and stores a new active event.
func (s *Service) CreateEvent(ctx context.Context, req dto.CreateEventRequest) (models.Event, error) {
	title := strings.TrimSpace(req.Title)
	revealDate := strings.TrimSpace(req.RevealDate)
	switch {
	case req.CreatorID == 0:
		return models.Event{}, apperr.Missing("creator_id")
	case title == "":
		return models.Event{}, apperr.Missing("title")
	case revealDate == "":
		return models.Event{}, apperr.Missing("reveal_date")
	}
	when, err := time.ParseInLocation(models.RevealDateLayout, revealDate, time.UTC)
	if err != nil {
		return models.Event{}, apperr.New(apperr.Validation, "field reveal_date must use format YYYY-MM-DD HH:MM:SS")
	}

	created, err := s.store.CreateEvent(ctx, models.Event{
		CreatorID:   req.CreatorID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		RevealDate:  when,
		Status:      models.EventActive,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.Event{}, apperr.New(apperr.NotFound, "creator not found")
		}
		return models.Event{}, apperr.Wrap(apperr.Internal, err, "failed to create event")
	}
	s.metrics.EventsCreated.Inc()
	s.log.Info("event created", zap.Int64("event_id", created.ID), zap.Int64("creator_id", created.CreatorID))
	return created, nil
}

// ListActive returns every event still open for wagers.
func (s *Service) ListActive(ctx context.Context) ([]models.Event, error) {
	events, err := s.store.ListEventsByStatus(ctx, models.EventActive)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to list events")
	}
	return events, nil
}

// GetEvent fetches a single event in any status.
func (s *Service) GetEvent(ctx context.Context, id int64) (models.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Event{}, apperr.New(apperr.NotFound, "event not found")
		}
		return models.Event{}, apperr.Wrap(apperr.Internal, err, "failed to load event")
	}
	return event, nil
}

// PlaceBet records one wager per user per event and charges the wager fee.
func (s *Service) PlaceBet(ctx context.Context, req dto.PlaceBetRequest) (models.Bet, error) {
	guess := strings.ToLower(strings.TrimSpace(req.GenderGuess))
	switch {
	case req.UserID == 0:
		return models.Bet{}, apperr.Missing("user_id")
	case req.EventID == 0:
		return models.Bet{}, apperr.Missing("event_id")
	case guess == "":
		return models.Bet{}, apperr.Missing("gender_guess")
	case !models.ValidGuess(guess):
		return models.Bet{}, apperr.New(apperr.Validation, "field gender_guess must be %q or %q", models.GuessBoy, models.GuessGirl)
	}

	bet, err := s.store.PlaceBet(ctx, models.Bet{UserID: req.UserID, EventID: req.EventID, GenderGuess: guess}, s.fee)
	switch {
	case errors.Is(err, storage.ErrEventNotFound):
		return models.Bet{}, apperr.New(apperr.NotFound, "event not found")
	case errors.Is(err, storage.ErrEventClosed):
		return models.Bet{}, apperr.New(apperr.InvalidState, "event is no longer active")
	case errors.Is(err, storage.ErrBetPlaced):
		return models.Bet{}, apperr.New(apperr.Conflict, "user already placed a bet on this event")
	case errors.Is(err, storage.ErrUserNotFound):
		return models.Bet{}, apperr.New(apperr.NotFound, "user not found")
	case err != nil:
		return models.Bet{}, apperr.Wrap(apperr.Internal, err, "failed to place bet")
	}

	s.metrics.BetsPlaced.WithLabelValues(bet.GenderGuess).Inc()
	if err := s.pub.PublishBetPlaced(ctx, publisher.BetPlaced{
		BetID:       bet.ID,
		EventID:     bet.EventID,
		UserID:      bet.UserID,
		GenderGuess: bet.GenderGuess,
		Fee:         s.fee,
	}); err != nil {
		s.log.Warn("publish bet_placed failed", zap.Int64("bet_id", bet.ID), zap.Error(err))
	}
	return bet, nil
}

// Reveal fixes the outcome of an event and draws the winner among correct guesses.
func (s *Service) Reveal(ctx context.Context, eventID int64, req dto.RevealRequest) (models.Settlement, error) {
	outcome := strings.ToLower(strings.TrimSpace(req.Gender))
	if outcome == "" {
		return models.Settlement{}, apperr.Missing("gender")
	}
	if !models.ValidGuess(outcome) {
		return models.Settlement{}, apperr.New(apperr.Validation, "field gender must be %q or %q", models.GuessBoy, models.GuessGirl)
	}

	settlement, err := s.store.Reveal(ctx, eventID, outcome, s.draw)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.Settlement{}, apperr.New(apperr.NotFound, "event not found")
	case errors.Is(err, storage.ErrAlreadyRevealed):
		return models.Settlement{}, apperr.New(apperr.InvalidState, "event already revealed")
	case err != nil:
		return models.Settlement{}, apperr.Wrap(apperr.Internal, err, "failed to reveal event")
	}

	msg := publisher.EventRevealed{
		EventID:   settlement.Event.ID,
		Outcome:   settlement.Event.Outcome,
		PrizePool: settlement.Event.PrizePool(),
	}
	fields := []zap.Field{zap.Int64("event_id", eventID), zap.String("outcome", outcome)}
	if w := settlement.Winner; w != nil {
		msg.WinnerID = &w.UserID
		msg.WinnerPrize = w.PrizeAmount
		fields = append(fields, zap.Int64("winner_id", w.UserID), zap.Float64("prize", w.PrizeAmount))
	}
	s.metrics.EventsRevealed.WithLabelValues(outcome, strconv.FormatBool(settlement.Winner != nil)).Inc()
	s.log.Info("event revealed", fields...)

	if err := s.pub.PublishEventRevealed(ctx, msg); err != nil {
		s.log.Warn("publish event_revealed failed", zap.Int64("event_id", eventID), zap.Error(err))
	}
	return settlement, nil
}

// UserEvents returns the events a user created and the ones they wagered on.
func (s *Service) UserEvents(ctx context.Context, userID int64) ([]models.Event, []models.WageredEvent, error) {
	created, err := s.store.ListEventsByCreator(ctx, userID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, err, "failed to list created events")
	}
	wagered, err := s.store.ListWageredEvents(ctx, userID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal, err, "failed to list wagered events")
	}
	return created, wagered, nil
}

// draw is handed to the store and runs inside the reveal transaction, after
// the outcome has been set on event.
func (s *Service) draw(event models.Event, bets []models.Bet) *models.Winner {
	correct := make([]models.Bet, 0, len(bets))
	for _, b := range bets {
		if b.GenderGuess == event.Outcome {
			correct = append(correct, b)
		}
	}
	if len(correct) == 0 {
		return nil
	}

	s.mu.Lock()
	pick := correct[s.choose(len(correct))]
	s.mu.Unlock()

	return &models.Winner{
		EventID:     event.ID,
		UserID:      pick.UserID,
		PrizeAmount: event.EstimatedWinnerPrize(),
	}
}
