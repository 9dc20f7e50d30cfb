package models

import "time"

// Bet is a single wager by one user on one event.
type Bet struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	EventID     int64     `json:"event_id"`
	GenderGuess string    `json:"gender_guess"`
	CreatedAt   time.Time `json:"created_at"`
}

// Winner records the settlement payout of an event.
type Winner struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"event_id"`
	UserID      int64     `json:"user_id"`
	PrizeAmount float64   `json:"prize_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// Settlement is the result of revealing an event. Winner is nil when nobody guessed right.
type Settlement struct {
	Event  Event
	Winner *Winner
}

// WageredEvent pairs an event with the guess a given user placed on it.
type WageredEvent struct {
	Event Event
	Guess string
}

// Correct is nil while the event is unrevealed.
func (w WageredEvent) Correct() *bool {
	if !w.Event.Revealed() {
		return nil
	}
	ok := w.Guess == w.Event.Outcome
	return &ok
}
