package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/reveal-be/internal/models"
	"github.com/hongminglow/reveal-be/internal/storage"
	"github.com/jackc/pgx/v5"
)

const eventColumns = `e.id, e.creator_id, u.name, e.title, e.description, e.reveal_date, e.status,
	COALESCE(e.baby_gender, ''), e.total_raised, e.boy_bets_count, e.girl_bets_count, e.created_at`

// CreateEvent inserts an active event with zeroed totals.
func (s *Store) CreateEvent(ctx context.Context, event models.Event) (models.Event, error) {
	query := `
		WITH e AS (
			INSERT INTO events (creator_id, title, description, reveal_date, status)
			VALUES ($1, $2, $3, $4, 'active')
			RETURNING *
		)
		SELECT ` + eventColumns + `
		FROM e
		JOIN users u ON u.id = e.creator_id;
		`
	row := s.pool.QueryRow(ctx, query, event.CreatorID, event.Title, event.Description, event.RevealDate.UTC())
	created, err := scanEvent(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Event{}, storage.ErrUserNotFound
		}
		return models.Event{}, err
	}
	return created, nil
}

// GetEvent fetches one event regardless of status.
func (s *Store) GetEvent(ctx context.Context, id int64) (models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e JOIN users u ON u.id = e.creator_id WHERE e.id = $1;`
	return scanEvent(s.pool.QueryRow(ctx, query, id))
}

// ListEventsByStatus returns every event in the given status, oldest first.
func (s *Store) ListEventsByStatus(ctx context.Context, status string) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e JOIN users u ON u.id = e.creator_id WHERE e.status = $1 ORDER BY e.id;`
	return s.queryEvents(ctx, query, status)
}

// ListEventsByCreator returns the events a user created.
func (s *Store) ListEventsByCreator(ctx context.Context, creatorID int64) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e JOIN users u ON u.id = e.creator_id WHERE e.creator_id = $1 ORDER BY e.id;`
	return s.queryEvents(ctx, query, creatorID)
}

// ListWageredEvents returns the events a user bet on together with the guess.
func (s *Store) ListWageredEvents(ctx context.Context, userID int64) ([]models.WageredEvent, error) {
	query := `
		SELECT ` + eventColumns + `, b.gender_guess
		FROM bets b
		JOIN events e ON e.id = b.event_id
		JOIN users u ON u.id = e.creator_id
		WHERE b.user_id = $1
		ORDER BY e.id;
		`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query wagered events: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.WageredEvent, error) {
		var w models.WageredEvent
		e := &w.Event
		err := row.Scan(&e.ID, &e.CreatorID, &e.CreatorName, &e.Title, &e.Description, &e.RevealDate, &e.Status,
			&e.Outcome, &e.TotalRaised, &e.BoyBetsCount, &e.GirlBetsCount, &e.CreatedAt, &w.Guess)
		e.RevealDate = e.RevealDate.UTC()
		return w, err
	})
}

// PlaceBet locks the event row so the status check, the insert and the
// counter update cannot interleave with a concurrent reveal.
func (s *Store) PlaceBet(ctx context.Context, bet models.Bet, fee float64) (models.Bet, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Bet{}, fmt.Errorf("begin bet: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	if err := tx.QueryRow(ctx, `SELECT status FROM events WHERE id = $1 FOR UPDATE`, bet.EventID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Bet{}, storage.ErrEventNotFound
		}
		return models.Bet{}, fmt.Errorf("lock event: %w", err)
	}
	if status != models.EventActive {
		return models.Bet{}, storage.ErrEventClosed
	}

	created := bet
	err = tx.QueryRow(ctx, `
		INSERT INTO bets (user_id, event_id, gender_guess)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, event_id) DO NOTHING
		RETURNING id, created_at`,
		bet.UserID, bet.EventID, bet.GenderGuess,
	).Scan(&created.ID, &created.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return models.Bet{}, storage.ErrBetPlaced
	case isForeignKeyViolation(err):
		return models.Bet{}, storage.ErrUserNotFound
	case err != nil:
		return models.Bet{}, fmt.Errorf("insert bet: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE events
		SET total_raised = total_raised + $2,
			boy_bets_count = boy_bets_count + CASE WHEN $3::text = 'boy' THEN 1 ELSE 0 END,
			girl_bets_count = girl_bets_count + CASE WHEN $3::text = 'girl' THEN 1 ELSE 0 END
		WHERE id = $1`,
		bet.EventID, fee, bet.GenderGuess,
	); err != nil {
		return models.Bet{}, fmt.Errorf("update event totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Bet{}, fmt.Errorf("commit bet: %w", err)
	}
	return created, nil
}

// Reveal settles the event inside a single transaction.
func (s *Store) Reveal(ctx context.Context, eventID int64, outcome string, draw storage.DrawFunc) (models.Settlement, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Settlement{}, fmt.Errorf("begin reveal: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + eventColumns + ` FROM events e JOIN users u ON u.id = e.creator_id WHERE e.id = $1 FOR UPDATE OF e;`
	event, err := scanEvent(tx.QueryRow(ctx, query, eventID))
	if err != nil {
		return models.Settlement{}, err
	}
	if event.Revealed() {
		return models.Settlement{}, storage.ErrAlreadyRevealed
	}

	if _, err := tx.Exec(ctx, `UPDATE events SET baby_gender = $2, status = 'completed' WHERE id = $1`, eventID, outcome); err != nil {
		return models.Settlement{}, fmt.Errorf("complete event: %w", err)
	}
	event.Outcome = outcome
	event.Status = models.EventCompleted

	rows, err := tx.Query(ctx, `SELECT id, user_id, event_id, gender_guess, created_at FROM bets WHERE event_id = $1 ORDER BY id`, eventID)
	if err != nil {
		return models.Settlement{}, fmt.Errorf("query bets: %w", err)
	}
	bets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Bet, error) {
		var b models.Bet
		err := row.Scan(&b.ID, &b.UserID, &b.EventID, &b.GenderGuess, &b.CreatedAt)
		return b, err
	})
	if err != nil {
		return models.Settlement{}, fmt.Errorf("scan bets: %w", err)
	}

	settlement := models.Settlement{Event: event}
	if winner := draw(event, bets); winner != nil {
		if err := tx.QueryRow(ctx, `
			INSERT INTO winners (event_id, user_id, prize_amount)
			VALUES ($1, $2, $3)
			RETURNING id, created_at`,
			eventID, winner.UserID, winner.PrizeAmount,
		).Scan(&winner.ID, &winner.CreatedAt); err != nil {
			return models.Settlement{}, fmt.Errorf("insert winner: %w", err)
		}
		settlement.Winner = winner
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Settlement{}, fmt.Errorf("commit reveal: %w", err)
	}
	return settlement, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, arg any) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Event, error) {
		return scanEvent(row)
	})
}

func scanEvent(row pgx.Row) (models.Event, error) {
	var e models.Event
	if err := row.Scan(&e.ID, &e.CreatorID, &e.CreatorName, &e.Title, &e.Description, &e.RevealDate, &e.Status,
		&e.Outcome, &e.TotalRaised, &e.BoyBetsCount, &e.GirlBetsCount, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, storage.ErrEventNotFound
		}
		return models.Event{}, err
	}
	e.RevealDate = e.RevealDate.UTC()
	return e, nil
}
