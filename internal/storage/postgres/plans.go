package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/reveal-be/internal/models"
	"github.com/hongminglow/reveal-be/internal/storage"
	"github.com/jackc/pgx/v5"
)

// ActivePlan returns the plan of userID that is still active at now.
func (s *Store) ActivePlan(ctx context.Context, userID int64, now time.Time) (models.Plan, error) {
	const query = `
	SELECT id, user_id, start_date, end_date, status, payment_id
	FROM user_plans
	WHERE user_id = $1 AND status = 'active' AND end_date >= $2
	ORDER BY end_date DESC
	LIMIT 1;
	`
	var p models.Plan
	err := s.pool.QueryRow(ctx, query, userID, now).Scan(&p.ID, &p.UserID, &p.StartDate, &p.EndDate, &p.Status, &p.PaymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Plan{}, storage.ErrNotFound
		}
		return models.Plan{}, err
	}
	return p, nil
}

// CreatePlan holds the user row lock while checking for an active plan, so two
// purchases by the same user are serialized.
func (s *Store) CreatePlan(ctx context.Context, plan models.Plan) (models.Plan, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Plan{}, fmt.Errorf("begin plan: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, plan.UserID).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Plan{}, storage.ErrUserNotFound
		}
		return models.Plan{}, fmt.Errorf("lock user: %w", err)
	}

	var active bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_plans WHERE user_id = $1 AND status = 'active' AND end_date >= $2
		)`, plan.UserID, plan.StartDate,
	).Scan(&active); err != nil {
		return models.Plan{}, fmt.Errorf("check active plan: %w", err)
	}
	if active {
		return models.Plan{}, storage.ErrActivePlan
	}

	created := plan
	if err := tx.QueryRow(ctx, `
		INSERT INTO user_plans (user_id, start_date, end_date, status, payment_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		plan.UserID, plan.StartDate, plan.EndDate, plan.Status, plan.PaymentID,
	).Scan(&created.ID); err != nil {
		return models.Plan{}, fmt.Errorf("insert plan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Plan{}, fmt.Errorf("commit plan: %w", err)
	}
	return created, nil
}
