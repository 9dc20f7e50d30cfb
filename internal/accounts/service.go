package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/reveal-be/internal/apperr"
	"github.com/hongminglow/reveal-be/internal/auth"
	"github.com/hongminglow/reveal-be/internal/metrics"
	"github.com/hongminglow/reveal-be/internal/models"
	"github.com/hongminglow/reveal-be/internal/models/dto"
	"github.com/hongminglow/reveal-be/internal/storage"
)

// Service owns registration, sessions and plan purchases.
type Service struct {
	users        storage.UserStore
	plans        storage.PlanStore
	sessions     auth.Sessions
	metrics      *metrics.Metrics
	log          *zap.Logger
	planDuration time.Duration
	now          func() time.Time
}

func NewService(users storage.UserStore, plans storage.PlanStore, sessions auth.Sessions, m *metrics.Metrics, log *zap.Logger, planDuration time.Duration) *Service {
	return &Service{
		users:        users,
		plans:        plans,
		sessions:     sessions,
		metrics:      m,
		log:          log,
		planDuration: planDuration,
		now:          time.Now,
	}
}

// Register creates a user after checking every required field.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (models.User, error) {
	user := models.User{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Phone: strings.TrimSpace(req.Phone),
		CPF:   strings.TrimSpace(req.CPF),
	}
	switch {
	case user.Name == "":
		return models.User{}, apperr.Missing("name")
	case user.Email == "":
		return models.User{}, apperr.Missing("email")
	case req.Password == "":
		return models.User{}, apperr.Missing("password")
	case user.Phone == "":
		return models.User{}, apperr.Missing("phone")
	case user.CPF == "":
		return models.User{}, apperr.Missing("cpf")
	case !utf8.ValidString(req.Password):
		return models.User{}, apperr.New(apperr.Validation, "field password must be valid UTF-8")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.Internal, err, "failed to hash password")
	}
	user.PasswordHash = hash

	created, err := s.users.CreateUser(ctx, user)
	switch {
	case errors.Is(err, storage.ErrEmailTaken):
		return models.User{}, apperr.New(apperr.Conflict, "email already registered")
	case errors.Is(err, storage.ErrCPFTaken):
		return models.User{}, apperr.New(apperr.Conflict, "cpf already registered")
	case err != nil:
		return models.User{}, apperr.Wrap(apperr.Internal, err, "failed to create user")
	}
	s.log.Info("user registered", zap.Int64("user_id", created.ID))
	return created, nil
}

// Login checks the credentials and opens a session.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (string, models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return "", models.User{}, apperr.New(apperr.Validation, "email and password are required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", models.User{}, apperr.New(apperr.NotFound, "user not found")
		}
		return "", models.User{}, apperr.Wrap(apperr.Internal, err, "failed to fetch user")
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return "", models.User{}, apperr.New(apperr.Unauthorized, "incorrect password")
	}
	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return "", models.User{}, apperr.Wrap(apperr.Internal, err, "failed to issue token")
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return models.User{}, apperr.New(apperr.Unauthorized, "token missing or invalid")
		}
		return models.User{}, apperr.Wrap(apperr.Internal, err, "failed to resolve session")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, apperr.New(apperr.Unauthorized, "user not found")
		}
		return models.User{}, apperr.Wrap(apperr.Internal, err, "failed to fetch user")
	}
	return user, nil
}

// Logout revokes the token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return apperr.Wrap(apperr.Internal, err, "failed to revoke session")
	}
	return nil
}

// ActivePlan reports the plan currently granting access to the user, if any.
func (s *Service) ActivePlan(ctx context.Context, user models.User) (*models.Plan, error) {
	plan, err := s.plans.ActivePlan(ctx, user.ID, s.now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load plan")
	}
	return &plan, nil
}

// PurchasePlan starts a new plan unless one is still active. There is no
// payment gateway; the payment id is a placeholder reference.
func (s *Service) PurchasePlan(ctx context.Context, user models.User) (models.Plan, error) {
	start := s.now().UTC()
	plan, err := s.plans.CreatePlan(ctx, models.Plan{
		UserID:    user.ID,
		StartDate: start,
		EndDate:   start.Add(s.planDuration),
		Status:    models.PlanActive,
		PaymentID: paymentID(start),
	})
	switch {
	case errors.Is(err, storage.ErrActivePlan):
		return models.Plan{}, apperr.New(apperr.Conflict, "user already has an active plan")
	case err != nil:
		return models.Plan{}, apperr.Wrap(apperr.Internal, err, "failed to purchase plan")
	}
	s.metrics.PlansPurchased.Inc()
	s.log.Info("plan purchased", zap.Int64("user_id", user.ID), zap.String("payment_id", plan.PaymentID))
	return plan, nil
}

func paymentID(t time.Time) string {
	return fmt.Sprintf("PAY-%s-%s", t.Format("20060102150405"), strings.ToUpper(uuid.NewString()[:8]))
}
