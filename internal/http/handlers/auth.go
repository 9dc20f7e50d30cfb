package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/reveal-be/internal/auth"
	"github.com/hongminglow/reveal-be/internal/http/respond"
	"github.com/hongminglow/reveal-be/internal/middleware"
	"github.com/hongminglow/reveal-be/internal/models"
	"github.com/hongminglow/reveal-be/internal/models/dto"
)

// Accounts is the account behaviour the user routes depend on.
type Accounts interface {
	middleware.Authenticator
	Register(ctx context.Context, req dto.RegisterRequest) (models.User, error)
	Login(ctx context.Context, req dto.LoginRequest) (string, models.User, error)
	Logout(ctx context.Context, token string) error
	ActivePlan(ctx context.Context, user models.User) (*models.Plan, error)
	PurchasePlan(ctx context.Context, user models.User) (models.Plan, error)
}

// AuthHandler owns the /api/users endpoints.
type AuthHandler struct {
	accounts Accounts
	log      *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts Accounts, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log}
}

// Register attaches user routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	requireUser := middleware.RequireUser(h.accounts, h.log)
	mux.HandleFunc("POST /api/users/register", h.handleRegister)
	mux.HandleFunc("POST /api/users/login", h.handleLogin)
	mux.HandleFunc("GET /api/users/profile", requireUser(h.handleProfile))
	mux.HandleFunc("POST /api/users/plan/purchase", requireUser(h.handlePurchasePlan))
	mux.HandleFunc("POST /api/users/logout", requireUser(h.handleLogout))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if _, err := h.accounts.Register(r.Context(), req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusCreated, "user registered successfully")
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	token, user, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{
		Message: "login successful",
		Token:   token,
		User:    dto.UserSummary{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

func (h *AuthHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	plan, err := h.accounts.ActivePlan(r.Context(), user)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	status := dto.PlanStatus{}
	if plan != nil {
		status.Active = true
		status.EndDate = &plan.EndDate
	}
	respond.JSON(w, http.StatusOK, dto.ProfileResponse{User: user, Plan: status})
}

func (h *AuthHandler) handlePurchasePlan(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	plan, err := h.accounts.PurchasePlan(r.Context(), user)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, dto.PlanResponse{Message: "plan purchased successfully", Plan: plan})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.TokenFrom(r.Context())
	if err := h.accounts.Logout(r.Context(), token); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "logged out")
}
