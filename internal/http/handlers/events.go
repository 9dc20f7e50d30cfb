package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hongminglow/reveal-be/internal/apperr"
	"github.com/hongminglow/reveal-be/internal/http/respond"
	"github.com/hongminglow/reveal-be/internal/models"
	"github.com/hongminglow/reveal-be/internal/models/dto"
)

// Events is the event lifecycle the /api/events routes depend on.
type Events interface {
	CreateEvent(ctx context.Context, req dto.CreateEventRequest) (models.Event, error)
	ListActive(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id int64) (models.Event, error)
	PlaceBet(ctx context.Context, req dto.PlaceBetRequest) (models.Bet, error)
	Reveal(ctx context.Context, eventID int64, req dto.RevealRequest) (models.Settlement, error)
	UserEvents(ctx context.Context, userID int64) ([]models.Event, []models.WageredEvent, error)
}

// EventsHandler owns the /api/events endpoints.
type EventsHandler struct {
	events Events
	log    *zap.Logger
}

func NewEventsHandler(events Events, log *zap.Logger) *EventsHandler {
	return &EventsHandler{events: events, log: log}
}

// Register attaches event routes to the mux.
func (h *EventsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/events/create", h.handleCreate)
	mux.HandleFunc("GET /api/events/list", h.handleList)
	mux.HandleFunc("GET /api/events/{id}", h.handleGet)
	mux.HandleFunc("POST /api/events/bet", h.handleBet)
	mux.HandleFunc("POST /api/events/reveal/{id}", h.handleReveal)
	mux.HandleFunc("GET /api/events/user/{id}", h.handleUserEvents)
}

func (h *EventsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	event, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, dto.CreateEventResponse{
		Message: "event created successfully",
		Event: dto.CreatedEvent{
			ID:         event.ID,
			Title:      event.Title,
			RevealDate: event.RevealDate.Format(models.RevealDateLayout),
		},
	})
}

func (h *EventsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListActive(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.EventListResponse{Events: dto.NewEventViews(events)})
}

func (h *EventsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, h.log, apperr.New(apperr.NotFound, "event not found"))
		return
	}
	event, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.EventResponse{Event: dto.NewEventView(event)})
}

func (h *EventsHandler) handleBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	bet, err := h.events.PlaceBet(r.Context(), req)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, dto.PlaceBetResponse{
		Message: "bet placed successfully",
		Bet:     dto.BetView{ID: bet.ID, EventID: bet.EventID, GenderGuess: bet.GenderGuess},
	})
}

func (h *EventsHandler) handleReveal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, h.log, apperr.New(apperr.NotFound, "event not found"))
		return
	}
	var req dto.RevealRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	settlement, err := h.events.Reveal(r.Context(), id, req)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.RevealResponse{
		Message: "gender revealed successfully",
		Event:   dto.NewRevealView(settlement),
	})
}

func (h *EventsHandler) handleUserEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r)
	if !ok {
		respond.Error(w, h.log, apperr.New(apperr.NotFound, "user not found"))
		return
	}
	created, wagered, err := h.events.UserEvents(r.Context(), userID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.UserEventsResponse{
		CreatedEvents: dto.NewEventViews(created),
		BetEvents:     dto.NewBetEventViews(wagered),
	})
}

// pathID parses the {id} wildcard. Non-numeric ids do not match any resource.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
