package dto

import "github.com/hongminglow/reveal-be/internal/models"

type CreateEventRequest struct {
	CreatorID   int64  `json:"creator_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RevealDate  string `json:"reveal_date"`
}

type CreatedEvent struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	RevealDate string `json:"reveal_date"`
}

type CreateEventResponse struct {
	Message string       `json:"message"`
	Event   CreatedEvent `json:"event"`
}

// EventView is the read projection of an event including its derived prize figures.
type EventView struct {
	ID                    int64   `json:"id"`
	Title                 string  `json:"title"`
	Description           string  `json:"description"`
	RevealDate            string  `json:"reveal_date"`
	CreatorID             int64   `json:"creator_id"`
	CreatorName           string  `json:"creator_name"`
	Status                string  `json:"status"`
	BabyGender            *string `json:"baby_gender"`
	TotalRaised           float64 `json:"total_raised"`
	BoyBetsCount          int     `json:"boy_bets_count"`
	GirlBetsCount         int     `json:"girl_bets_count"`
	BoyPercentage         float64 `json:"boy_percentage"`
	GirlPercentage        float64 `json:"girl_percentage"`
	PrizePool             float64 `json:"prize_pool"`
	EstimatedWinnerPrize  float64 `json:"estimated_winner_prize"`
	EstimatedParentsPrize float64 `json:"estimated_parents_prize"`
}

func NewEventView(e models.Event) EventView {
	return EventView{
		ID:                    e.ID,
		Title:                 e.Title,
		Description:           e.Description,
		RevealDate:            e.RevealDate.Format(models.RevealDateLayout),
		CreatorID:             e.CreatorID,
		CreatorName:           e.CreatorName,
		Status:                e.Status,
		BabyGender:            outcome(e),
		TotalRaised:           e.TotalRaised,
		BoyBetsCount:          e.BoyBetsCount,
		GirlBetsCount:         e.GirlBetsCount,
		BoyPercentage:         e.BoyPercentage(),
		GirlPercentage:        e.GirlPercentage(),
		PrizePool:             e.PrizePool(),
		EstimatedWinnerPrize:  e.EstimatedWinnerPrize(),
		EstimatedParentsPrize: e.EstimatedParentsPrize(),
	}
}

func NewEventViews(events []models.Event) []EventView {
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, NewEventView(e))
	}
	return out
}

type EventListResponse struct {
	Events []EventView `json:"events"`
}

type EventResponse struct {
	Event EventView `json:"event"`
}

type PlaceBetRequest struct {
	UserID      int64  `json:"user_id"`
	EventID     int64  `json:"event_id"`
	GenderGuess string `json:"gender_guess"`
}

type BetView struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"event_id"`
	GenderGuess string `json:"gender_guess"`
}

type PlaceBetResponse struct {
	Message string  `json:"message"`
	Bet     BetView `json:"bet"`
}

type RevealRequest struct {
	Gender string `json:"gender"`
}

type RevealView struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	BabyGender  string  `json:"baby_gender"`
	WinnerID    *int64  `json:"winner_id"`
	WinnerPrize float64 `json:"winner_prize"`
}

type RevealResponse struct {
	Message string     `json:"message"`
	Event   RevealView `json:"event"`
}

func NewRevealView(s models.Settlement) RevealView {
	view := RevealView{
		ID:         s.Event.ID,
		Title:      s.Event.Title,
		BabyGender: s.Event.Outcome,
	}
	if s.Winner != nil {
		id := s.Winner.UserID
		view.WinnerID = &id
		view.WinnerPrize = s.Winner.PrizeAmount
	}
	return view
}

type BetEventView struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	RevealDate  string  `json:"reveal_date"`
	Status      string  `json:"status"`
	GenderGuess string  `json:"gender_guess"`
	BabyGender  *string `json:"baby_gender"`
	IsCorrect   *bool   `json:"is_correct"`
}

func NewBetEventViews(wagered []models.WageredEvent) []BetEventView {
	out := make([]BetEventView, 0, len(wagered))
	for _, w := range wagered {
		out = append(out, BetEventView{
			ID:          w.Event.ID,
			Title:       w.Event.Title,
			RevealDate:  w.Event.RevealDate.Format(models.RevealDateLayout),
			Status:      w.Event.Status,
			GenderGuess: w.Guess,
			BabyGender:  outcome(w.Event),
			IsCorrect:   w.Correct(),
		})
	}
	return out
}

type UserEventsResponse struct {
	CreatedEvents []EventView    `json:"created_events"`
	BetEvents     []BetEventView `json:"bet_events"`
}

func outcome(e models.Event) *string {
	if !e.Revealed() {
		return nil
	}
	o := e.Outcome
	return &o
}
