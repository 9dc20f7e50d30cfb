package events

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/reveal-be/internal/apperr"
	"github.com/hongminglow/reveal-be/internal/metrics"
	"github.com/hongminglow/reveal-be/internal/mocks"
	"github.com/hongminglow/reveal-be/internal/models"
	"github.com/hongminglow/reveal-be/internal/models/dto"
	"github.com/hongminglow/reveal-be/internal/publisher"
	"github.com/hongminglow/reveal-be/internal/testutil"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *testutil.Store, *mocks.Publisher) {
	t.Helper()
	store := testutil.NewStore()
	pub := &mocks.Publisher{}
	pub.On("PublishBetPlaced", mock.Anything, mock.Anything).Return(nil).Maybe()
	pub.On("PublishEventRevealed", mock.Anything, mock.Anything).Return(nil).Maybe()
	return NewService(store, pub, metrics.New(), zap.NewNop(), 15.0, opts...), store, pub
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), err.Error())
}

func createEvent(t *testing.T, svc *Service, creatorID int64) models.Event {
	t.Helper()
	e, err := svc.CreateEvent(context.Background(), dto.CreateEventRequest{
		CreatorID:  creatorID,
		Title:      "Baby Silva",
		RevealDate: "2025-12-01 10:00:00",
	})
	require.NoError(t, err)
	return e
}

func bet(t *testing.T, svc *Service, userID, eventID int64, guess string) models.Bet {
	t.Helper()
	b, err := svc.PlaceBet(context.Background(), dto.PlaceBetRequest{UserID: userID, EventID: eventID, GenderGuess: guess})
	require.NoError(t, err)
	return b
}

func TestCreateEventValidation(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	creator := store.AddUser("Ana", "ana@example.com")

	cases := []struct {
		name string
		req  dto.CreateEventRequest
		kind apperr.Kind
		msg  string
	}{
		{"missing creator", dto.CreateEventRequest{Title: "t", RevealDate: "2025-12-01 10:00:00"}, apperr.Validation, "field creator_id is required"},
		{"missing title", dto.CreateEventRequest{CreatorID: creator.ID, Title: "  ", RevealDate: "2025-12-01 10:00:00"}, apperr.Validation, "field title is required"},
		{"missing reveal date", dto.CreateEventRequest{CreatorID: creator.ID, Title: "t"}, apperr.Validation, "field reveal_date is required"},
		{"malformed reveal date", dto.CreateEventRequest{CreatorID: creator.ID, Title: "t", RevealDate: "01/12/2025"}, apperr.Validation, "field reveal_date must use format YYYY-MM-DD HH:MM:SS"},
		{"unknown creator", dto.CreateEventRequest{CreatorID: 999, Title: "t", RevealDate: "2025-12-01 10:00:00"}, apperr.NotFound, "creator not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateEvent(ctx, tc.req)
			requireKind(t, err, tc.kind)
			require.Equal(t, tc.msg, err.Error())
		})
	}
}

func TestCreateEvent(t *testing.T) {
	svc, store, _ := newTestService(t)
	creator := store.AddUser("Ana", "ana@example.com")

	e := createEvent(t, svc, creator.ID)
	require.NotZero(t, e.ID)
	require.Equal(t, models.EventActive, e.Status)
	require.Equal(t, "2025-12-01 10:00:00", e.RevealDate.Format(models.RevealDateLayout))
	require.Zero(t, e.TotalRaised)
	require.Equal(t, "Ana", e.CreatorName)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestGetEventNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.GetEvent(context.Background(), 42)
	requireKind(t, err, apperr.NotFound)
}

func TestPlaceBetPreconditions(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	creator := store.AddUser("Ana", "ana@example.com")
	bettor := store.AddUser("Bia", "bia@example.com")
	e := createEvent(t, svc, creator.ID)

	_, err := svc.PlaceBet(ctx, dto.PlaceBetRequest{EventID: e.ID, GenderGuess: "boy"})
	requireKind(t, err, apperr.Validation)
	require.Equal(t, "field user_id is required", err.Error())

	_, err = svc.PlaceBet(ctx, dto.PlaceBetRequest{UserID: bettor.ID, GenderGuess: "boy"})
	requireKind(t, err, apperr.Validation)

	_, err = svc.PlaceBet(ctx, dto.PlaceBetRequest{UserID: bettor.ID, EventID: e.ID})
	requireKind(t, err, apperr.Validation)

	_, err = svc.PlaceBet(ctx, dto.PlaceBetRequest{UserID: bettor.ID, EventID: e.ID, GenderGuess: "twins"})
	requireKind(t, err, apperr.Validation)

	_, err = svc.PlaceBet(ctx, dto.PlaceBetRequest{UserID: bettor.ID, EventID: 999, GenderGuess: "boy"})
	requireKind(t, err, apperr.NotFound)

	_, err = svc.PlaceBet(ctx, dto.PlaceBetRequest{UserID: 999, EventID: e.ID, GenderGuess: "boy"})
	requireKind(t, err, apperr.NotFound)

	bet(t, svc, bettor.ID, e.ID, "boy")
	_, err = svc.PlaceBet(ctx, dto.PlaceBetRequest{UserID: bettor.ID, EventID: e.ID, GenderGuess: "girl"})
	requireKind(t, err, apperr.Conflict)

	_, err = svc.Reveal(ctx, e.ID, dto.RevealRequest{Gender: "girl"})
	require.NoError(t, err)

	late := store.AddUser("Caio", "caio@example.com")
	_, err = svc.PlaceBet(ctx, dto.PlaceBetRequest{UserID: late.ID, EventID: e.ID, GenderGuess: "girl"})
	requireKind(t, err, apperr.InvalidState)

	// A closed event is reported before a duplicate.
	_, err = svc.PlaceBet(ctx, dto.PlaceBetRequest{UserID: bettor.ID, EventID: e.ID, GenderGuess: "boy"})
	requireKind(t, err, apperr.InvalidState)

	updated, err := svc.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, 1, updated.TotalBets())
	require.Len(t, store.Bets(e.ID), updated.TotalBets())
}

func TestRevealExample(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestService(t)
	creator := store.AddUser("Ana", "ana@example.com")
	u1 := store.AddUser("U1", "u1@example.com")
	u2 := store.AddUser("U2", "u2@example.com")
	u3 := store.AddUser("U3", "u3@example.com")
	e := createEvent(t, svc, creator.ID)

	bet(t, svc, u1.ID, e.ID, "boy")
	bet(t, svc, u2.ID, e.ID, "boy")
	bet(t, svc, u3.ID, e.ID, "girl")

	e, err := svc.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	require.InDelta(t, 45.0, e.TotalRaised, 1e-9)
	require.Equal(t, 2, e.BoyBetsCount)
	require.Equal(t, 1, e.GirlBetsCount)
	require.Len(t, store.Bets(e.ID), e.BoyBetsCount+e.GirlBetsCount)
	require.InDelta(t, 66.67, e.BoyPercentage(), 0.01)
	require.InDelta(t, 36.0, e.PrizePool(), 1e-9)

	settlement, err := svc.Reveal(ctx, e.ID, dto.RevealRequest{Gender: "boy"})
	require.NoError(t, err)
	require.Equal(t, models.EventCompleted, settlement.Event.Status)
	require.Equal(t, "boy", settlement.Event.Outcome)
	require.NotNil(t, settlement.Winner)
	require.Contains(t, []int64{u1.ID, u2.ID}, settlement.Winner.UserID)
	require.InDelta(t, 18.0, settlement.Winner.PrizeAmount, 1e-9)

	stored, ok := store.Winner(e.ID)
	require.True(t, ok)
	require.Equal(t, settlement.Winner.UserID, stored.UserID)

	pub.AssertCalled(t, "PublishEventRevealed", mock.Anything, mock.MatchedBy(func(m publisher.EventRevealed) bool {
		return m.EventID == e.ID && m.Outcome == "boy" && m.WinnerID != nil && *m.WinnerID == settlement.Winner.UserID
	}))
	pub.AssertNumberOfCalls(t, "PublishBetPlaced", 3)
}

func TestRevealTwice(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	creator := store.AddUser("Ana", "ana@example.com")
	e := createEvent(t, svc, creator.ID)

	_, err := svc.Reveal(ctx, e.ID, dto.RevealRequest{Gender: "girl"})
	require.NoError(t, err)

	_, err = svc.Reveal(ctx, e.ID, dto.RevealRequest{Gender: "boy"})
	requireKind(t, err, apperr.InvalidState)

	got, err := svc.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, "girl", got.Outcome)
}

func TestRevealValidation(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	creator := store.AddUser("Ana", "ana@example.com")
	e := createEvent(t, svc, creator.ID)

	_, err := svc.Reveal(ctx, e.ID, dto.RevealRequest{})
	requireKind(t, err, apperr.Validation)
	require.Equal(t, "field gender is required", err.Error())

	_, err = svc.Reveal(ctx, e.ID, dto.RevealRequest{Gender: "unknown"})
	requireKind(t, err, apperr.Validation)

	_, err = svc.Reveal(ctx, 999, dto.RevealRequest{Gender: "boy"})
	requireKind(t, err, apperr.NotFound)
}

func TestRevealWithoutCorrectGuesses(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	creator := store.AddUser("Ana", "ana@example.com")
	u1 := store.AddUser("U1", "u1@example.com")
	e := createEvent(t, svc, creator.ID)
	bet(t, svc, u1.ID, e.ID, "girl")

	settlement, err := svc.Reveal(ctx, e.ID, dto.RevealRequest{Gender: "boy"})
	require.NoError(t, err)
	require.Nil(t, settlement.Winner)

	_, ok := store.Winner(e.ID)
	require.False(t, ok)

	view := dto.NewRevealView(settlement)
	require.Nil(t, view.WinnerID)
	require.Zero(t, view.WinnerPrize)
}

func TestRevealUsesInjectedChooser(t *testing.T) {
	ctx := context.Background()
	var seen int
	svc, store, _ := newTestService(t, WithChooser(func(n int) int {
		seen = n
		return n - 1
	}))
	creator := store.AddUser("Ana", "ana@example.com")
	e := createEvent(t, svc, creator.ID)

	var correct []int64
	for i, guess := range []string{"girl", "boy", "girl", "boy", "girl"} {
		u := store.AddUser("U", string(rune('a'+i))+"@example.com")
		bet(t, svc, u.ID, e.ID, guess)
		if guess == "girl" {
			correct = append(correct, u.ID)
		}
	}

	settlement, err := svc.Reveal(ctx, e.ID, dto.RevealRequest{Gender: "girl"})
	require.NoError(t, err)
	require.Equal(t, 3, seen)
	require.Equal(t, correct[2], settlement.Winner.UserID)
	require.InDelta(t, 5*15.0*0.8*0.5, settlement.Winner.PrizeAmount, 1e-9)
}

func TestDrawIsUniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	svc, _, _ := newTestService(t, WithChooser(rng.IntN))

	event := models.Event{ID: 1, Outcome: "boy", TotalRaised: 60}
	bets := []models.Bet{
		{UserID: 1, GenderGuess: "boy"},
		{UserID: 2, GenderGuess: "girl"},
		{UserID: 3, GenderGuess: "boy"},
		{UserID: 4, GenderGuess: "boy"},
	}

	counts := map[int64]int{}
	const draws = 3000
	for i := 0; i < draws; i++ {
		w := svc.draw(event, bets)
		require.NotNil(t, w)
		require.InDelta(t, 24.0, w.PrizeAmount, 1e-9)
		counts[w.UserID]++
	}
	require.Zero(t, counts[2])
	for _, id := range []int64{1, 3, 4} {
		require.InDelta(t, draws/3, counts[id], draws/10, "user %d", id)
	}
}

func TestPublishFailureDoesNotFailBet(t *testing.T) {
	store := testutil.NewStore()
	pub := &mocks.Publisher{}
	pub.On("PublishBetPlaced", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	svc := NewService(store, pub, metrics.New(), zap.NewNop(), 15.0)

	creator := store.AddUser("Ana", "ana@example.com")
	e := createEvent(t, svc, creator.ID)
	b := bet(t, svc, creator.ID, e.ID, "boy")
	require.NotZero(t, b.ID)
	pub.AssertExpectations(t)
}

func TestUserEvents(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	ana := store.AddUser("Ana", "ana@example.com")
	bia := store.AddUser("Bia", "bia@example.com")

	e1 := createEvent(t, svc, ana.ID)
	e2 := createEvent(t, svc, bia.ID)
	e3 := createEvent(t, svc, bia.ID)
	bet(t, svc, ana.ID, e2.ID, "boy")
	bet(t, svc, ana.ID, e3.ID, "girl")
	_, err := svc.Reveal(ctx, e2.ID, dto.RevealRequest{Gender: "girl"})
	require.NoError(t, err)

	created, wagered, err := svc.UserEvents(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, e1.ID, created[0].ID)

	views := dto.NewBetEventViews(wagered)
	require.Len(t, views, 2)
	require.Equal(t, e2.ID, views[0].ID)
	require.Equal(t, "girl", *views[0].BabyGender)
	require.False(t, *views[0].IsCorrect)
	require.Equal(t, e3.ID, views[1].ID)
	require.Nil(t, views[1].BabyGender)
	require.Nil(t, views[1].IsCorrect)
}
