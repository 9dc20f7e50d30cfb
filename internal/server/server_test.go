package server

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/reveal-be/internal/auth"
	"github.com/hongminglow/reveal-be/internal/config"
	"github.com/hongminglow/reveal-be/internal/events"
	"github.com/hongminglow/reveal-be/internal/metrics"
	"github.com/hongminglow/reveal-be/internal/publisher"
	storetest "github.com/hongminglow/reveal-be/internal/testutil"
)

type fixture struct {
	handler http.Handler
	store   *storetest.Store
	metrics *metrics.Metrics
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T, opts ...events.Option) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := storetest.NewStore()
	m := metrics.New()
	cfg := config.Config{
		CORSOrigins:  []string{"*"},
		WagerFee:     15.0,
		PlanDuration: 30 * 24 * time.Hour,
	}
	h := NewHandler(cfg, Deps{
		Store:        store,
		Sessions:     auth.NewRedisSessions(rdb, time.Hour),
		Publisher:    publisher.Nop{},
		Metrics:      m,
		Logger:       zap.NewNop(),
		EventOptions: opts,
	})
	return fixture{handler: h, store: store, metrics: m, redis: mr}
}

func (f fixture) do(t *testing.T, method, path string, body any, token string) storetest.Response {
	t.Helper()
	return storetest.Do(t, f.handler, method, path, body, token)
}

func register(t *testing.T, f fixture, name, email, cpf string) {
	t.Helper()
	res := f.do(t, http.MethodPost, "/api/users/register", map[string]string{
		"name": name, "email": email, "password": "s3cret!", "phone": "+55 11 90000-0000", "cpf": cpf,
	}, "")
	require.Equal(t, http.StatusCreated, res.Status, res.Body)
}

func login(t *testing.T, f fixture, email string) (string, int64) {
	t.Helper()
	res := f.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": email, "password": "s3cret!"}, "")
	require.Equal(t, http.StatusOK, res.Status, res.Body)
	user := res.Body["user"].(map[string]any)
	return res.Body["token"].(string), int64(user["id"].(float64))
}

func TestUserFlow(t *testing.T) {
	f := newFixture(t)
	register(t, f, "Ana", "ana@example.com", "111")

	res := f.do(t, http.MethodPost, "/api/users/register", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "x", "phone": "1", "cpf": "222",
	}, "")
	require.Equal(t, http.StatusBadRequest, res.Status)
	require.Equal(t, "email already registered", res.Body["message"])

	res = f.do(t, http.MethodPost, "/api/users/register", map[string]string{"name": "Bia"}, "")
	require.Equal(t, http.StatusBadRequest, res.Status)
	require.Equal(t, "field email is required", res.Body["message"])

	res = f.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "nobody@example.com", "password": "x"}, "")
	require.Equal(t, http.StatusNotFound, res.Status)
	res = f.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "ana@example.com", "password": "wrong"}, "")
	require.Equal(t, http.StatusUnauthorized, res.Status)

	token, userID := login(t, f, "ana@example.com")

	res = f.do(t, http.MethodGet, "/api/users/profile", nil, "")
	require.Equal(t, http.StatusUnauthorized, res.Status)
	res = f.do(t, http.MethodGet, "/api/users/profile", nil, "not-a-session")
	require.Equal(t, http.StatusUnauthorized, res.Status)

	res = f.do(t, http.MethodGet, "/api/users/profile", nil, token)
	require.Equal(t, http.StatusOK, res.Status)
	user := res.Body["user"].(map[string]any)
	require.Equal(t, float64(userID), user["id"])
	require.Equal(t, "111", user["cpf"])
	require.NotContains(t, user, "password_hash")
	require.Equal(t, map[string]any{"active": false, "end_date": nil}, res.Body["plan"])

	res = f.do(t, http.MethodPost, "/api/users/plan/purchase", nil, token)
	require.Equal(t, http.StatusCreated, res.Status, res.Body)
	plan := res.Body["plan"].(map[string]any)
	require.Equal(t, "active", plan["status"])
	require.Regexp(t, `^PAY-\d{14}-[0-9A-F]{8}$`, plan["payment_id"])

	res = f.do(t, http.MethodPost, "/api/users/plan/purchase", nil, token)
	require.Equal(t, http.StatusBadRequest, res.Status)
	require.Equal(t, "user already has an active plan", res.Body["message"])

	res = f.do(t, http.MethodGet, "/api/users/profile", nil, token)
	require.Equal(t, true, res.Body["plan"].(map[string]any)["active"])

	res = f.do(t, http.MethodPost, "/api/users/logout", nil, token)
	require.Equal(t, http.StatusOK, res.Status)
	res = f.do(t, http.MethodGet, "/api/users/profile", nil, token)
	require.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestSessionsExpire(t *testing.T) {
	f := newFixture(t)
	register(t, f, "Ana", "ana@example.com", "111")
	token, _ := login(t, f, "ana@example.com")

	f.redis.FastForward(2 * time.Hour)
	res := f.do(t, http.MethodGet, "/api/users/profile", nil, token)
	require.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestRevealScenario(t *testing.T) {
	f := newFixture(t, events.WithChooser(func(n int) int { return n - 1 }))
	creator := f.store.AddUser("Carla", "carla@example.com")
	boy1 := f.store.AddUser("Bruno", "bruno@example.com")
	boy2 := f.store.AddUser("Beto", "beto@example.com")
	girl := f.store.AddUser("Gabi", "gabi@example.com")

	res := f.do(t, http.MethodPost, "/api/events/create", map[string]any{
		"creator_id": creator.ID, "title": "Baby C", "reveal_date": "2025-12-01 10:00:00",
	}, "")
	require.Equal(t, http.StatusCreated, res.Status, res.Body)
	created := res.Body["event"].(map[string]any)
	require.Equal(t, "2025-12-01 10:00:00", created["reveal_date"])
	eventID := int64(created["id"].(float64))
	eventPath := "/api/events/" + itoa(eventID)

	for _, bet := range []struct {
		user  int64
		guess string
	}{{boy1.ID, "boy"}, {boy2.ID, "boy"}, {girl.ID, "girl"}} {
		res = f.do(t, http.MethodPost, "/api/events/bet", map[string]any{
			"user_id": bet.user, "event_id": eventID, "gender_guess": bet.guess,
		}, "")
		require.Equal(t, http.StatusCreated, res.Status, res.Body)
	}

	res = f.do(t, http.MethodPost, "/api/events/bet", map[string]any{
		"user_id": boy1.ID, "event_id": eventID, "gender_guess": "girl",
	}, "")
	require.Equal(t, http.StatusBadRequest, res.Status)

	res = f.do(t, http.MethodGet, eventPath, nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	event := res.Body["event"].(map[string]any)
	require.Equal(t, 45.0, event["total_raised"])
	require.Equal(t, 2.0, event["boy_bets_count"])
	require.Equal(t, 1.0, event["girl_bets_count"])
	require.InDelta(t, 66.67, event["boy_percentage"], 0.01)
	require.Equal(t, 36.0, event["prize_pool"])
	require.Nil(t, event["baby_gender"])

	res = f.do(t, http.MethodGet, "/api/events/list", nil, "")
	require.Len(t, res.Body["events"], 1)

	res = f.do(t, http.MethodPost, "/api/events/reveal/"+itoa(eventID), map[string]string{"gender": "boy"}, "")
	require.Equal(t, http.StatusOK, res.Status, res.Body)
	revealed := res.Body["event"].(map[string]any)
	require.Equal(t, "boy", revealed["baby_gender"])
	require.Equal(t, float64(boy2.ID), revealed["winner_id"])
	require.Equal(t, 18.0, revealed["winner_prize"])

	res = f.do(t, http.MethodPost, "/api/events/reveal/"+itoa(eventID), map[string]string{"gender": "girl"}, "")
	require.Equal(t, http.StatusBadRequest, res.Status)
	require.Equal(t, "event already revealed", res.Body["message"])

	res = f.do(t, http.MethodPost, "/api/events/bet", map[string]any{
		"user_id": creator.ID, "event_id": eventID, "gender_guess": "boy",
	}, "")
	require.Equal(t, http.StatusBadRequest, res.Status)

	res = f.do(t, http.MethodGet, "/api/events/list", nil, "")
	require.Empty(t, res.Body["events"])

	res = f.do(t, http.MethodGet, "/api/events/user/"+itoa(girl.ID), nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	require.Empty(t, res.Body["created_events"])
	wagered := res.Body["bet_events"].([]any)
	require.Len(t, wagered, 1)
	require.Equal(t, false, wagered[0].(map[string]any)["is_correct"])

	res = f.do(t, http.MethodGet, "/api/events/user/"+itoa(creator.ID), nil, "")
	require.Len(t, res.Body["created_events"], 1)
	require.Empty(t, res.Body["bet_events"])

	require.Equal(t, 3.0, testutil.ToFloat64(f.metrics.BetsPlaced.WithLabelValues("boy"))+testutil.ToFloat64(f.metrics.BetsPlaced.WithLabelValues("girl")))
}

func TestEventErrors(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/api/events/999", nil, "")
	require.Equal(t, http.StatusNotFound, res.Status)
	res = f.do(t, http.MethodGet, "/api/events/abc", nil, "")
	require.Equal(t, http.StatusNotFound, res.Status)

	res = f.do(t, http.MethodPost, "/api/events/create", map[string]any{"creator_id": 1, "title": "x", "reveal_date": "tomorrow"}, "")
	require.Equal(t, http.StatusBadRequest, res.Status)

	res = f.do(t, http.MethodPost, "/api/events/bet", map[string]any{"user_id": 1, "event_id": 42, "gender_guess": "boy"}, "")
	require.Equal(t, http.StatusNotFound, res.Status)

	res = f.do(t, http.MethodPost, "/api/events/reveal/42", nil, "")
	require.Equal(t, http.StatusBadRequest, res.Status)
	require.Equal(t, "field gender is required", res.Body["message"])

	res = f.do(t, http.MethodPost, "/api/events/reveal/42", map[string]string{"gender": "boy"}, "")
	require.Equal(t, http.StatusNotFound, res.Status)
}

func TestHealthAndCORS(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, "ok", res.Body["status"])
	require.NotEmpty(t, res.Header.Get("X-Request-ID"))

	res = f.do(t, http.MethodOptions, "/api/events/list", nil, "")
	require.Equal(t, http.StatusNoContent, res.Status)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
