package leaguepedia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*ClientConfig)) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{
		BaseURL:        server.URL,
		MinInterval:    time.Millisecond,
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg)
}

func gamesSpec() TableSpec {
	return TableSpec{
		Tables:  "ScoreboardGames",
		Fields:  []string{"GameId", "DateTime_UTC"},
		Where:   Eq("OverviewPage", "LPL/2026 Season/Split 1"),
		OrderBy: "DateTime_UTC DESC",
		Limit:   100,
	}
}

func TestClientQuery_ParsesCargoEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("action") != "cargoquery" || query.Get("format") != "json" {
			t.Errorf("unexpected action params: %s", r.URL.RawQuery)
		}
		if got, want := query.Get("where"), `OverviewPage = "LPL/2026 Season/Split 1"`; got != want {
			t.Errorf("unexpected where: got=%q want=%q", got, want)
		}
		if query.Get("limit") != "100" || query.Get("order_by") != "DateTime_UTC DESC" {
			t.Errorf("unexpected paging params: %s", r.URL.RawQuery)
		}
		if query.Get("fields") != "GameId,DateTime_UTC" {
			t.Errorf("unexpected fields: %q", query.Get("fields"))
		}
		_, _ = w.Write([]byte(`{"cargoquery":[{"title":{"GameId":"LPL/2026 Season/Split 1_Week 1_1_1","DateTime UTC":"2026-01-14 09:00:00","Kills":7,"Winner":null}}]}`))
	}, nil)

	rows, err := client.Query(context.Background(), gamesSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected row count: got=%d want=1", len(rows))
	}
	if got := rows[0].get("DateTime_UTC"); got != "2026-01-14 09:00:00" {
		t.Fatalf("unexpected timestamp: got=%q", got)
	}
	if got := rows[0]["Kills"]; got != "7" {
		t.Fatalf("unexpected numeric conversion: got=%q", got)
	}
	if got, ok := rows[0]["Winner"]; !ok || got != "" {
		t.Fatalf("expected null to become empty string, got=%q ok=%v", got, ok)
	}
}

func TestClientQuery_EmptyResult(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"cargoquery":[]}`))
	}, nil)

	rows, err := client.Query(context.Background(), gamesSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got=%d", len(rows))
	}
}

func TestClientQuery_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"cargoquery":[{"title":{"GameId":"g1"}}]}`))
	}, nil)

	rows, err := client.Query(context.Background(), gamesSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected row count: got=%d want=1", len(rows))
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("unexpected call count: got=%d want=2", got)
	}
}

func TestClientQuery_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		target error
		kind   ErrorKind
	}{
		{name: "bad request", status: http.StatusBadRequest, target: ErrBadRequest, kind: KindBadRequest},
		{name: "not found", status: http.StatusNotFound, target: ErrBadRequest, kind: KindBadRequest},
		{name: "too many requests", status: http.StatusTooManyRequests, target: ErrBadRequest, kind: KindBadRequest},
		{name: "unauthorized", status: http.StatusUnauthorized, target: ErrUnauthorized, kind: KindUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, target: ErrUnauthorized, kind: KindUnauthorized},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
			}, nil)

			_, err := client.Query(context.Background(), gamesSpec())
			if !errors.Is(err, tc.target) {
				t.Fatalf("unexpected error: got=%v want=%v", err, tc.target)
			}
			if kind, ok := KindOf(err); !ok || kind != tc.kind {
				t.Fatalf("unexpected kind: got=%v want=%v", kind, tc.kind)
			}
			if got := calls.Load(); got != 1 {
				t.Fatalf("client errors must not be retried: calls=%d", got)
			}
		})
	}
}

func TestClientQuery_SurfacesLastErrorAfterAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, func(cfg *ClientConfig) { cfg.MaxAttempts = 3 })

	_, err := client.Query(context.Background(), gamesSpec())
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient error, got=%v", err)
	}
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 in error, got=%v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("unexpected call count: got=%d want=3", got)
	}
}

func TestClientQuery_BackoffDoublesPerAttempt(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		arrivals []time.Time
	)
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}, func(cfg *ClientConfig) {
		cfg.MaxAttempts = 3
		cfg.RetryBaseDelay = 20 * time.Millisecond
	})

	if _, err := client.Query(context.Background(), gamesSpec()); !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient error, got=%v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(arrivals) != 3 {
		t.Fatalf("unexpected call count: got=%d want=3", len(arrivals))
	}
	first := arrivals[1].Sub(arrivals[0])
	second := arrivals[2].Sub(arrivals[1])
	if first < 20*time.Millisecond {
		t.Fatalf("first retry came too early: %v", first)
	}
	if second < 40*time.Millisecond || second < first*3/2 {
		t.Fatalf("expected second delay to double: first=%v second=%v", first, second)
	}
}

func TestClientQuery_CargoErrorEnvelope(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"error":{"code":"MWException","info":"Unknown field"}}`))
	}, nil)

	_, err := client.Query(context.Background(), gamesSpec())
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request, got=%v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("unexpected call count: got=%d want=1", got)
	}

	var limitedCalls atomic.Int32
	limited := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if limitedCalls.Add(1) < 3 {
			_, _ = w.Write([]byte(`{"error":{"code":"ratelimited","info":"slow down"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"cargoquery":[]}`))
	}, nil)

	if _, err := limited.Query(context.Background(), gamesSpec()); err != nil {
		t.Fatalf("expected ratelimited to be retried, got=%v", err)
	}
	if got := limitedCalls.Load(); got != 3 {
		t.Fatalf("unexpected call count: got=%d want=3", got)
	}
}

func TestClientQuery_MalformedEnvelopeIsTransient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}, func(cfg *ClientConfig) { cfg.MaxAttempts = 2 })

	_, err := client.Query(context.Background(), gamesSpec())
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient error, got=%v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("unexpected call count: got=%d want=2", got)
	}
}

func TestClientQuery_RejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}, nil)

	_, err := client.Query(context.Background(), TableSpec{Tables: "ScoreboardGames", Fields: []string{"GameId"}, Where: Eq("Game Id; DROP", "x")})
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request, got=%v", err)
	}
	if _, err := client.Query(context.Background(), TableSpec{Fields: []string{"GameId"}}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request for missing tables, got=%v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("invalid specs must not reach the provider: calls=%d", got)
	}
}

func TestClientQuery_SpacesCalls(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		times []time.Time
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(`{"cargoquery":[]}`))
	}, func(cfg *ClientConfig) { cfg.MinInterval = 40 * time.Millisecond })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			spec := gamesSpec()
			spec.Where = Eq("GameId", string(rune('a'+i)))
			if _, err := client.Query(context.Background(), spec); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(times) != 4 {
		t.Fatalf("unexpected call count: got=%d want=4", len(times))
	}
	if span := times[len(times)-1].Sub(times[0]); span < 110*time.Millisecond {
		t.Fatalf("calls were not spaced: first-to-last=%v", span)
	}
}

func TestClientQuery_HonorsContextWhileWaiting(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"cargoquery":[]}`))
	}, func(cfg *ClientConfig) { cfg.MinInterval = time.Hour })

	if _, err := client.Query(context.Background(), gamesSpec()); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Query(ctx, gamesSpec()); err == nil {
		t.Fatalf("expected error while waiting for the next slot")
	}
}

type loginServer struct {
	tokenCalls atomic.Int32
	loginCalls atomic.Int32
	queryCalls atomic.Int32
	accept     atomic.Bool
}

func (s *loginServer) handle(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Query().Get("meta") == "tokens":
			s.tokenCalls.Add(1)
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "pre"})
			_, _ = w.Write([]byte(`{"query":{"tokens":{"logintoken":"tok+\\"}}}`))
		case r.Method == http.MethodPost:
			s.loginCalls.Add(1)
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse login form: %v", err)
			}
			if r.PostForm.Get("lgtoken") != `tok+\` || r.PostForm.Get("lgname") != "bot@ingest" {
				t.Errorf("unexpected login form: %v", r.PostForm)
			}
			if cookie, err := r.Cookie("session"); err != nil || cookie.Value != "pre" {
				t.Errorf("expected session cookie from token step")
			}
			if !s.accept.Load() {
				_, _ = w.Write([]byte(`{"login":{"result":"Failed","reason":"Incorrect password"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"login":{"result":"Success","lgusername":"Bot"}}`))
		default:
			s.queryCalls.Add(1)
			_, _ = w.Write([]byte(`{"cargoquery":[]}`))
		}
	}
}

func TestClient_LoginOnce(t *testing.T) {
	t.Parallel()

	srv := &loginServer{}
	srv.accept.Store(true)
	client := newTestClient(t, srv.handle(t), func(cfg *ClientConfig) {
		cfg.Username = "bot@ingest"
		cfg.Password = "secret"
	})

	for i := 0; i < 2; i++ {
		if _, err := client.Query(context.Background(), gamesSpec()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !client.Authenticated() {
		t.Fatalf("expected client to be authenticated")
	}
	if srv.tokenCalls.Load() != 1 || srv.loginCalls.Load() != 1 {
		t.Fatalf("login must run once: token=%d login=%d", srv.tokenCalls.Load(), srv.loginCalls.Load())
	}
	if srv.queryCalls.Load() != 2 {
		t.Fatalf("unexpected query count: got=%d want=2", srv.queryCalls.Load())
	}
}

func TestClient_LoginFailureDegradesToAnonymous(t *testing.T) {
	t.Parallel()

	srv := &loginServer{}
	client := newTestClient(t, srv.handle(t), func(cfg *ClientConfig) {
		cfg.Username = "bot@ingest"
		cfg.Password = "wrong"
	})

	client.Init(context.Background())
	for i := 0; i < 2; i++ {
		if _, err := client.Query(context.Background(), gamesSpec()); err != nil {
			t.Fatalf("login failure must not fail queries: %v", err)
		}
	}
	if client.Authenticated() {
		t.Fatalf("expected anonymous mode")
	}
	if srv.loginCalls.Load() != 1 {
		t.Fatalf("login must be attempted once: got=%d", srv.loginCalls.Load())
	}

	client.Reset()
	srv.accept.Store(true)
	if _, err := client.Query(context.Background(), gamesSpec()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !client.Authenticated() || srv.loginCalls.Load() != 2 {
		t.Fatalf("expected a fresh login after reset: authenticated=%v calls=%d", client.Authenticated(), srv.loginCalls.Load())
	}
}

func TestClient_NoCredentialsSkipsLogin(t *testing.T) {
	t.Parallel()

	srv := &loginServer{}
	client := newTestClient(t, srv.handle(t), nil)

	client.Init(context.Background())
	if _, err := client.Query(context.Background(), gamesSpec()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv.tokenCalls.Load() != 0 || client.Authenticated() {
		t.Fatalf("login must not run without credentials")
	}
}

func TestClientQuery_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, func(cfg *ClientConfig) {
		cfg.MaxAttempts = 1
		cfg.CircuitBreaker.Enabled = true
		cfg.CircuitBreaker.FailureThreshold = 2
		cfg.CircuitBreaker.OpenTimeout = time.Hour
	})

	for i := 0; i < 2; i++ {
		if _, err := client.Query(context.Background(), gamesSpec()); !errors.Is(err, ErrTransient) {
			t.Fatalf("expected transient failure, got=%v", err)
		}
	}
	if _, err := client.Query(context.Background(), gamesSpec()); !errors.Is(err, ErrTransient) {
		t.Fatalf("expected open circuit to reject as transient, got=%v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("open circuit must not reach provider: calls=%d", got)
	}
}

func TestClientQuery_FollowerSurvivesCancelledOwner(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	entered := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(entered)
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte(`{"cargoquery":[{"title":{"GameId":"LPL/2026 Season/Split 1_Week 1_1_1"}}]}`))
	}, func(cfg *ClientConfig) {
		cfg.MaxAttempts = 1
	})

	ownerCtx, cancelOwner := context.WithCancel(context.Background())
	ownerErr := make(chan error, 1)
	go func() {
		_, err := client.Query(ownerCtx, gamesSpec())
		ownerErr <- err
	}()
	<-entered

	type outcome struct {
		rows []Row
		err  error
	}
	follower := make(chan outcome, 1)
	go func() {
		rows, err := client.Query(context.Background(), gamesSpec())
		follower <- outcome{rows, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancelOwner()

	if err := <-ownerErr; err == nil {
		t.Fatalf("expected cancelled owner to fail")
	}
	got := <-follower
	if got.err != nil || len(got.rows) != 1 {
		t.Fatalf("follower should retry on its own: rows=%d err=%v", len(got.rows), got.err)
	}
}
