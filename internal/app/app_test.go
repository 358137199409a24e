package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/esports-fantasy/internal/config"
	"github.com/riskibarqy/esports-fantasy/internal/domain/scoring"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
)

const testGameID = "LCK/2026 Season/Spring_Week 1_1_1"

func fakeLeaguepedia(t *testing.T, gameTime time.Time) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var queries atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries.Add(1)
		switch r.URL.Query().Get("tables") {
		case "ScoreboardGames":
			_, _ = fmt.Fprintf(w, `{"cargoquery":[{"title":{"GameId":%q,"Tournament":"LCK 2026 Spring","DateTime UTC":%q,"Team1":"Alpha","Team2":"Beta","Winner":"1","Gamelength":"30:00","OverviewPage":"LCK/2026 Season/Spring","Patch":"26.1"}}]}`,
				testGameID, gameTime.UTC().Format("2006-01-02 15:04:05"))
		case "ScoreboardPlayers":
			_, _ = fmt.Fprintf(w, `{"cargoquery":[
				{"title":{"GameId":%[1]q,"Link":"A1","Team":"Alpha","Role":"Mid","Champion":"Ahri","Kills":"3","Deaths":"0","Assists":"2","Gold":"12000","CS":"100","DamageToChampions":"20000","VisionScore":"10"}},
				{"title":{"GameId":%[1]q,"Link":"B1","Team":"Beta","Role":"Top","Champion":"Gnar","Kills":"1","Deaths":"2","Assists":"0","Gold":"9000","CS":"150","DamageToChampions":"9000","VisionScore":"15"}}
			]}`, testGameID)
		case "ScoreboardTeams":
			_, _ = fmt.Fprintf(w, `{"cargoquery":[
				{"title":{"GameId":%[1]q,"Team":"Alpha","Dragons":"2","Barons":"1","Towers":"8","Kills":"3","RiftHeralds":"1","Inhibitors":"1"}},
				{"title":{"GameId":%[1]q,"Team":"Beta","Dragons":"1","Barons":"0","Towers":"2","Kills":"1","RiftHeralds":"0","Inhibitors":"0"}}
			]}`, testGameID)
		default:
			_, _ = w.Write([]byte(`{"cargoquery":[]}`))
		}
	}))
	t.Cleanup(server.Close)
	return server, &queries
}

func memoryConfig(baseURL string) config.Config {
	return config.Config{
		AppEnv:                         config.EnvDev,
		ServiceName:                    "esports-fantasy-ingest",
		HTTPAddr:                       ":0",
		StorageDriver:                  config.StorageDriverMemory,
		CacheEnabled:                   true,
		CacheTTL:                       time.Minute,
		LeaguepediaBaseURL:             baseURL,
		LeaguepediaMinInterval:         time.Millisecond,
		LeaguepediaTimeout:             5 * time.Second,
		LeaguepediaMaxAttempts:         1,
		LeaguepediaRetryBaseDelay:      time.Millisecond,
		LeaguepediaCircuitEnabled:      true,
		LeaguepediaCircuitFailureCount: 5,
		LeaguepediaCircuitOpenTimeout:  time.Second,
		LeaguepediaCircuitHalfOpenMax:  1,
		LeaguepediaSeasonPages:         "LCK:LCK/2026 Season/Spring",
		PollerEnabled:                  true,
		PollerSchedule:                 "*/10 * * * *",
		PollerRegions:                  []string{"LCK"},
		PollerLookback:                 24 * time.Hour,
		PipelineVideoGameID:            1,
		PipelineDefaultRoleID:          1,
		ScoringWeights:                 scoring.DefaultWeights(),
		InternalJobToken:               "secret",
	}
}

func TestBuild_MemoryProcessesMatch(t *testing.T) {
	t.Parallel()

	server, _ := fakeLeaguepedia(t, time.Now().Add(-time.Hour))
	container, err := Build(context.Background(), memoryConfig(server.URL), logging.NewNop())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	result := container.Pipeline.ProcessExternalID(context.Background(), testGameID)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.PlayersProcessed != 2 || result.TeamsProcessed != 2 {
		t.Fatalf("unexpected counts: players=%d teams=%d", result.PlayersProcessed, result.TeamsProcessed)
	}
}

func TestBuild_RejectsInvalidSeasonPages(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig("http://127.0.0.1:1")
	cfg.LeaguepediaSeasonPages = "LCK"
	if _, err := Build(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for malformed season pages")
	}
}

func TestNewHTTPServer_ServesOperatorRoutes(t *testing.T) {
	t.Parallel()

	server, _ := fakeLeaguepedia(t, time.Now().Add(-time.Hour))
	container, err := Build(context.Background(), memoryConfig(server.URL), logging.NewNop())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	srv, err := container.NewHTTPServer()
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"storage":"memory"`) {
		t.Fatalf("unexpected health response: code=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestStartScheduler_EagerRun(t *testing.T) {
	t.Parallel()

	server, queries := fakeLeaguepedia(t, time.Now().Add(-time.Hour))
	container, err := Build(context.Background(), memoryConfig(server.URL), logging.NewNop())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	scheduler, err := container.StartScheduler(context.Background())
	if err != nil {
		t.Fatalf("start scheduler: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		state := container.Poller.State()
		if state.LastSummary != nil {
			if state.LastSummary.Processed != 1 || state.LastSummary.Found != 1 {
				t.Fatalf("unexpected summary: %+v", *state.LastSummary)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("eager poll did not finish, provider queries=%d", queries.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		t.Fatalf("stop scheduler: %v", err)
	}
}

func TestStartScheduler_RejectsBadSchedule(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig("http://127.0.0.1:1")
	cfg.PollerSchedule = "every ten minutes"
	container, err := Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if _, err := container.StartScheduler(context.Background()); err == nil {
		t.Fatalf("expected error for malformed schedule")
	}
}
