package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"czar-party/internal/config"
	"czar-party/internal/db"
	"czar-party/internal/game"
	"czar-party/internal/imagegen"
	"czar-party/internal/metrics"
	"czar-party/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

type testEnv struct {
	ts      *httptest.Server
	svc     *game.Service
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.JWTSecret = testSecret
	cfg.AdminSubjects = []string{"user-admin"}
	cfg.RateLimitPerSecond = 1000
	cfg.RateLimitBurst = 1000
	return cfg
}

func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	m := metrics.New("czar_party_test")
	bounds := game.DefaultBounds()
	bounds.MinRounds = 1
	generator := imagegen.GeneratorFunc(func(ctx context.Context, prompt string) (imagegen.Result, error) {
		return imagegen.Result{Handle: "img:" + prompt, Latency: 10 * time.Millisecond}, nil
	})
	svc := game.New(store.NewMemory(), generator, game.Options{Metrics: m, Bounds: bounds})
	if _, err := svc.Cards.Seed(context.Background(), db.SeedCards); err != nil {
		t.Fatalf("seed cards: %v", err)
	}
	srv := New(svc, cfg, WithMetrics(m))
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		svc.Wait()
	})
	return &testEnv{ts: ts, svc: svc, metrics: m}
}

func signToken(t *testing.T, secret string, c claims) string {
	t.Helper()
	if c.ExpiresAt == nil {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// tokenFor returns a token for subject "user-<name>" with name as nickname.
func tokenFor(t *testing.T, name string) string {
	t.Helper()
	return signToken(t, testSecret, claims{
		Nickname:         strings.ToUpper(name[:1]) + name[1:],
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-" + name},
	})
}
