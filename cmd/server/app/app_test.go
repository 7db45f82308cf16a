package app_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	. "github.com/starquake/quizbench/cmd/server/app"
	"github.com/starquake/quizbench/internal/dbtest"
	"github.com/starquake/quizbench/internal/testutil"
)

// startApp runs the application on a free port and returns its base URL. The returned func stops it and returns
// the error of Run.
func startApp(t *testing.T, env map[string]string) (string, func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(t.Context())
	ln := testutil.Listen(t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, testutil.Getenv(env), testutil.NewTestWriter(t), ln)
	}()

	baseURL := "http://" + ln.Addr().String()
	if err := testutil.WaitForReady(ctx, t, 10*time.Second, baseURL+"/healthz"); err != nil {
		cancel()
		t.Fatalf("error waiting for server to be ready: %v", err)
	}

	return baseURL, func() error {
		cancel()
		select {
		case err := <-errCh:
			return err
		case <-time.After(10 * time.Second):
			return errors.New("server failed to shut down in time")
		}
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	sqliteURI, cleanup := dbtest.SetupTestDB(t)
	t.Cleanup(cleanup)

	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "memory", env: map[string]string{"DB_DRIVER": "memory", "SEED_FIXTURES": "true"}},
		{name: "sqlite", env: map[string]string{"DB_DRIVER": "sqlite", "DB_URI": sqliteURI, "SEED_FIXTURES": "true"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			baseURL, stop := startApp(t, tc.env)

			status, body := testutil.Do(t, http.MethodGet, baseURL+"/test", "", "")
			if got, want := status, http.StatusOK; got != want {
				t.Errorf("GET /test status = %v, want %v", got, want)
			}
			if got, want := body, `[{"id":1,"name":"A"},{"id":2,"name":"B"},{"id":3,"name":"C"}]`; strings.TrimSpace(got) != want {
				t.Errorf("GET /test body = %q, want %q", got, want)
			}

			status, body = testutil.Do(t, http.MethodGet, baseURL+"/quiz?code=2", "", "")
			if status != http.StatusBadRequest || body != "Bad Request!" {
				t.Errorf("GET /quiz?code=2 = %v %q, want %v %q", status, body, http.StatusBadRequest, "Bad Request!")
			}

			status, _ = testutil.Do(t, http.MethodGet, baseURL+"/metrics", "", "")
			if got, want := status, http.StatusOK; got != want {
				t.Errorf("GET /metrics status = %v, want %v", got, want)
			}

			if err := stop(); err != nil {
				t.Errorf("Run() err = %v", err)
			}
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Parallel()

	err := Run(t.Context(), testutil.Getenv(map[string]string{"DB_DRIVER": "mysql"}), testutil.NewTestWriter(t), nil)
	if err == nil {
		t.Fatal("Run() err = nil, want error")
	}
}
