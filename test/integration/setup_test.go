//go:build integration

package integration_test

import (
	"testing"
	"time"

	"github.com/starquake/quizbench/cmd/server/app"
	"github.com/starquake/quizbench/internal/dbtest"
	"github.com/starquake/quizbench/internal/testutil"
)

// startServer runs the application against a fresh SQLite file holding the member fixture and returns its base URL.
// The server is stopped when the test ends.
func startServer(t *testing.T) string {
	t.Helper()

	ctx, stop := testutil.SignalCtx(t)

	dbURI, cleanup := dbtest.SetupTestDB(t)
	t.Cleanup(cleanup)

	getenv := testutil.Getenv(map[string]string{
		"DB_URI":        dbURI,
		"SEED_FIXTURES": "true",
		"LOG_LEVEL":     "debug",
	})
	ln := testutil.Listen(t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run(ctx, getenv, testutil.NewTestWriter(t), ln)
	}()

	baseURL := "http://" + ln.Addr().String()
	if err := testutil.WaitForReady(ctx, t, 10*time.Second, baseURL+"/healthz"); err != nil {
		stop()
		t.Fatalf("error waiting for server to be ready: %v", err)
	}

	// Registered after cleanup so the server is stopped before the database file is removed.
	t.Cleanup(func() {
		stop()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("app.Run() returned error: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("server failed to shutdown in time")
		}
	})

	return baseURL
}
