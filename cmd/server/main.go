// Application server is the main server for the application
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/starquake/quizbench/cmd/server/app"
	"github.com/starquake/quizbench/internal/must"
)

// loadDotEnv loads .env from the working directory if there is one. Variables already set in the environment win.
func loadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err //nolint:wrapcheck // reported as is by main
	}

	return nil
}

func main() {
	ctx := context.Background()
	must.OK(loadDotEnv())
	must.OK(app.Run(ctx, os.Getenv, os.Stdout, nil))
}
