// Package store provides the application's data stores.
package store

import (
	"database/sql"
	"log/slog"

	"github.com/starquake/quizbench/internal/database"
	"github.com/starquake/quizbench/internal/member"
)

// Stores is a collection of stores for the application.
type Stores struct {
	Members member.Store
}

// New initializes a new Stores instance with the provided database connection.
func New(conn *sql.DB, dialect database.Dialect, logger *slog.Logger) *Stores {
	return &Stores{
		Members: NewMemberStore(conn, dialect, logger),
	}
}

// NewMemory initializes a new Stores instance that keeps everything in memory.
func NewMemory() *Stores {
	return &Stores{
		Members: NewMemoryStore(),
	}
}
