package ports

import (
	"context"
	"docgen/internal/data/history"
	"time"
)

// HistoryStore abstracts snapshot persistence for trend workflows.
type HistoryStore interface {
	Save(ctx context.Context, snapshot history.Snapshot) (string, error)
	List(ctx context.Context, entry string, since time.Time, limit int) ([]history.Snapshot, error)
	Prune(ctx context.Context, keep int) (int64, error)
	Close() error
}

// DiagramGenerator renders a call graph into one textual format.
type DiagramGenerator interface {
	Generate() (string, error)
}
