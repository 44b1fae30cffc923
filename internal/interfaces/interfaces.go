package interfaces

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx operations the repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so repositories can run inside or
// outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EmailDispatcher schedules a verification email for out-of-band delivery.
// The request path must not block on SMTP; delivery failures are logged by
// the worker, never surfaced to the HTTP caller.
type EmailDispatcher interface {
	DispatchVerification(ctx context.Context, email, username, baseURL string) error
}

// ImageUploader stores an uploaded image with the external image host and
// returns a publicly servable URL for it.
type ImageUploader interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (string, error)
}
