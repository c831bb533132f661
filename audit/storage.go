package audit

import "context"

// Storage is the persistence backend for audit records.
type Storage interface {
	Store(ctx context.Context, record *Record) error
	Query(ctx context.Context, q *Query) ([]*Record, error)
	Count(ctx context.Context, q *Query) (int64, error)
	Delete(ctx context.Context, q *Query) (int64, error)
	Close() error
}
