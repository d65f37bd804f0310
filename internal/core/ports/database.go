// internal/core/ports/database.go
package ports

import "context"

// Database is the slice of the pgx wrapper that handlers need for health reporting
type Database interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
}
