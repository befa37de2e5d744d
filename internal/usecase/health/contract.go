package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CachePinger checks rank-cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
