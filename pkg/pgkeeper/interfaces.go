package pgkeeper

import "context"

// Driver opens database connections. The default implementation wraps
// pgx; tests substitute fakes.
type Driver interface {
	Connect(ctx context.Context, params ConnParams) (Conn, error)
}

// Conn is a single live database connection owned by the ConnectionGuard.
// It is never shared across concurrent callers.
type Conn interface {
	// IsClosed reports whether the underlying connection is closed.
	IsClosed() bool

	// Close terminates the connection. Closing an already-closed
	// connection must not return an error.
	Close(ctx context.Context) error

	// Exec runs a statement in autocommit mode. Used for administrative
	// operations that must run outside any transaction.
	// args may be nil, a map[string]interface{} of named parameters, or a
	// []interface{} of positional parameters.
	Exec(ctx context.Context, sql string, args interface{}) error

	// Begin starts the transaction that scopes one query call.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is the statement-scoped transaction for a single query call:
// committed on normal exit, rolled back when an error escapes.
type Tx interface {
	Exec(ctx context.Context, sql string, args interface{}) error
	// Query returns up to limit rows in result order, reading no further
	// than it has to; limit <= 0 returns every row.
	Query(ctx context.Context, sql string, args interface{}, limit int) ([]Row, error)
	// ExecBatch queues one execution of sql per argument set and sends
	// them as a single round trip.
	ExecBatch(ctx context.Context, sql string, argSets []map[string]interface{}) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// QuerySource resolves a query name to SQL text.
type QuerySource interface {
	// Lookup returns the SQL for name, or an error when the query does
	// not exist.
	Lookup(name string) (string, error)
}

// TokenIssuer issues a short-lived authentication token for a database
// user. Implementations exist for AWS RDS IAM and Azure Entra ID.
type TokenIssuer interface {
	IssueToken(ctx context.Context, host string, port int, user string) (string, error)
}

// SecretStore looks up an externally managed user/password pair by
// identifier. A returned empty user leaves the configured user unchanged.
type SecretStore interface {
	GetSecret(ctx context.Context, id string) (user, password string, err error)
}

// Tunnel is an encrypted forwarder. While active, connections are made to
// its local endpoint instead of the real host and port.
type Tunnel interface {
	Start(ctx context.Context) error
	// LocalEndpoint returns the listen address to connect to. Fails when
	// the tunnel has not been started.
	LocalEndpoint() (host string, port int, err error)
	Stop() error
}
