package pgkeeper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/pgkeeper/internal/queries"
	"github.com/vvka-141/pgkeeper/internal/retry"
)

// Client executes named or literal queries over a guarded single
// connection, retrying transient connection failures with backoff.
//
// Not safe for concurrent use: one instance per worker, or an external
// mutex around calls.
type Client struct {
	base    ConnParams
	guard   *ConnectionGuard
	queries QuerySource
	logger  Logger
	driver  Driver
	tunnel  Tunnel

	classifier retry.ErrorClassifier
	strategy   retry.BackoffStrategy

	// Credential providers, wired into the resolver at construction.
	iam            TokenIssuer
	azure          TokenIssuer
	secret         SecretStore
	googleInstance string
}

// New creates a Client for the given connection parameters. The parameters
// are kept as an immutable base; see ConnParams.
func New(params ConnParams, opts ...Option) (*Client, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		base:   params.clone(),
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.driver == nil {
		c.driver = &pgxDriver{googleInstance: c.googleInstance}
	}
	if c.queries == nil {
		c.queries = queries.NewDirSource(DefaultQueryDir)
	}
	if c.classifier == nil {
		c.classifier = retry.NewPostgreSQLErrorClassifier()
	}
	if c.strategy == nil {
		c.strategy = retry.NewExponentialBackoff(RetryMaxAttempts,
			retry.WithInitialDelay(RetryInitialDelay),
			retry.WithMultiplier(RetryBackoffMultiplier),
			retry.WithJitter(0),
		)
	}

	resolver := NewCredentialResolver(c.iam, c.azure, c.secret)
	c.guard = newConnectionGuard(c.base, c.driver, resolver, c.logger)
	c.guard.tunnel = c.tunnel

	return c, nil
}

// NewFromEnv creates a Client from <PREFIX>_DB_* environment variables.
func NewFromEnv(prefix string, opts ...Option) (*Client, error) {
	params, err := ParamsFromEnv(prefix)
	if err != nil {
		return nil, err
	}
	return New(params, opts...)
}

// Connect eagerly establishes the connection without executing a query.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.guard.Acquire(ctx)
	return err
}

// Disconnect closes the connection if one is open. Idempotent.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.guard.Disconnect(ctx)
}

// Exec runs the named query and discards any result.
func (c *Client) Exec(ctx context.Context, name string, args map[string]interface{}) error {
	_, err := c.run(ctx, FetchNone, name, "", args)
	return err
}

// ExecSQL runs literal SQL and discards any result.
func (c *Client) ExecSQL(ctx context.Context, sql string, args map[string]interface{}) error {
	_, err := c.run(ctx, FetchNone, "", sql, args)
	return err
}

// FetchOne runs the named query and returns the first row, or nil when the
// result is empty.
func (c *Client) FetchOne(ctx context.Context, name string, args map[string]interface{}) (*Row, error) {
	rows, err := c.run(ctx, FetchOne, name, "", args)
	return firstRow(rows), err
}

// FetchOneSQL is FetchOne for literal SQL.
func (c *Client) FetchOneSQL(ctx context.Context, sql string, args map[string]interface{}) (*Row, error) {
	rows, err := c.run(ctx, FetchOne, "", sql, args)
	return firstRow(rows), err
}

// FetchAll runs the named query and returns every row in order. A query
// returning zero rows yields an empty slice, not nil.
func (c *Client) FetchAll(ctx context.Context, name string, args map[string]interface{}) ([]Row, error) {
	return c.run(ctx, FetchAll, name, "", args)
}

// FetchAllSQL is FetchAll for literal SQL.
func (c *Client) FetchAllSQL(ctx context.Context, sql string, args map[string]interface{}) ([]Row, error) {
	return c.run(ctx, FetchAll, "", sql, args)
}

// ExecBatch runs the named query once per argument set, batched into a
// single round trip inside one transaction.
func (c *Client) ExecBatch(ctx context.Context, name string, argSets []map[string]interface{}) error {
	return c.runBatch(ctx, name, "", argSets)
}

// ExecBatchSQL is ExecBatch for literal SQL.
func (c *Client) ExecBatchSQL(ctx context.Context, sql string, argSets []map[string]interface{}) error {
	return c.runBatch(ctx, "", sql, argSets)
}

// ExecValues runs a multi-row single-statement insert or update. The query
// must contain a %s placeholder which is expanded to one parenthesized
// tuple of placeholders per row, e.g.
//
//	INSERT INTO metrics (name, value) VALUES %s
func (c *Client) ExecValues(ctx context.Context, name string, rows [][]interface{}) error {
	return c.runValues(ctx, name, "", rows)
}

// ExecValuesSQL is ExecValues for literal SQL.
func (c *Client) ExecValuesSQL(ctx context.Context, sql string, rows [][]interface{}) error {
	return c.runValues(ctx, "", sql, rows)
}

func firstRow(rows []Row) *Row {
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

// run wraps exactly one retry execution around one statement-scoped
// transaction.
func (c *Client) run(ctx context.Context, mode FetchMode, name, literal string, args map[string]interface{}) ([]Row, error) {
	query, display, err := c.resolveQuery(name, literal)
	if err != nil {
		return nil, err
	}

	var result []Row
	attempts := 0
	err = c.executor(display).Execute(ctx, func(ctx context.Context) error {
		attempts++
		rows, err := c.attempt(ctx, mode, query, args)
		if err != nil {
			return err
		}
		result = rows
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %s failed after %d attempt(s): %w", display, attempts, err)
	}

	if mode == FetchAll && result == nil {
		result = []Row{}
	}
	return result, nil
}

func (c *Client) runBatch(ctx context.Context, name, literal string, argSets []map[string]interface{}) error {
	query, display, err := c.resolveQuery(name, literal)
	if err != nil {
		return err
	}

	attempts := 0
	err = c.executor(display).Execute(ctx, func(ctx context.Context) error {
		attempts++
		return c.attemptBatch(ctx, query, argSets)
	})
	if err != nil {
		return fmt.Errorf("batch query %s failed after %d attempt(s): %w", display, attempts, err)
	}
	return nil
}

func (c *Client) runValues(ctx context.Context, name, literal string, rows [][]interface{}) error {
	query, display, err := c.resolveQuery(name, literal)
	if err != nil {
		return err
	}

	expanded, flat, err := expandValues(query, rows)
	if err != nil {
		return fmt.Errorf("values query %s: %w", display, err)
	}

	attempts := 0
	err = c.executor(display).Execute(ctx, func(ctx context.Context) error {
		attempts++
		return c.attemptPositional(ctx, expanded, flat)
	})
	if err != nil {
		return fmt.Errorf("values query %s failed after %d attempt(s): %w", display, attempts, err)
	}
	return nil
}

// executor builds the per-call retry executor. On a transient failure the
// guarded connection is force-disconnected before the backoff wait, so the
// next attempt re-resolves credentials and reconnects from scratch.
func (c *Client) executor(display string) *retry.Executor {
	return retry.NewExecutor(c.classifier, c.strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			_ = c.guard.Disconnect(context.Background())
			c.logger.Info("query %s attempt %d failed (%v); retrying in %s", display, attempt, err, delay)
		})
}

// attempt performs one acquire/execute/fetch cycle inside a transaction
// that commits on normal exit and rolls back when an error escapes.
func (c *Client) attempt(ctx context.Context, mode FetchMode, query string, args map[string]interface{}) ([]Row, error) {
	conn, err := c.guard.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Row
	switch mode {
	case FetchNone:
		err = tx.Exec(ctx, query, args)
	case FetchOne:
		rows, err = tx.Query(ctx, query, args, 1)
	case FetchAll:
		rows, err = tx.Query(ctx, query, args, 0)
	default:
		err = fmt.Errorf("unknown fetch mode %v", mode)
	}
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) attemptBatch(ctx context.Context, query string, argSets []map[string]interface{}) error {
	conn, err := c.guard.Acquire(ctx)
	if err != nil {
		return err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	if err := tx.ExecBatch(ctx, query, argSets); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (c *Client) attemptPositional(ctx context.Context, query string, args []interface{}) error {
	conn, err := c.guard.Acquire(ctx)
	if err != nil {
		return err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	if err := tx.Exec(ctx, query, args); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (c *Client) resolveQuery(name, literal string) (query, display string, err error) {
	if literal != "" {
		return literal, "(literal)", nil
	}
	if name == "" {
		return "", "", fmt.Errorf("query name or literal SQL is required: %w", ErrInvalidConfig)
	}

	text, err := c.queries.Lookup(name)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return "", "", fmt.Errorf("%w: %q", ErrQueryNotFound, name)
		}
		return "", "", fmt.Errorf("look up query %q: %w", name, err)
	}
	return text, fmt.Sprintf("%q", name), nil
}

// expandValues substitutes the %s placeholder with one tuple of positional
// placeholders per row and flattens the row values to match.
func expandValues(query string, rows [][]interface{}) (string, []interface{}, error) {
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("no rows given: %w", ErrInvalidConfig)
	}
	if !strings.Contains(query, "%s") {
		return "", nil, fmt.Errorf("query has no %%s values placeholder: %w", ErrInvalidConfig)
	}

	width := len(rows[0])
	if width == 0 {
		return "", nil, fmt.Errorf("rows must have at least one column: %w", ErrInvalidConfig)
	}

	var sb strings.Builder
	flat := make([]interface{}, 0, len(rows)*width)
	n := 1
	for i, row := range rows {
		if len(row) != width {
			return "", nil, fmt.Errorf("row %d has %d values, want %d: %w", i, len(row), width, ErrInvalidConfig)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", n)
			n++
		}
		sb.WriteByte(')')
		flat = append(flat, row...)
	}

	return strings.Replace(query, "%s", sb.String(), 1), flat, nil
}
