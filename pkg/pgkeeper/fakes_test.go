package pgkeeper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vvka-141/pgkeeper/internal/queries"
	"github.com/vvka-141/pgkeeper/internal/retry"
)

// txScript drives fake transaction outcomes. Errors are consumed one per
// statement, shared across reconnects so a retry sequence can be scripted
// end to end.
type txScript struct {
	errs []error
	rows []Row
}

func (s *txScript) next() error {
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

type fakeDriver struct {
	calls  []ConnParams
	script *txScript

	// connectErr, when set, fails Connect for the given call numbers
	// (1-based).
	connectErr   error
	failConnects map[int]bool

	conns []*fakeConn
}

func (d *fakeDriver) Connect(ctx context.Context, params ConnParams) (Conn, error) {
	d.calls = append(d.calls, params.clone())
	if d.failConnects[len(d.calls)] {
		return nil, d.connectErr
	}
	conn := &fakeConn{script: d.script}
	d.conns = append(d.conns, conn)
	return conn, nil
}

type fakeConn struct {
	closed     bool
	script     *txScript
	adminStmts []string
	adminArgs  []interface{}
	adminErr   error
	txs        []*fakeTx
}

func (c *fakeConn) IsClosed() bool { return c.closed }

func (c *fakeConn) Close(ctx context.Context) error {
	c.closed = true
	return nil
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args interface{}) error {
	c.adminStmts = append(c.adminStmts, sql)
	c.adminArgs = append(c.adminArgs, args)
	return c.adminErr
}

func (c *fakeConn) Begin(ctx context.Context) (Tx, error) {
	tx := &fakeTx{script: c.script}
	c.txs = append(c.txs, tx)
	return tx, nil
}

type fakeTx struct {
	script *txScript

	stmts      []string
	args       []interface{}
	limits     []int
	batchSets  [][]map[string]interface{}
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args interface{}) error {
	t.stmts = append(t.stmts, sql)
	t.args = append(t.args, args)
	if t.script != nil {
		return t.script.next()
	}
	return nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args interface{}, limit int) ([]Row, error) {
	t.stmts = append(t.stmts, sql)
	t.args = append(t.args, args)
	t.limits = append(t.limits, limit)
	if t.script != nil {
		if err := t.script.next(); err != nil {
			return nil, err
		}
		rows := t.script.rows
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		return rows, nil
	}
	return nil, nil
}

func (t *fakeTx) ExecBatch(ctx context.Context, sql string, argSets []map[string]interface{}) error {
	t.stmts = append(t.stmts, sql)
	t.batchSets = append(t.batchSets, argSets)
	if t.script != nil {
		return t.script.next()
	}
	return nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeIssuer struct {
	tokens int
	err    error
	prefix string
}

func (f *fakeIssuer) IssueToken(ctx context.Context, host string, port int, user string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.tokens++
	return fmt.Sprintf("%stoken-%d", f.prefix, f.tokens), nil
}

type fakeSecretStore struct {
	user     string
	password string
	err      error
	lookups  []string
}

func (f *fakeSecretStore) GetSecret(ctx context.Context, id string) (string, string, error) {
	f.lookups = append(f.lookups, id)
	if f.err != nil {
		return "", "", f.err
	}
	return f.user, f.password, nil
}

type fakeTunnel struct {
	host    string
	port    int
	epErr   error
	started bool
	stopped bool
}

func (f *fakeTunnel) Start(ctx context.Context) error { f.started = true; return nil }
func (f *fakeTunnel) Stop() error                     { f.stopped = true; return nil }
func (f *fakeTunnel) LocalEndpoint() (string, int, error) {
	if f.epErr != nil {
		return "", 0, f.epErr
	}
	return f.host, f.port, nil
}

type mapQuerySource map[string]string

func (m mapQuerySource) Lookup(name string) (string, error) {
	sql, ok := m[name]
	if !ok {
		return "", fmt.Errorf("fake source: %w", queries.ErrNotFound)
	}
	return sql, nil
}

func testParams() ConnParams {
	return ConnParams{
		Host:     "db.example.com",
		Port:     5432,
		User:     "app",
		Password: "secret",
		Database: "orders",
	}
}

// newTestClient builds a client on fakes with millisecond backoff so retry
// paths run fast.
func newTestClient(t *testing.T, params ConnParams, driver *fakeDriver, opts ...Option) *Client {
	t.Helper()
	client, err := New(params, append([]Option{WithDriver(driver)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client.strategy = retry.NewExponentialBackoff(RetryMaxAttempts,
		retry.WithInitialDelay(time.Millisecond),
		retry.WithJitter(0),
	)
	return client
}
