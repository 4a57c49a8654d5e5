package pgkeeper

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transientErr() error {
	return &pgconn.PgError{Code: "08006", Message: "connection failure"}
}

func TestClient_Exec_SuccessFirstAttempt(t *testing.T) {
	driver := &fakeDriver{script: &txScript{}}
	client := newTestClient(t, testParams(), driver)

	err := client.ExecSQL(context.Background(), "DELETE FROM sessions", nil)

	require.NoError(t, err)
	require.Len(t, driver.calls, 1)
	tx := driver.conns[0].txs[0]
	assert.Equal(t, []string{"DELETE FROM sessions"}, tx.stmts)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestClient_Exec_RetriesTransientWithReconnect(t *testing.T) {
	driver := &fakeDriver{script: &txScript{
		errs: []error{transientErr(), transientErr(), nil},
	}}
	client := newTestClient(t, testParams(), driver)

	err := client.ExecSQL(context.Background(), "UPDATE t SET x = 1", nil)

	require.NoError(t, err)
	assert.Len(t, driver.calls, 3, "each retry reconnects from scratch")
	assert.True(t, driver.conns[0].closed, "failed connection force-disconnected")
	assert.True(t, driver.conns[1].closed)
	assert.False(t, driver.conns[2].closed)
}

func TestClient_Exec_FatalErrorNotRetried(t *testing.T) {
	fatal := &pgconn.PgError{Code: "42601", Message: "syntax error"}
	driver := &fakeDriver{script: &txScript{errs: []error{fatal}}}
	client := newTestClient(t, testParams(), driver)

	err := client.ExecSQL(context.Background(), "SELEC 1", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, fatal)
	assert.Contains(t, err.Error(), "after 1 attempt(s)")
	assert.Len(t, driver.calls, 1)
	assert.True(t, driver.conns[0].txs[0].rolledBack)
}

func TestClient_Exec_ExhaustsAttemptBudget(t *testing.T) {
	driver := &fakeDriver{script: &txScript{
		errs: []error{transientErr(), transientErr(), transientErr(), transientErr()},
	}}
	client := newTestClient(t, testParams(), driver)

	err := client.ExecSQL(context.Background(), "UPDATE t SET x = 1", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempt(s)")
	assert.Len(t, driver.calls, 3, "budget is 3 total attempts")
}

func TestClient_Exec_CredentialsResolvedPerAttempt(t *testing.T) {
	issuer := &fakeIssuer{}
	driver := &fakeDriver{script: &txScript{
		errs: []error{transientErr(), nil},
	}}

	params := testParams()
	params.Password = PasswordIAM
	client := newTestClient(t, params, driver, WithTokenIssuer(issuer))

	err := client.ExecSQL(context.Background(), "SELECT 1", nil)

	require.NoError(t, err)
	require.Len(t, driver.calls, 2)
	assert.Equal(t, "token-1", driver.calls[0].Password)
	assert.Equal(t, "token-2", driver.calls[1].Password, "retry re-resolves the sentinel")
	assert.Equal(t, PasswordIAM, client.base.Password)
}

func TestClient_FetchOne(t *testing.T) {
	rows := []Row{
		NewRow([]string{"id", "name"}, []interface{}{int64(1), "alpha"}),
		NewRow([]string{"id", "name"}, []interface{}{int64(2), "beta"}),
	}
	driver := &fakeDriver{script: &txScript{rows: rows}}
	client := newTestClient(t, testParams(), driver)

	row, err := client.FetchOneSQL(context.Background(), "SELECT id, name FROM t", nil)

	require.NoError(t, err)
	require.NotNil(t, row)
	id, ok := row.Get("id")
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestClient_FetchOne_NilOnEmptyResult(t *testing.T) {
	driver := &fakeDriver{script: &txScript{}}
	client := newTestClient(t, testParams(), driver)

	row, err := client.FetchOneSQL(context.Background(), "SELECT * FROM t WHERE false", nil)

	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestClient_FetchModesBoundRowReads(t *testing.T) {
	rows := []Row{
		NewRow([]string{"id"}, []interface{}{int64(1)}),
		NewRow([]string{"id"}, []interface{}{int64(2)}),
	}
	driver := &fakeDriver{script: &txScript{rows: rows}}
	client := newTestClient(t, testParams(), driver)

	ctx := context.Background()
	_, err := client.FetchOneSQL(ctx, "SELECT id FROM t", nil)
	require.NoError(t, err)
	all, err := client.FetchAllSQL(ctx, "SELECT id FROM t", nil)
	require.NoError(t, err)

	conn := driver.conns[0]
	assert.Equal(t, []int{1}, conn.txs[0].limits, "fetch-one reads a single row")
	assert.Equal(t, []int{0}, conn.txs[1].limits, "fetch-all reads everything")
	assert.Len(t, all, 2)
}

func TestClient_FetchAll_EmptyResultIsNonNil(t *testing.T) {
	driver := &fakeDriver{script: &txScript{}}
	client := newTestClient(t, testParams(), driver)

	rows, err := client.FetchAllSQL(context.Background(), "SELECT * FROM t WHERE false", nil)

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestClient_NamedQueryLookup(t *testing.T) {
	driver := &fakeDriver{script: &txScript{}}
	source := mapQuerySource{"active_users": "SELECT * FROM users WHERE active"}
	client := newTestClient(t, testParams(), driver, WithQuerySource(source))

	err := client.Exec(context.Background(), "active_users", nil)

	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE active", driver.conns[0].txs[0].stmts[0])
}

func TestClient_NamedQueryNotFound(t *testing.T) {
	driver := &fakeDriver{script: &txScript{}}
	client := newTestClient(t, testParams(), driver, WithQuerySource(mapQuerySource{}))

	err := client.Exec(context.Background(), "missing", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueryNotFound)
	assert.Empty(t, driver.calls, "lookup failures never touch the connection")
}

func TestClient_MissingQueryNameAndLiteral(t *testing.T) {
	driver := &fakeDriver{script: &txScript{}}
	client := newTestClient(t, testParams(), driver)

	err := client.Exec(context.Background(), "", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestClient_ExecBatch(t *testing.T) {
	driver := &fakeDriver{script: &txScript{}}
	client := newTestClient(t, testParams(), driver)

	sets := []map[string]interface{}{
		{"name": "a"},
		{"name": "b"},
	}
	err := client.ExecBatchSQL(context.Background(), "INSERT INTO t (name) VALUES (@name)", sets)

	require.NoError(t, err)
	tx := driver.conns[0].txs[0]
	require.Len(t, tx.batchSets, 1)
	assert.Equal(t, sets, tx.batchSets[0])
	assert.True(t, tx.committed)
}

func TestClient_ExecValues(t *testing.T) {
	driver := &fakeDriver{script: &txScript{}}
	client := newTestClient(t, testParams(), driver)

	err := client.ExecValuesSQL(context.Background(),
		"INSERT INTO metrics (name, value) VALUES %s",
		[][]interface{}{{"cpu", 0.5}, {"mem", 0.9}},
	)

	require.NoError(t, err)
	tx := driver.conns[0].txs[0]
	assert.Equal(t, "INSERT INTO metrics (name, value) VALUES ($1, $2), ($3, $4)", tx.stmts[0])
	assert.Equal(t, []interface{}{"cpu", 0.5, "mem", 0.9}, tx.args[0])
}

func TestClient_Connect_EagerAndIdempotentDisconnect(t *testing.T) {
	driver := &fakeDriver{script: &txScript{}}
	client := newTestClient(t, testParams(), driver)

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	require.Len(t, driver.calls, 1)

	require.NoError(t, client.Disconnect(ctx))
	require.NoError(t, client.Disconnect(ctx))
	assert.True(t, driver.conns[0].closed)
}

func TestExpandValues(t *testing.T) {
	sql, flat, err := expandValues("INSERT INTO t (a, b) VALUES %s", [][]interface{}{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2), ($3, $4), ($5, $6)", sql)
	assert.Equal(t, []interface{}{1, 2, 3, 4, 5, 6}, flat)
}

func TestExpandValues_Errors(t *testing.T) {
	_, _, err := expandValues("INSERT INTO t VALUES %s", nil)
	assert.ErrorIs(t, err, ErrInvalidConfig, "no rows")

	_, _, err = expandValues("INSERT INTO t VALUES (1)", [][]interface{}{{1}})
	assert.ErrorIs(t, err, ErrInvalidConfig, "missing placeholder")

	_, _, err = expandValues("INSERT INTO t VALUES %s", [][]interface{}{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrInvalidConfig, "ragged rows")
}
