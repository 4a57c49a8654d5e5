package pgkeeper

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
)

// pgxDriver is the default Driver, wrapping a single pgx connection.
//
// When googleInstance is set ("project:region:instance"), connections are
// dialed through the Cloud SQL Go Connector with IAM authentication; the
// dialer's lifetime is tied to the connection it served.
type pgxDriver struct {
	googleInstance string
}

func (d *pgxDriver) Connect(ctx context.Context, params ConnParams) (Conn, error) {
	cfg, err := pgx.ParseConfig(params.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w", err)
	}

	var dialer *cloudsqlconn.Dialer
	if d.googleInstance != "" {
		dialer, err = cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
		if err != nil {
			return nil, fmt.Errorf("create Cloud SQL dialer: %w", err)
		}
		instance := d.googleInstance
		cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(ctx, instance)
		}
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		if dialer != nil {
			dialer.Close()
		}
		return nil, err
	}

	return &pgxConn{conn: conn, dialer: dialer}, nil
}

type pgxConn struct {
	conn   *pgx.Conn
	dialer *cloudsqlconn.Dialer
}

func (c *pgxConn) IsClosed() bool { return c.conn.IsClosed() }

func (c *pgxConn) Close(ctx context.Context) error {
	err := c.conn.Close(ctx)
	if c.dialer != nil {
		c.dialer.Close()
		c.dialer = nil
	}
	return err
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args interface{}) error {
	_, err := c.conn.Exec(ctx, sql, expandArgs(args)...)
	return err
}

func (c *pgxConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx}, nil
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Exec(ctx context.Context, sql string, args interface{}) error {
	_, err := t.tx.Exec(ctx, sql, expandArgs(args)...)
	return err
}

func (t *pgxTx) Query(ctx context.Context, sql string, args interface{}, limit int) ([]Row, error) {
	rows, err := t.tx.Query(ctx, sql, expandArgs(args)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = string(fd.Name)
	}

	out := []Row{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		out = append(out, NewRow(columns, values))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

func (t *pgxTx) ExecBatch(ctx context.Context, sql string, argSets []map[string]interface{}) error {
	batch := &pgx.Batch{}
	for _, set := range argSets {
		batch.Queue(sql, expandArgs(set)...)
	}

	results := t.tx.SendBatch(ctx, batch)
	for range argSets {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}

func (t *pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// expandArgs adapts the loosely-typed args of the Conn/Tx interfaces to
// pgx variadic arguments: nil for none, a name→value map for named
// parameters (@name placeholders), a slice for positional ($1, $2, ...).
func expandArgs(args interface{}) []interface{} {
	switch v := args.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		if len(v) == 0 {
			return nil
		}
		return []interface{}{pgx.NamedArgs(v)}
	case []interface{}:
		return v
	default:
		// A single bare value is treated as the first positional arg.
		return []interface{}{v}
	}
}
