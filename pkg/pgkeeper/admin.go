package pgkeeper

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Administrative operations run on a temporary, separate connection to the
// bootstrap database in autocommit mode, outside any transaction. They are
// never retried, and the temporary connection is closed regardless of
// outcome.

// CreateDatabase creates a database, defaulting to the configured database
// name when name is empty.
func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	if name == "" {
		name = c.base.Database
	}

	conn, err := c.guard.ConnectOnce(ctx, func(p *ConnParams) {
		p.Database = AdminDatabase
	})
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	stmt := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{name}.Sanitize())
	if err := conn.Exec(ctx, stmt, nil); err != nil {
		return fmt.Errorf("create database %q: %w", name, err)
	}
	return nil
}

// CreateIAMUser creates the configured user as a login role with IAM
// authentication. It connects to the bootstrap database with the given
// administrative credentials, since the IAM user cannot grant itself the
// rds_iam role.
func (c *Client) CreateIAMUser(ctx context.Context, adminUser, adminPassword string) error {
	iamUser := c.base.User

	conn, err := c.guard.ConnectOnce(ctx, func(p *ConnParams) {
		p.User = adminUser
		p.Password = adminPassword
		p.Database = AdminDatabase
	})
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	ident := pgx.Identifier{iamUser}.Sanitize()
	stmt := fmt.Sprintf("CREATE USER %s WITH LOGIN CREATEDB; GRANT rds_iam TO %s;", ident, ident)
	if err := conn.Exec(ctx, stmt, nil); err != nil {
		return fmt.Errorf("create IAM user %q: %w", iamUser, err)
	}
	return nil
}

// VerifyConnect attempts a raw connection without executing a query.
// Authentication failures and a missing database are reported as false;
// any other failure propagates.
func (c *Client) VerifyConnect(ctx context.Context) (bool, error) {
	conn, err := c.guard.ConnectOnce(ctx, nil)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "password authentication failed") ||
			strings.Contains(msg, "does not exist") {
			return false, nil
		}
		return false, err
	}
	_ = conn.Close(ctx)
	return true, nil
}
