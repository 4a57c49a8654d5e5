package pgkeeper

import (
	"context"
	"errors"

	"github.com/vvka-141/pgkeeper/internal/tunnel"
)

// TunnelStart opens an SSH tunnel to sshHost and forwards a local endpoint
// to the configured database host and port. Subsequent connects go through
// the tunnel; the base parameters are untouched.
func (c *Client) TunnelStart(ctx context.Context, sshHost, sshUser, keyPath string) error {
	if c.tunnel != nil {
		return errors.New("tunnel already active")
	}

	t := tunnel.NewSSH(sshHost, sshUser, keyPath, c.base.Host, c.basePort())
	if err := t.Start(ctx); err != nil {
		return err
	}

	c.tunnel = t
	c.guard.tunnel = t
	c.logger.Verbose("tunnel to %s active", sshHost)
	return nil
}

// TunnelStop closes the database connection first, then the tunnel.
// Stopping the tunnel does not happen implicitly on Disconnect; the two
// lifecycles are independent.
func (c *Client) TunnelStop(ctx context.Context) error {
	if c.tunnel == nil {
		return nil
	}

	discErr := c.guard.Disconnect(ctx)
	stopErr := c.tunnel.Stop()
	c.tunnel = nil
	c.guard.tunnel = nil
	return errors.Join(discErr, stopErr)
}

func (c *Client) basePort() int {
	if c.base.Port == 0 {
		return DefaultPort
	}
	return c.base.Port
}
