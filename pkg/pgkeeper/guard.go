package pgkeeper

import (
	"context"
	"fmt"
	"time"
)

// ConnectionGuard owns at most one live connection handle. It decides when
// the existing handle is reusable and when it must be discarded and
// re-established, enforcing the staleness threshold.
//
// The guard keeps the base parameters immutable; every reconnect derives a
// fresh effective copy (credentials resolved, tunnel endpoint substituted)
// so that disconnecting always returns the guard to its original,
// unresolved state.
type ConnectionGuard struct {
	base     ConnParams
	driver   Driver
	resolver *CredentialResolver
	tunnel   Tunnel
	logger   Logger

	handle        Conn
	lastConnected time.Time
	staleAfter    time.Duration
	now           func() time.Time
}

func newConnectionGuard(base ConnParams, driver Driver, resolver *CredentialResolver, logger Logger) *ConnectionGuard {
	return &ConnectionGuard{
		base:       base,
		driver:     driver,
		resolver:   resolver,
		logger:     logger,
		staleAfter: StalenessThreshold,
		now:        time.Now,
	}
}

// Acquire returns the current handle when it exists, reports itself open,
// and was last connected within the staleness threshold. Otherwise it
// performs a full reconnect. The returned handle is never closed.
func (g *ConnectionGuard) Acquire(ctx context.Context) (Conn, error) {
	if g.handle != nil && !g.handle.IsClosed() && g.now().Sub(g.lastConnected) <= g.staleAfter {
		return g.handle, nil
	}
	return g.reconnect(ctx)
}

func (g *ConnectionGuard) reconnect(ctx context.Context) (Conn, error) {
	// Replace, never accumulate: the old handle is closed before a new
	// one is opened.
	if g.handle != nil {
		if !g.handle.IsClosed() {
			_ = g.handle.Close(ctx)
		}
		g.handle = nil
	}

	handle, err := g.connect(ctx, nil)
	if err != nil {
		return nil, err
	}

	g.handle = handle
	g.lastConnected = g.now()
	return handle, nil
}

// connect derives effective parameters from the base and opens a
// connection with them. override, when non-nil, adjusts the parameters
// before credential resolution; administrative operations use it to target
// the bootstrap database or substitute explicit admin credentials, so a
// sentinel in the base password is only resolved when the override keeps
// it in place.
func (g *ConnectionGuard) connect(ctx context.Context, override func(*ConnParams)) (Conn, error) {
	params := g.base.clone()
	if override != nil {
		override(&params)
	}

	eff, err := g.resolver.Resolve(ctx, params)
	if err != nil {
		return nil, err
	}

	if g.tunnel != nil {
		host, port, err := g.tunnel.LocalEndpoint()
		if err != nil {
			return nil, fmt.Errorf("tunnel endpoint: %w", err)
		}
		eff.Host = host
		eff.Port = port
	}

	g.logger.Verbose("connecting to %s database %q as %q", eff.Addr(), eff.Database, eff.User)

	handle, err := g.driver.Connect(ctx, eff)
	if err != nil {
		return nil, fmt.Errorf("%w: %s database %q: %w", ErrConnectionFailed, eff.Addr(), eff.Database, err)
	}
	return handle, nil
}

// ConnectOnce opens a standalone connection that is not tracked by the
// guard. The caller owns it and must close it. Used for administrative
// operations and connection verification.
func (g *ConnectionGuard) ConnectOnce(ctx context.Context, override func(*ConnParams)) (Conn, error) {
	return g.connect(ctx, override)
}

// Disconnect closes the tracked handle if one is open and clears it.
// Idempotent: a second call is a no-op. The next Acquire starts from the
// original base parameters, re-evaluating sentinels and tunnel state.
func (g *ConnectionGuard) Disconnect(ctx context.Context) error {
	if g.handle == nil {
		return nil
	}

	var err error
	if !g.handle.IsClosed() {
		err = g.handle.Close(ctx)
	}
	g.handle = nil
	g.lastConnected = time.Time{}
	return err
}
