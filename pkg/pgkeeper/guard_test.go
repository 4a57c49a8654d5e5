package pgkeeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move the guard's idea of now.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGuard(driver *fakeDriver, resolver *CredentialResolver) (*ConnectionGuard, *fakeClock) {
	if resolver == nil {
		resolver = NewCredentialResolver(nil, nil, nil)
	}
	g := newConnectionGuard(testParams(), driver, resolver, nopLogger{})
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	g.now = clock.now
	return g, clock
}

func TestGuard_ReusesFreshConnection(t *testing.T) {
	driver := &fakeDriver{}
	g, clock := newTestGuard(driver, nil)

	ctx := context.Background()
	first, err := g.Acquire(ctx)
	require.NoError(t, err)

	clock.advance(59 * time.Second)
	second, err := g.Acquire(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, driver.calls, 1)
}

func TestGuard_ReconnectsWhenStale(t *testing.T) {
	driver := &fakeDriver{}
	g, clock := newTestGuard(driver, nil)

	ctx := context.Background()
	first, err := g.Acquire(ctx)
	require.NoError(t, err)

	clock.advance(61 * time.Second)
	second, err := g.Acquire(ctx)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Len(t, driver.calls, 2)
	assert.True(t, driver.conns[0].closed, "stale handle must be closed before reconnecting")
}

func TestGuard_ReconnectsWhenHandleClosed(t *testing.T) {
	driver := &fakeDriver{}
	g, _ := newTestGuard(driver, nil)

	ctx := context.Background()
	first, err := g.Acquire(ctx)
	require.NoError(t, err)

	first.(*fakeConn).closed = true

	second, err := g.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Len(t, driver.calls, 2)
}

func TestGuard_DisconnectIsIdempotent(t *testing.T) {
	driver := &fakeDriver{}
	g, _ := newTestGuard(driver, nil)

	ctx := context.Background()
	conn, err := g.Acquire(ctx)
	require.NoError(t, err)

	require.NoError(t, g.Disconnect(ctx))
	assert.True(t, conn.(*fakeConn).closed)
	require.NoError(t, g.Disconnect(ctx), "second disconnect is a no-op")
}

func TestGuard_DisconnectRestoresBaseState(t *testing.T) {
	issuer := &fakeIssuer{}
	resolver := NewCredentialResolver(issuer, nil, nil)
	driver := &fakeDriver{}

	params := testParams()
	params.Password = PasswordIAM
	g := newConnectionGuard(params, driver, resolver, nopLogger{})

	ctx := context.Background()
	_, err := g.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, g.Disconnect(ctx))
	_, err = g.Acquire(ctx)
	require.NoError(t, err)

	require.Len(t, driver.calls, 2)
	assert.Equal(t, "token-1", driver.calls[0].Password)
	assert.Equal(t, "token-2", driver.calls[1].Password, "credentials re-resolved after disconnect")
	assert.Equal(t, PasswordIAM, g.base.Password, "base parameters stay unresolved")
}

func TestGuard_ConnectOnceIsUntracked(t *testing.T) {
	driver := &fakeDriver{}
	g, _ := newTestGuard(driver, nil)

	ctx := context.Background()
	conn, err := g.ConnectOnce(ctx, func(p *ConnParams) {
		p.Database = AdminDatabase
	})
	require.NoError(t, err)
	defer conn.Close(ctx)

	assert.Equal(t, AdminDatabase, driver.calls[0].Database)
	assert.Nil(t, g.handle, "one-shot connections are not tracked")
}

func TestGuard_ConnectOnceOverrideAppliedBeforeResolution(t *testing.T) {
	driver := &fakeDriver{}
	resolver := NewCredentialResolver(nil, nil, nil) // no providers

	params := testParams()
	params.Password = PasswordSecretManaged
	g := newConnectionGuard(params, driver, resolver, nopLogger{})

	ctx := context.Background()
	conn, err := g.ConnectOnce(ctx, func(p *ConnParams) {
		p.User = "postgres"
		p.Password = "adminpass"
	})

	require.NoError(t, err, "override replaces the sentinel before resolution runs")
	defer conn.Close(ctx)
	assert.Equal(t, "adminpass", driver.calls[0].Password)
	assert.Equal(t, PasswordSecretManaged, g.base.Password, "base stays unresolved")
}

func TestGuard_TunnelEndpointSubstitution(t *testing.T) {
	driver := &fakeDriver{}
	g, _ := newTestGuard(driver, nil)
	g.tunnel = &fakeTunnel{host: "127.0.0.1", port: 55432}

	ctx := context.Background()
	_, err := g.Acquire(ctx)
	require.NoError(t, err)

	eff := driver.calls[0]
	assert.Equal(t, "127.0.0.1", eff.Host)
	assert.Equal(t, 55432, eff.Port)
	assert.Equal(t, "db.example.com", g.base.Host, "base host untouched")
}

func TestGuard_TunnelEndpointFailure(t *testing.T) {
	driver := &fakeDriver{}
	g, _ := newTestGuard(driver, nil)
	g.tunnel = &fakeTunnel{epErr: ErrTunnelNotActive}

	_, err := g.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTunnelNotActive)
	assert.Empty(t, driver.calls, "no connect attempt without an endpoint")
}

func TestGuard_ConnectFailureWrapsErrConnectionFailed(t *testing.T) {
	driver := &fakeDriver{
		connectErr:   errors.New("dial tcp: connection refused"),
		failConnects: map[int]bool{1: true},
	}
	g, _ := newTestGuard(driver, nil)

	_, err := g.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Contains(t, err.Error(), "db.example.com:5432")
	assert.Contains(t, err.Error(), "orders")
}
