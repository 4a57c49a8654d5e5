// Package tunnel provides an SSH port forwarder: a local listener whose
// connections are relayed to a remote host through an SSH client.
package tunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// ErrNotStarted is returned when the local endpoint is requested before
// Start succeeded.
var ErrNotStarted = errors.New("tunnel not started")

const defaultSSHPort = "22"

// SSH forwards a local loopback endpoint to remoteHost:remotePort through
// an SSH connection. Start and Stop bound its lifetime; stopping the
// tunnel does not touch whatever database connections went through it,
// that ordering is the caller's job.
type SSH struct {
	sshHost    string
	sshUser    string
	keyPath    string
	remoteHost string
	remotePort int

	mu       sync.Mutex
	client   *ssh.Client
	listener net.Listener
}

// NewSSH creates a forwarder to remoteHost:remotePort via sshHost,
// authenticating as sshUser with the private key at keyPath. sshHost may
// include a port; 22 is assumed otherwise.
func NewSSH(sshHost, sshUser, keyPath, remoteHost string, remotePort int) *SSH {
	return &SSH{
		sshHost:    sshHost,
		sshUser:    sshUser,
		keyPath:    keyPath,
		remoteHost: remoteHost,
		remotePort: remotePort,
	}
}

// Start dials the SSH host and begins accepting local connections on an
// ephemeral loopback port.
func (t *SSH) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener != nil {
		return errors.New("tunnel already started")
	}

	key, err := os.ReadFile(t.keyPath)
	if err != nil {
		return fmt.Errorf("read SSH key %s: %w", t.keyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return fmt.Errorf("parse SSH key %s: %w", t.keyPath, err)
	}

	addr := t.sshHost
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, defaultSSHPort)
	}

	cfg := &ssh.ClientConfig{
		User: t.sshUser,
		Auth: []ssh.AuthMethod{ssh.PublicKeys(signer)},
		// TODO: verify against the user's known_hosts file instead.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         15 * time.Second,
	}

	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return fmt.Errorf("dial SSH host %s: %w", addr, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		client.Close()
		return fmt.Errorf("listen on loopback: %w", err)
	}

	t.client = client
	t.listener = listener
	go t.accept(listener, client)
	return nil
}

func (t *SSH) accept(listener net.Listener, client *ssh.Client) {
	remoteAddr := net.JoinHostPort(t.remoteHost, strconv.Itoa(t.remotePort))
	for {
		local, err := listener.Accept()
		if err != nil {
			return // listener closed by Stop
		}

		go func() {
			defer local.Close()
			remote, err := client.Dial("tcp", remoteAddr)
			if err != nil {
				return
			}
			defer remote.Close()

			done := make(chan struct{}, 2)
			go func() { _, _ = io.Copy(remote, local); done <- struct{}{} }()
			go func() { _, _ = io.Copy(local, remote); done <- struct{}{} }()
			<-done
		}()
	}
}

// LocalEndpoint returns the loopback host and port to connect to.
func (t *SSH) LocalEndpoint() (string, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener == nil {
		return "", 0, ErrNotStarted
	}
	addr := t.listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, nil
}

// Stop closes the listener and the SSH connection. Idempotent.
func (t *SSH) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	if t.listener != nil {
		errs = append(errs, t.listener.Close())
		t.listener = nil
	}
	if t.client != nil {
		errs = append(errs, t.client.Close())
		t.client = nil
	}
	return errors.Join(errs...)
}
