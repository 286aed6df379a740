// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package remote reads files from hosts over SSH, polling until they exist.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
)

const (
	DefaultPort        = 22
	DefaultDialTimeout = 10 * time.Second
)

// Target is a host and the credentials used to reach it. One of Password,
// PrivateKey or PrivateKeyPath is required.
type Target struct {
	Host           string
	Port           int
	Username       string
	Password       string
	PrivateKey     []byte
	PrivateKeyPath string
}

func (t Target) Address() string {
	port := t.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

func (t Target) validate() error {
	if t.Host == "" {
		return &AccessError{Reason: "host is required"}
	}
	if t.Username == "" {
		return &AccessError{Host: t.Host, Reason: "username is required"}
	}
	if t.Password == "" && len(t.PrivateKey) == 0 && t.PrivateKeyPath == "" {
		return &AccessError{Host: t.Host, Reason: "one of password, private_key or private_key_path is required"}
	}
	return nil
}

// AccessError is a failure that retrying cannot fix: bad credentials, an
// unreadable key or a denied path.
type AccessError struct {
	Host   string
	Reason string
	Err    error
}

func (e *AccessError) Error() string {
	msg := "remote access"
	if e.Host != "" {
		msg += " to " + e.Host
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// FileSystem is an open remote session.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Close() error
}

// Dialer opens remote sessions.
type Dialer interface {
	Dial(ctx context.Context, t Target) (FileSystem, error)
}

// FetchFile polls until path exists on the target and returns its contents.
// A missing file is not ready and connection failures are retried; access
// errors end the wait.
func FetchFile(ctx context.Context, d Dialer, t Target, path string, opts ...converge.Option) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	probe := func(ctx context.Context) ([]byte, bool, error) {
		session, err := d.Dial(ctx, t)
		if err != nil {
			var ae *AccessError
			if errors.As(err, &ae) {
				return nil, false, err
			}
			return nil, false, converge.Transient(fmt.Errorf("connect to %s: %w", t.Address(), err))
		}
		defer func() { _ = session.Close() }()

		data, err := session.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, false, nil
		case errors.Is(err, fs.ErrPermission):
			return nil, false, &AccessError{Host: t.Host, Reason: "cannot read " + path, Err: err}
		case err != nil:
			return nil, false, converge.Transient(fmt.Errorf("read %s:%s: %w", t.Host, path, err))
		}
		return data, true, nil
	}

	opts = append([]converge.Option{converge.WithResource(t.Host + ":" + path)}, opts...)
	return converge.WaitFor(ctx, probe, opts...)
}

// SFTPDialer opens SFTP sessions over SSH.
type SFTPDialer struct {
	// DialTimeout bounds the connect, the SSH handshake and each file read.
	DialTimeout time.Duration

	// HostKeyCallback defaults to accepting any key; the hosts read from are
	// freshly provisioned and have no known key yet.
	HostKeyCallback ssh.HostKeyCallback

	Logger hclog.Logger
}

func (d *SFTPDialer) Dial(ctx context.Context, t Target) (FileSystem, error) {
	auth, err := authMethods(t)
	if err != nil {
		return nil, err
	}

	timeout := d.DialTimeout
	if timeout == 0 {
		timeout = DefaultDialTimeout
	}
	hostKey := d.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey() //nolint:gosec
	}
	logger := d.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	config := &ssh.ClientConfig{
		User:            t.Username,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}

	addr := t.Address()
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	// The handshake and subsystem start must finish within the dial timeout.
	_ = conn.SetDeadline(time.Now().Add(timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		stop()
		_ = conn.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, &AccessError{Host: t.Host, Reason: "authentication failed", Err: err}
		}
		return nil, err
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sc, err := sftp.NewClient(client)
	if err != nil {
		stop()
		_ = client.Close()
		return nil, fmt.Errorf("start sftp subsystem: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})
	logger.Debug("opened sftp session", "address", addr, "username", t.Username)

	return &sftpFileSystem{conn: conn, client: client, sftp: sc, timeout: timeout, stop: stop}, nil
}

func authMethods(t Target) ([]ssh.AuthMethod, error) {
	key := t.PrivateKey
	if len(key) == 0 && t.PrivateKeyPath != "" {
		path, err := homedir.Expand(t.PrivateKeyPath)
		if err != nil {
			return nil, &AccessError{Host: t.Host, Reason: "cannot expand private key path", Err: err}
		}
		if key, err = os.ReadFile(path); err != nil {
			return nil, &AccessError{Host: t.Host, Reason: "cannot read private key", Err: err}
		}
	}

	var methods []ssh.AuthMethod
	if len(key) > 0 {
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, &AccessError{Host: t.Host, Reason: "cannot parse private key", Err: err}
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if t.Password != "" {
		methods = append(methods, ssh.Password(t.Password))
	}
	return methods, nil
}

type sftpFileSystem struct {
	conn    net.Conn
	client  *ssh.Client
	sftp    *sftp.Client
	timeout time.Duration
	stop    func() bool
}

func (s *sftpFileSystem) ReadFile(path string) ([]byte, error) {
	_ = s.conn.SetDeadline(time.Now().Add(s.timeout))
	defer func() { _ = s.conn.SetDeadline(time.Time{}) }()

	f, err := s.sftp.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *sftpFileSystem) Close() error {
	s.stop()
	return errors.Join(s.sftp.Close(), s.client.Close())
}
