/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
)

const (
	commandTerminalLength = "terminal length 0"
	commandConfigure      = "configure terminal"
	commandEnd            = "end"
)

// shellConn is an open interactive shell on a device.
type shellConn interface {
	Stdin() io.Writer
	Stdout() io.Reader
	Close() error
}

type dialFunc func(ctx context.Context, creds *models.DeviceCredentials) (shellConn, error)

// SessionExecutor runs commands over one interactive SSH shell per call.
type SessionExecutor struct {
	cfg    Config
	dial   dialFunc
	logger logger.Logger
}

// NewSessionExecutor builds an SSH session executor. Host keys are checked
// against cfg.KnownHostsFile when set and accepted otherwise.
func NewSessionExecutor(cfg Config, log logger.Logger) (*SessionExecutor, error) {
	hostKeys := ssh.InsecureIgnoreHostKey() //nolint:gosec // lab devices rarely have stable host keys

	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}

		hostKeys = cb
	}

	d := &sshDialer{
		port:           cfg.Port,
		connectTimeout: time.Duration(cfg.ConnectTimeout),
		hostKeys:       hostKeys,
	}

	return &SessionExecutor{cfg: cfg, dial: d.dial, logger: log}, nil
}

func (e *SessionExecutor) Run(ctx context.Context, creds *models.DeviceCredentials, commands []string) []Result {
	if len(commands) == 0 {
		return nil
	}

	sh, release, err := e.open(ctx, creds)
	if err != nil {
		return failAll(commands, err)
	}
	defer release()

	results := make([]Result, 0, len(commands))

	for i, command := range commands {
		started := time.Now()

		out, err := sh.send(ctx, command)
		if err != nil {
			// The stream position is unknown after a failed read, so the
			// remaining commands are not attempted.
			results = append(results, Result{Command: command, Output: out, Err: err, Started: started})
			results = append(results, failAll(commands[i+1:], err)...)

			return results
		}

		if diag := cliError(out); diag != "" {
			results = append(results, Result{
				Command: command, Output: out, Err: newCommandError(ErrCommandFailed, diag), Started: started,
			})

			continue
		}

		results = append(results, Result{Command: command, Output: out, Started: started})
	}

	return results
}

func (e *SessionExecutor) ApplyInterfaceState(
	ctx context.Context, creds *models.DeviceCredentials, updates []models.InterfaceUpdate) Result {
	command := models.InterfaceStateCommand(updates)

	sh, release, err := e.open(ctx, creds)
	if err != nil {
		return Result{Command: command, Err: err}
	}
	defer release()

	var transcript strings.Builder

	lines := append([]string{commandConfigure}, interfaceConfigLines(updates)...)

	var failure error

	for _, line := range lines {
		prompt := sh.prompt
		out, err := sh.send(ctx, line)
		appendTranscript(&transcript, prompt, line, out)

		if err != nil {
			return Result{Command: command, Output: transcript.String(), Err: err}
		}

		if diag := cliError(out); diag != "" {
			failure = newCommandError(ErrCommandFailed, fmt.Sprintf("%s: %s", line, diag))
			break
		}
	}

	// Leave configuration mode even after a rejected line.
	prompt := sh.prompt
	out, err := sh.send(ctx, commandEnd)
	appendTranscript(&transcript, prompt, commandEnd, out)

	if failure == nil && err != nil {
		failure = err
	}

	return Result{Command: command, Output: transcript.String(), Err: failure}
}

func appendTranscript(sb *strings.Builder, prompt, line, out string) {
	sb.WriteString(prompt)
	sb.WriteString(line)
	sb.WriteString("\n")

	if out != "" {
		sb.WriteString(out)
		sb.WriteString("\n")
	}
}

// open dials the device, waits for the first prompt and disables paging.
// The returned release func closes the shell and the connection.
func (e *SessionExecutor) open(ctx context.Context, creds *models.DeviceCredentials) (*promptShell, func(), error) {
	conn, err := e.dial(ctx, creds)
	if err != nil {
		return nil, nil, err
	}

	sh := newPromptShell(conn.Stdin(), conn.Stdout(), time.Duration(e.cfg.CommandTimeout))

	release := func() {
		sh.close()

		if err := conn.Close(); err != nil {
			e.logger.Debug().Err(err).Str("device", creds.IP).Msg("Error closing device session")
		}
	}

	if _, err := sh.readUntilPrompt(ctx); err != nil {
		release()
		return nil, nil, err
	}

	if _, err := sh.send(ctx, commandTerminalLength); err != nil {
		release()
		return nil, nil, err
	}

	return sh, release, nil
}

type sshDialer struct {
	port           int
	connectTimeout time.Duration
	hostKeys       ssh.HostKeyCallback
}

func (d *sshDialer) dial(ctx context.Context, creds *models.DeviceCredentials) (shellConn, error) {
	addr := net.JoinHostPort(creds.IP, strconv.Itoa(d.port))

	config := &ssh.ClientConfig{
		User: creds.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(creds.Password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = creds.Password
				}

				return answers, nil
			}),
		},
		HostKeyCallback: d.hostKeys,
		Timeout:         d.connectTimeout,
	}

	dialer := net.Dialer{Timeout: d.connectTimeout}

	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrDeviceConnectivity, addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = netConn.SetDeadline(deadline)
	} else {
		_ = netConn.SetDeadline(time.Now().Add(d.connectTimeout))
	}

	c, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("%w: handshake with %s: %w", ErrDeviceConnectivity, addr, err)
	}

	// Reads after the handshake are bounded by the shell's command timeout.
	_ = netConn.SetDeadline(time.Time{})

	client := ssh.NewClient(c, chans, reqs)

	sh, err := startShell(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: open shell on %s: %w", ErrDeviceConnectivity, addr, err)
	}

	return sh, nil
}

type sshShell struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
}

func startShell(client *ssh.Client) (*sshShell, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, err
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}

	if err := session.RequestPty("vt100", 0, 511, modes); err != nil {
		_ = session.Close()
		return nil, err
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		return nil, err
	}

	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		return nil, err
	}

	if err := session.Shell(); err != nil {
		_ = session.Close()
		return nil, err
	}

	return &sshShell{client: client, session: session, stdin: stdin, stdout: stdout}, nil
}

func (s *sshShell) Stdin() io.Writer  { return s.stdin }
func (s *sshShell) Stdout() io.Reader { return s.stdout }

func (s *sshShell) Close() error {
	var errs []error

	if err := s.session.Close(); err != nil && !errors.Is(err, io.EOF) {
		errs = append(errs, err)
	}

	if err := s.client.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
