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
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
)

// fakeDevice emulates an IOS CLI over in-memory pipes.
type fakeDevice struct {
	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter

	responses map[string]string
	hang      map[string]bool

	mu       sync.Mutex
	received []string
	closed   atomic.Bool
}

func newFakeDevice(responses map[string]string, hang map[string]bool) *fakeDevice {
	d := &fakeDevice{responses: responses, hang: hang}
	d.stdinR, d.stdinW = io.Pipe()
	d.stdoutR, d.stdoutW = io.Pipe()

	go d.serve()

	return d
}

func (d *fakeDevice) Stdin() io.Writer  { return d.stdinW }
func (d *fakeDevice) Stdout() io.Reader { return d.stdoutR }

func (d *fakeDevice) Close() error {
	d.closed.Store(true)
	_ = d.stdinW.Close()
	_ = d.stdoutW.Close()

	return nil
}

func (d *fakeDevice) commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.received...)
}

func (d *fakeDevice) serve() {
	prompt := "R1#"

	if _, err := io.WriteString(d.stdoutW, "\r\nUser Access Verification\r\n"+prompt); err != nil {
		return
	}

	scanner := bufio.NewScanner(d.stdinR)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		d.mu.Lock()
		d.received = append(d.received, line)
		d.mu.Unlock()

		if d.hang[line] {
			continue
		}

		switch {
		case line == "configure terminal":
			prompt = "R1(config)#"
		case strings.HasPrefix(line, "interface "):
			prompt = "R1(config-if)#"
		case line == "exit" && prompt == "R1(config-if)#":
			prompt = "R1(config)#"
		case line == "end":
			prompt = "R1#"
		}

		out := line + "\r\n"
		if resp := d.responses[line]; resp != "" {
			out += strings.ReplaceAll(resp, "\n", "\r\n") + "\r\n"
		}

		if _, err := io.WriteString(d.stdoutW, out+prompt); err != nil {
			return
		}
	}
}

func newTestSession(dev *fakeDevice, dialErr error) *SessionExecutor {
	cfg := Config{CommandTimeout: models.Duration(200 * time.Millisecond)}

	return &SessionExecutor{
		cfg: cfg,
		dial: func(context.Context, *models.DeviceCredentials) (shellConn, error) {
			if dialErr != nil {
				return nil, dialErr
			}

			return dev, nil
		},
		logger: logger.NewTestLogger(),
	}
}

var testCreds = &models.DeviceCredentials{IP: "10.0.0.1", Username: "admin", Password: "secret"}

func TestSessionRunCommands(t *testing.T) {
	dev := newFakeDevice(map[string]string{
		"show version":            "Cisco IOS Software, Version 15.6(2)T\nR1 uptime is 5 hours, 10 minutes",
		"show ip interface brief": "Interface  IP-Address  OK? Method Status Protocol\nGi0/0  10.0.0.1  YES NVRAM  up  up",
	}, nil)

	results := newTestSession(dev, nil).Run(context.Background(), testCreds,
		[]string{"show version", "show ip interface brief"})

	require.Len(t, results, 2)
	assert.True(t, results[0].OK())
	assert.Equal(t, "show version", results[0].Command)
	assert.Equal(t, "Cisco IOS Software, Version 15.6(2)T\nR1 uptime is 5 hours, 10 minutes", results[0].Output)
	assert.Contains(t, results[1].Output, "Gi0/0")
	assert.NotContains(t, results[1].Output, "R1#")

	assert.Equal(t, []string{"terminal length 0", "show version", "show ip interface brief"}, dev.commands())
	assert.True(t, dev.closed.Load())

	require.False(t, results[0].Started.IsZero())
	assert.False(t, results[1].Started.Before(results[0].Started))
}

func TestSessionRunDialFailure(t *testing.T) {
	dialErr := errors.New("dial tcp 10.0.0.1:22: connect: connection refused")

	results := newTestSession(nil, errors.Join(ErrDeviceConnectivity, dialErr)).Run(
		context.Background(), testCreds, models.RefreshCommands())

	require.Len(t, results, 3)

	for _, r := range results {
		require.ErrorIs(t, r.Err, ErrDeviceConnectivity)
		assert.True(t, r.Started.IsZero())
	}
}

func TestSessionRunTimeoutFailsRemainingCommands(t *testing.T) {
	dev := newFakeDevice(map[string]string{"show version": "Version 15.6"}, map[string]bool{"show ip interface brief": true})

	results := newTestSession(dev, nil).Run(context.Background(), testCreds, models.RefreshCommands())

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	require.ErrorIs(t, results[1].Err, ErrCommandTimeout)
	require.ErrorIs(t, results[2].Err, ErrCommandTimeout)
	assert.True(t, dev.closed.Load())
}

func TestSessionRunReportsCLIError(t *testing.T) {
	dev := newFakeDevice(map[string]string{
		"show bogus": "                ^\n% Invalid input detected at '^' marker.",
	}, nil)

	results := newTestSession(dev, nil).Run(context.Background(), testCreds, []string{"show bogus", "show clock"})

	require.Len(t, results, 2)
	require.ErrorIs(t, results[0].Err, ErrCommandFailed)
	assert.Equal(t, "% Invalid input detected at '^' marker.", results[0].Err.Error())
	assert.True(t, results[1].OK())
}

func TestSessionApplyInterfaceState(t *testing.T) {
	dev := newFakeDevice(map[string]string{
		"configure terminal": "Enter configuration commands, one per line.  End with CNTL/Z.",
	}, nil)

	res := newTestSession(dev, nil).ApplyInterfaceState(context.Background(), testCreds, []models.InterfaceUpdate{
		models.NewInterfaceUpdate("Gi0/1", false),
		models.NewInterfaceUpdate("Gi0/2", true),
	})

	require.NoError(t, res.Err)
	assert.Equal(t, "configure interface-state Gi0/1,Gi0/2", res.Command)
	assert.Contains(t, res.Output, "R1(config-if)#no shutdown")
	assert.Equal(t, []string{
		"terminal length 0",
		"configure terminal",
		"interface Gi0/1", "shutdown", "exit",
		"interface Gi0/2", "no shutdown", "exit",
		"end",
	}, dev.commands())
	assert.True(t, dev.closed.Load())
}

func TestSessionApplyInterfaceStateRejectedLineStillEnds(t *testing.T) {
	dev := newFakeDevice(map[string]string{
		"interface Bogus9": "% Invalid interface type and number",
	}, nil)

	res := newTestSession(dev, nil).ApplyInterfaceState(context.Background(), testCreds, []models.InterfaceUpdate{
		models.NewInterfaceUpdate("Bogus9", true),
	})

	require.ErrorIs(t, res.Err, ErrCommandFailed)
	assert.Contains(t, res.Err.Error(), "interface Bogus9")

	cmds := dev.commands()
	assert.Equal(t, "end", cmds[len(cmds)-1])
	assert.NotContains(t, cmds, "no shutdown")
}

func TestPromptShellContextCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	sh := newPromptShell(io.Discard, r, time.Minute)
	defer sh.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sh.readUntilPrompt(ctx)
	require.ErrorIs(t, err, ErrCommandTimeout)
}

func TestPromptShellClosedStream(t *testing.T) {
	sh := newPromptShell(io.Discard, strings.NewReader("partial output"), time.Minute)
	defer sh.close()

	out, err := sh.readUntilPrompt(context.Background())
	require.ErrorIs(t, err, ErrDeviceConnectivity)
	assert.Equal(t, "partial output", out)
}
