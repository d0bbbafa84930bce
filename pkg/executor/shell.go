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
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"
)

//nolint:gochecknoglobals // compiled once
var (
	promptRe   = regexp.MustCompile(`^[A-Za-z0-9_.\-@:/()]+[#>]\s*$`)
	cliErrorRe = regexp.MustCompile(`(?m)^\s*% ?(Invalid input|Incomplete command|Ambiguous command|Unknown command|Bad mask|Invalid interface).*$`)
)

// promptShell drives an interactive CLI over a byte stream, treating a line
// that looks like a device prompt as the end of each command's output.
type promptShell struct {
	stdin   io.Writer
	chunks  chan []byte
	done    chan struct{}
	once    sync.Once
	readErr error
	buf     bytes.Buffer
	timeout time.Duration
	prompt  string
}

func newPromptShell(stdin io.Writer, stdout io.Reader, timeout time.Duration) *promptShell {
	s := &promptShell{
		stdin:   stdin,
		chunks:  make(chan []byte, 16),
		done:    make(chan struct{}),
		timeout: timeout,
	}

	go s.pump(stdout)

	return s
}

func (s *promptShell) pump(r io.Reader) {
	defer close(s.chunks)

	b := make([]byte, 4096)

	for {
		n, err := r.Read(b)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, b[:n])

			select {
			case s.chunks <- chunk:
			case <-s.done:
				return
			}
		}

		if err != nil {
			s.readErr = err
			return
		}
	}
}

func (s *promptShell) close() {
	s.once.Do(func() { close(s.done) })
}

// readUntilPrompt returns everything received before the next prompt line.
func (s *promptShell) readUntilPrompt(ctx context.Context) (string, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		if out, ok := s.takeThroughPrompt(); ok {
			return out, nil
		}

		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				err := s.readErr
				if err == nil {
					err = io.EOF
				}

				return s.buf.String(), fmt.Errorf("%w: session closed: %w", ErrDeviceConnectivity, err)
			}

			s.buf.Write(chunk)
		case <-ctx.Done():
			return s.buf.String(), newCommandError(ErrCommandTimeout, ctx.Err().Error())
		case <-timer.C:
			return s.buf.String(), newCommandError(ErrCommandTimeout,
				fmt.Sprintf("no prompt after %s", s.timeout))
		}
	}
}

func (s *promptShell) takeThroughPrompt() (string, bool) {
	data := s.buf.String()

	idx := strings.LastIndexByte(data, '\n')
	last := strings.TrimRight(data[idx+1:], "\r")

	if !promptRe.MatchString(strings.TrimSpace(last)) {
		return "", false
	}

	s.prompt = strings.TrimSpace(last)
	s.buf.Reset()

	if idx < 0 {
		return "", true
	}

	return data[:idx], true
}

// send writes one command line and returns its output without the echoed
// command and the trailing prompt.
func (s *promptShell) send(ctx context.Context, command string) (string, error) {
	if _, err := io.WriteString(s.stdin, command+"\n"); err != nil {
		return "", fmt.Errorf("%w: write %q: %w", ErrDeviceConnectivity, command, err)
	}

	out, err := s.readUntilPrompt(ctx)
	out = cleanOutput(out, command)

	return out, err
}

func cleanOutput(out, command string) string {
	out = strings.ReplaceAll(out, "\r", "")
	lines := strings.Split(out, "\n")

	if len(lines) > 0 && strings.Contains(lines[0], command) {
		lines = lines[1:]
	}

	return strings.TrimRight(strings.Join(lines, "\n"), " \n")
}

// cliError returns the first IOS error line in out, or "".
func cliError(out string) string {
	return strings.TrimSpace(cliErrorRe.FindString(out))
}
