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

package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/devicejobs/pkg/executor"
	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/natsutil"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.events...)
}

// fakeMsg implements the jetstream.Msg methods the consumer calls.
type fakeMsg struct {
	jetstream.Msg
	id   string
	data []byte
	log  *eventLog
}

func (m *fakeMsg) Data() []byte  { return m.data }
func (*fakeMsg) Subject() string { return "jobs.ping" }

func (m *fakeMsg) Ack() error {
	m.log.add("ack:" + m.id)
	return nil
}

func (m *fakeMsg) Nak() error {
	m.log.add("nak:" + m.id)
	return nil
}

func (m *fakeMsg) Term() error {
	m.log.add("term:" + m.id)
	return nil
}

func (m *fakeMsg) InProgress() error {
	m.log.add("progress:" + m.id)
	return nil
}

type fetchStep struct {
	msgs []jetstream.Msg
	err  error
}

// fakePullConsumer replays steps, then returns err on every later fetch.
// A nil err yields empty batches.
type fakePullConsumer struct {
	mu      sync.Mutex
	steps   []fetchStep
	err     error
	fetches int
}

func (f *fakePullConsumer) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches++

	if len(f.steps) == 0 {
		if f.err != nil {
			return nil, f.err
		}

		time.Sleep(time.Millisecond)

		return newFakeBatch(nil), nil
	}

	step := f.steps[0]
	f.steps = f.steps[1:]

	if step.err != nil {
		return nil, step.err
	}

	return newFakeBatch(step.msgs), nil
}

func (f *fakePullConsumer) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.fetches
}

type fakeMessageBatch struct {
	ch  chan jetstream.Msg
	err error
}

func newFakeBatch(msgs []jetstream.Msg) *fakeMessageBatch {
	ch := make(chan jetstream.Msg, len(msgs))
	for _, m := range msgs {
		ch <- m
	}

	close(ch)

	return &fakeMessageBatch{ch: ch}
}

func (f *fakeMessageBatch) Messages() <-chan jetstream.Msg {
	return f.ch
}

func (f *fakeMessageBatch) Error() error {
	return f.err
}

type fatalBatchConsumer struct{}

func (*fatalBatchConsumer) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	b := newFakeBatch(nil)
	b.err = nats.ErrConnectionClosed

	return b, nil
}

type processFunc func(ctx context.Context, data []byte) error

func (f processFunc) Process(ctx context.Context, data []byte) error {
	return f(ctx, data)
}

func newTestConsumer(pc pullConsumer, proc jobProcessor, mode AckMode) *Consumer {
	log := logger.NewTestLogger()

	c := newConsumer(pc, proc, mode, newStateTracker(log), log)
	c.fetchPause = time.Millisecond

	return c
}

func TestConsumerProcessMessagesReturnsFatalError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "connection closed", err: nats.ErrConnectionClosed},
		{name: "no responders", err: nats.ErrNoResponders},
		{name: "consumer deleted", err: jetstream.ErrConsumerDeleted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := newTestConsumer(&fakePullConsumer{err: tc.err}, nil, AckImmediate)

			err := c.ProcessMessages(context.Background())
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestConsumerReturnsFatalBatchError(t *testing.T) {
	t.Parallel()

	c := newTestConsumer(&fatalBatchConsumer{}, nil, AckImmediate)

	require.ErrorIs(t, c.ProcessMessages(context.Background()), nats.ErrConnectionClosed)
}

func TestConsumerStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	pc := &fakePullConsumer{}
	c := newTestConsumer(pc, nil, AckImmediate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.ProcessMessages(ctx))
	assert.Equal(t, 0, pc.fetchCount())
}

func TestConsumerImmediateAcksBeforeProcessing(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	pc := &fakePullConsumer{
		steps: []fetchStep{
			{msgs: []jetstream.Msg{&fakeMsg{id: "1", data: []byte("1"), log: log}}},
			{msgs: []jetstream.Msg{&fakeMsg{id: "2", data: []byte("2"), log: log}}},
		},
		err: nats.ErrConnectionClosed,
	}

	// Errors never change the ack decision in immediate mode.
	proc := processFunc(func(_ context.Context, data []byte) error {
		log.add("process:" + string(data))
		return fmt.Errorf("%w: boom", ErrPersistResult)
	})

	c := newTestConsumer(pc, proc, AckImmediate)

	require.ErrorIs(t, c.ProcessMessages(context.Background()), nats.ErrConnectionClosed)
	assert.Equal(t, []string{"ack:1", "process:1", "ack:2", "process:2"}, log.all())
}

func TestConsumerAfterPersistAckDecision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "persisted", err: nil, want: "ack:1"},
		{name: "malformed", err: fmt.Errorf("%w: no ip", models.ErrMalformedJob), want: "term:1"},
		{name: "panicked", err: fmt.Errorf("%w: nil map", ErrJobPanicked), want: "term:1"},
		{name: "persist failed", err: fmt.Errorf("%w: db down", ErrPersistResult), want: "nak:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log := &eventLog{}
			pc := &fakePullConsumer{
				steps: []fetchStep{{msgs: []jetstream.Msg{&fakeMsg{id: "1", data: []byte("1"), log: log}}}},
				err:   nats.ErrConnectionClosed,
			}

			proc := processFunc(func(_ context.Context, data []byte) error {
				log.add("process:" + string(data))
				return tt.err
			})

			c := newTestConsumer(pc, proc, AckAfterPersist)

			require.ErrorIs(t, c.ProcessMessages(context.Background()), nats.ErrConnectionClosed)
			assert.Equal(t, []string{"process:1", tt.want}, log.all())
		})
	}
}

func TestConsumerReportsProgressUntilPersisted(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	pc := &fakePullConsumer{
		steps: []fetchStep{{msgs: []jetstream.Msg{&fakeMsg{id: "1", data: []byte("1"), log: log}}}},
		err:   nats.ErrConnectionClosed,
	}

	proc := processFunc(func(context.Context, []byte) error {
		time.Sleep(60 * time.Millisecond)
		log.add("persisted:1")

		return nil
	})

	c := newTestConsumer(pc, proc, AckAfterPersist)
	c.progressInterval = 5 * time.Millisecond

	require.ErrorIs(t, c.ProcessMessages(context.Background()), nats.ErrConnectionClosed)

	events := log.all()
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, "progress:1", events[0])
	assert.Contains(t, events, "persisted:1")
	assert.Equal(t, "ack:1", events[len(events)-1])
}

func TestConsumerImmediateModeSkipsProgress(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	pc := &fakePullConsumer{
		steps: []fetchStep{{msgs: []jetstream.Msg{&fakeMsg{id: "1", data: []byte("1"), log: log}}}},
		err:   nats.ErrConnectionClosed,
	}

	proc := processFunc(func(context.Context, []byte) error {
		time.Sleep(30 * time.Millisecond)
		return nil
	})

	c := newTestConsumer(pc, proc, AckImmediate)
	c.progressInterval = 5 * time.Millisecond

	require.ErrorIs(t, c.ProcessMessages(context.Background()), nats.ErrConnectionClosed)
	assert.Equal(t, []string{"ack:1"}, log.all())
}

func TestProgressIntervalFitsAckWait(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10*time.Second, progressIntervalFor(natsutil.DefaultAckWait))
	assert.Less(t, progressIntervalFor(2*time.Minute), 2*time.Minute)
}

func TestConsumerPausesOnTransientFetchError(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	pc := &fakePullConsumer{
		steps: []fetchStep{
			{err: errors.New("nats: temporary failure")},
			{msgs: []jetstream.Msg{&fakeMsg{id: "1", data: []byte("1"), log: log}}},
		},
		err: nats.ErrConnectionClosed,
	}

	proc := processFunc(func(context.Context, []byte) error { return nil })
	c := newTestConsumer(pc, proc, AckImmediate)

	require.ErrorIs(t, c.ProcessMessages(context.Background()), nats.ErrConnectionClosed)
	assert.Equal(t, []string{"ack:1"}, log.all())
	assert.Equal(t, 3, pc.fetchCount())
}

func TestConsumerLetsInFlightJobFinish(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := &eventLog{}
	pc := &fakePullConsumer{
		steps: []fetchStep{
			{msgs: []jetstream.Msg{
				&fakeMsg{id: "1", data: []byte("1"), log: log},
				&fakeMsg{id: "2", data: []byte("2"), log: log},
			}},
		},
	}

	var jobCtxErr error

	proc := processFunc(func(jobCtx context.Context, data []byte) error {
		if string(data) == "1" {
			cancel()

			jobCtxErr = jobCtx.Err()
		}

		log.add("process:" + string(data))

		return nil
	})

	c := newTestConsumer(pc, proc, AckImmediate)

	require.NoError(t, c.ProcessMessages(ctx))
	require.NoError(t, jobCtxErr)
	assert.Contains(t, log.all(), "process:1")
}

// A device that panics, a garbage payload and a failed lookup never stop the
// next job.
func TestConsumerIsolatesJobFailures(t *testing.T) {
	t.Parallel()

	p, exec, st := newTestProcessor(t)
	sink := &resultSink{}
	bad := testCreds("10.0.0.1")
	good := testCreds("10.0.0.2")

	st.EXPECT().GetDevice(gomock.Any(), "10.0.0.1").Return(bad, nil)
	st.EXPECT().GetDevice(gomock.Any(), "10.0.0.2").Return(good, nil)
	st.EXPECT().GetDevice(gomock.Any(), "10.0.0.3").Return(nil, errors.New("inventory offline"))
	exec.EXPECT().Run(gomock.Any(), bad, gomock.Any()).
		DoAndReturn(func(context.Context, *models.DeviceCredentials, []string) []executor.Result {
			panic("device sent garbage")
		})
	exec.EXPECT().Run(gomock.Any(), good, []string{"ping 8.8.8.8"}).
		Return([]executor.Result{{Output: pingOK}})
	st.EXPECT().WriteResult(gomock.Any(), gomock.Any()).DoAndReturn(sink.write).Times(2)

	log := &eventLog{}
	msg := func(id, body string) jetstream.Msg {
		return &fakeMsg{id: id, data: []byte(body), log: log}
	}

	pc := &fakePullConsumer{
		steps: []fetchStep{
			{msgs: []jetstream.Msg{msg("panic", `{"job_type":"ping","ip":"10.0.0.1","target_ip":"8.8.8.8"}`)}},
			{msgs: []jetstream.Msg{msg("garbage", `{"job_type":`)}},
			{msgs: []jetstream.Msg{msg("lookup", `{"job_type":"ping","ip":"10.0.0.3","target_ip":"8.8.8.8"}`)}},
			{msgs: []jetstream.Msg{msg("ok", `{"job_type":"ping","ip":"10.0.0.2","target_ip":"8.8.8.8"}`)}},
		},
		err: nats.ErrConnectionClosed,
	}

	c := newTestConsumer(pc, p, AckImmediate)

	require.ErrorIs(t, c.ProcessMessages(context.Background()), nats.ErrConnectionClosed)
	assert.Equal(t, []string{"ack:panic", "ack:garbage", "ack:lookup", "ack:ok"}, log.all())

	results := sink.all()
	require.Len(t, results, 2)
	assert.Equal(t, "10.0.0.3", results[0].DeviceIP)
	assert.False(t, results[0].Success)
	assert.Equal(t, "10.0.0.2", results[1].DeviceIP)
	assert.True(t, results[1].Success)
}
