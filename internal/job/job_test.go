package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err   error
	calls atomic.Int32
}

func (f *fakePinger) Ping(context.Context) error {
	f.calls.Add(1)
	return f.err
}

func TestDatabaseHeartbeatStatus(t *testing.T) {
	hb := NewDatabaseHeartbeat(&fakePinger{})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(25 * time.Millisecond)}
	hb.now = func() time.Time {
		next := ticks[0]
		ticks = ticks[1:]
		return next
	}

	assert.Equal(t, map[string]any{"status": "unknown"}, hb.HealthStatus())

	require.NoError(t, hb.Run(context.Background()))
	status := hb.HealthStatus()
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, int64(25), status["latency_ms"])
	assert.Equal(t, "2024-01-01T00:00:00.025Z", status["checked_at"])
}

func TestDatabaseHeartbeatRecordsFailure(t *testing.T) {
	hb := NewDatabaseHeartbeat(&fakePinger{err: errors.New("connection refused")})

	require.Error(t, hb.Run(context.Background()))

	status := hb.HealthStatus()
	assert.Equal(t, "error", status["status"])
	assert.Equal(t, "connection refused", status["error"])
}

func TestSchedulerRunsRegisteredJob(t *testing.T) {
	pinger := &fakePinger{}
	s := NewScheduler(nil)

	_, err := s.Register("@every 1s", NewDatabaseHeartbeat(pinger))
	require.NoError(t, err)

	s.Start()
	s.Start()
	assert.Eventually(t, func() bool { return pinger.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}

func TestSchedulerRegisterValidation(t *testing.T) {
	s := NewScheduler(nil)

	_, err := s.Register("", NewDatabaseHeartbeat(&fakePinger{}))
	assert.Error(t, err)

	_, err = s.Register("@every 1s", nil)
	assert.Error(t, err)

	_, err = s.Register("not a spec", NewDatabaseHeartbeat(&fakePinger{}))
	assert.Error(t, err)

	assert.Equal(t, context.Background(), s.Stop())
}
