package scheduler

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPrewarmer struct {
	calls int
}

func (p *countingPrewarmer) Prewarm(context.Context) (int, error) {
	p.calls++
	return 1, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestStartSkipsEmptySchedules(t *testing.T) {
	s := NewScheduler(Schedules{
		Sync:    "0 */6 * * *",
		Prewarm: "*/5 * * * *",
	}, nil, nil, nil, nil, &countingPrewarmer{}, testLogger())

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Equal(t, 2, s.Entries())
}

func TestStartWithoutPrewarmer(t *testing.T) {
	s := NewScheduler(Schedules{
		Prewarm: "*/5 * * * *",
		Purge:   "15 4 * * *",
	}, nil, nil, nil, nil, nil, testLogger())

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Equal(t, 1, s.Entries())
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler(Schedules{Sync: "every day"}, nil, nil, nil, nil, nil, testLogger())
	assert.Error(t, s.Start())
}

func TestRunPrewarm(t *testing.T) {
	p := &countingPrewarmer{}
	s := NewScheduler(Schedules{}, nil, nil, nil, nil, p, testLogger())

	s.runPrewarm()
	assert.Equal(t, 1, p.calls)
}
