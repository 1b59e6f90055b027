package callbacks

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/favbox/flow/callbacks"
)

func TestLogCollector(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	c := NewLogCollector(logger)

	boom := errors.New("boom")
	events := []*callbacks.Event{
		{Kind: callbacks.EventKindStart, RunID: "r1", Name: "unit", Component: "Lambda",
			Tags: []string{"smoke"}, Metadata: map[string]any{"tenant": "acme"}, Time: time.Now()},
		{Kind: callbacks.EventKindChunk, RunID: "r1", Name: "unit", Component: "Lambda",
			Chunk: "a", Time: time.Now()},
		{Kind: callbacks.EventKindEnd, RunID: "r1", Name: "unit", Component: "Lambda",
			Time: time.Now()},
		{Kind: callbacks.EventKindError, RunID: "r2", Name: "unit", Component: "Lambda",
			Err: boom, Time: time.Now()},
	}
	for _, ev := range events {
		c.Collect(ev)
	}

	entries := hook.AllEntries()
	assert.Len(t, entries, 4)

	assert.Equal(t, logrus.DebugLevel, entries[0].Level)
	assert.Equal(t, "unit started", entries[0].Message)
	assert.Equal(t, "r1", entries[0].Data["run_id"])
	assert.Equal(t, []string{"smoke"}, entries[0].Data["tags"])
	assert.Equal(t, map[string]any{"tenant": "acme"}, entries[0].Data["metadata"])

	assert.Equal(t, logrus.TraceLevel, entries[1].Level)
	assert.Equal(t, "unit emitted chunk", entries[1].Message)

	assert.Equal(t, logrus.DebugLevel, entries[2].Level)
	assert.Equal(t, "unit finished", entries[2].Message)

	assert.Equal(t, logrus.ErrorLevel, entries[3].Level)
	assert.Equal(t, "unit failed", entries[3].Message)
	assert.Equal(t, boom, entries[3].Data[logrus.ErrorKey])
}

func TestLogCollectorOnBus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	bus := callbacks.NewBus(nil)
	unregister := bus.Register(NewLogCollector(logger))
	defer unregister()

	bus.Publish(&callbacks.Event{Kind: callbacks.EventKindStart, RunID: "r1", Name: "unit", Component: "Lambda"})
	bus.Publish(&callbacks.Event{Kind: callbacks.EventKindEnd, RunID: "r1", Name: "unit", Component: "Lambda"})
	bus.Close()

	entries := hook.AllEntries()
	assert.Len(t, entries, 2)
	assert.Equal(t, "unit started", entries[0].Message)
	assert.Equal(t, "unit finished", entries[1].Message)
}
