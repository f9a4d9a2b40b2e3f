package vm

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	config ObserverConfig
	events []StepEvent
	limit  int
}

func (o *recordingObserver) Config() ObserverConfig {
	return o.config
}

func (o *recordingObserver) OnStep(event StepEvent) bool {
	o.events = append(o.events, event)
	return o.limit == 0 || len(o.events) < o.limit
}

func TestObserverStepAll(t *testing.T) {
	obs := &recordingObserver{config: NewObserverConfig(StepAll)}
	_, err := run(t, "incr tape[idx]\nputch", "", WithObserver(obs))
	require.Nil(t, err)
	require.Len(t, obs.events, 3)
	require.Equal(t, "ALLOCATE_TAPE", obs.events[0].OpcodeName)
	require.Equal(t, 30000, obs.events[0].Operand)
	require.Equal(t, "INCREMENT_CELL", obs.events[1].OpcodeName)
	require.Equal(t, byte(0), obs.events[1].Cell)
	require.Equal(t, "WRITE_CHAR", obs.events[2].OpcodeName)
	require.Equal(t, byte(1), obs.events[2].Cell)
	require.Equal(t, 2, obs.events[2].Line)
}

func TestObserverHalts(t *testing.T) {
	obs := &recordingObserver{config: NewObserverConfig(StepAll), limit: 2}
	out, err := run(t, "incr tape[idx] +64 putch", "", WithObserver(obs))
	require.ErrorIs(t, err, ErrHalted)
	require.Equal(t, "", out)
	require.Len(t, obs.events, 2)
}

func TestObserverSampled(t *testing.T) {
	cfg := NewObserverConfig(StepSampled)
	cfg.SampleInterval = 10
	obs := &recordingObserver{config: cfg}
	_, err := run(t, "incr tape[idx] +28", "", WithObserver(obs))
	require.Nil(t, err)
	require.Len(t, obs.events, 3)
	require.Equal(t, 0, obs.events[0].IP)
	require.Equal(t, 10, obs.events[1].IP)
	require.Equal(t, 20, obs.events[2].IP)
}

func TestObserverOnLine(t *testing.T) {
	obs := &recordingObserver{config: NewObserverConfig(StepOnLine)}
	_, err := run(t, "incr tape[idx] +3\nincr idx +1\nputch", "", WithObserver(obs))
	require.Nil(t, err)
	require.Len(t, obs.events, 3)
	require.Equal(t, []int{1, 2, 3}, []int{obs.events[0].Line, obs.events[1].Line, obs.events[2].Line})
}

func TestObserverNone(t *testing.T) {
	obs := &recordingObserver{config: NewObserverConfig(StepNone)}
	_, err := run(t, "putch", "", WithObserver(obs))
	require.Nil(t, err)
	require.Empty(t, obs.events)
}

func TestNormalizeConfig(t *testing.T) {
	cfg := NormalizeConfig(ObserverConfig{StepMode: StepSampled})
	require.Equal(t, 1, cfg.SampleInterval)
}

func TestLogObserver(t *testing.T) {
	level := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer zerolog.SetGlobalLevel(level)

	var logs bytes.Buffer
	obs := LogObserver{Logger: zerolog.New(&logs).Level(zerolog.TraceLevel)}
	err := Run(context.Background(), compile(t, "incr tape[idx]"), WithObserver(obs), WithOutput(&bytes.Buffer{}))
	require.Nil(t, err)
	require.Contains(t, logs.String(), `"op":"INCREMENT_CELL"`)
	require.Equal(t, 2, bytes.Count(logs.Bytes(), []byte(`"message":"step"`)))
	_ = NoOpObserver{}.OnStep(StepEvent{})
}
