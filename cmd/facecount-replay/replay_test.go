package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-facecount/pkg/gesture"
)

func demoRecording(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteDemo(&buf, time.Unix(1700000000, 0), time.Second/30))
	return &buf
}

func TestReplay_Demo(t *testing.T) {
	var events []FrameEvent
	sum, err := Replay(context.Background(), demoRecording(t), Options{
		Gesture:     gesture.DefaultConfig(),
		Sensitivity: 50,
	}, func(ev FrameEvent) { events = append(events, ev) })
	require.NoError(t, err)

	assert.Equal(t, gesture.Counts{Blink: 2, Brow: 1, Mouth: 1}, sum.Counts)
	assert.Equal(t, uint64(98), sum.Stats.Faces)
	require.Len(t, events, 4)

	kinds := make([]gesture.Kind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []gesture.Kind{gesture.KindBlink, gesture.KindMouth, gesture.KindBrow, gesture.KindBlink}, kinds)

	// Events carry increasing frame numbers
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Frame, events[i-1].Frame)
	}
}

func TestReplay_StopDiscardsFrames(t *testing.T) {
	rec := demoRecording(t).String()
	input := `{"type":"stop"}` + "\n" + rec

	sum, err := Replay(context.Background(), strings.NewReader(input), Options{
		Gesture:     gesture.DefaultConfig(),
		Sensitivity: 50,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, gesture.Counts{}, sum.Counts)
	assert.Equal(t, uint64(98), sum.Stats.Discarded)
}

func TestReplay_NoFaceAndErrors(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"results","data":{}}`,
		"",
		`{"type":"results","data":{"error":"model not loaded"}}`,
		`{"type":"ping","data":{"id":"x"}}`,
	}, "\n")

	sum, err := Replay(context.Background(), strings.NewReader(input), Options{
		Gesture:     gesture.DefaultConfig(),
		Sensitivity: 50,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Lines)
	assert.Equal(t, uint64(2), sum.Stats.NoFace)
	assert.Zero(t, sum.Stats.Faces)
}

func TestReplay_BadLine(t *testing.T) {
	_, err := Replay(context.Background(), strings.NewReader("{\"type\":\"results\"}\nnot json\n"), Options{
		Gesture:     gesture.DefaultConfig(),
		Sensitivity: 50,
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReplay_InvalidConfig(t *testing.T) {
	cfg := gesture.DefaultConfig()
	cfg.FrameThreshold = 0
	_, err := Replay(context.Background(), strings.NewReader(""), Options{Gesture: cfg}, nil)
	assert.Error(t, err)
}
