package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/teslashibe/go-facecount/pkg/facemesh"
	"github.com/teslashibe/go-facecount/pkg/gesture"
	"github.com/teslashibe/go-facecount/pkg/protocol"
	"github.com/teslashibe/go-facecount/pkg/session"
)

// maxLineSize fits one 478-point landmark frame with room to spare
const maxLineSize = 1 << 20

// Options configures a replay
type Options struct {
	Gesture       gesture.Config
	Sensitivity   float64
	FrameInterval time.Duration // Clock step for messages without a timestamp
}

// Summary is the outcome of a replay
type Summary struct {
	Lines  int            `json:"lines"`
	Counts gesture.Counts `json:"counts"`
	Stats  session.Stats  `json:"stats"`
}

// FrameEvent is a gesture confirmed at a given results frame (1-based)
type FrameEvent struct {
	Frame int `json:"frame"`
	gesture.Event
}

// replayCamera always succeeds; the recording is the stream
type replayCamera struct{}

func (replayCamera) Acquire(context.Context, string) (session.Stream, error) {
	return replayStream{}, nil
}

type replayStream struct{}

func (replayStream) Close() {}

// eventSink forwards events with the current frame number
type eventSink struct {
	frame   *int
	onEvent func(FrameEvent)
}

func (s eventSink) Status(session.Status) {}

func (s eventSink) Count(ev gesture.Event) {
	if s.onEvent != nil {
		s.onEvent(FrameEvent{Frame: *s.frame, Event: ev})
	}
}

// Replay runs a JSON-lines recording of protocol messages through a session.
// results, start, stop and config messages are honored; others are ignored.
// The session starts running so bare results recordings work.
func Replay(ctx context.Context, r io.Reader, opts Options, onEvent func(FrameEvent)) (Summary, error) {
	var sum Summary

	interval := opts.FrameInterval
	if interval <= 0 {
		interval = time.Second / 30
	}
	var now time.Time
	clock := func() time.Time { return now }

	frame := 0
	orch, err := session.New(session.Config{
		Gesture:     opts.Gesture,
		Sensitivity: opts.Sensitivity,
		Clock:       clock,
	}, replayCamera{}, eventSink{frame: &frame, onEvent: onEvent}, nil)
	if err != nil {
		return sum, err
	}
	if err := orch.Start(ctx, ""); err != nil {
		return sum, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Lines++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		msg, err := protocol.ParseMessage(line)
		if err != nil {
			return sum, fmt.Errorf("line %d: %w", sum.Lines, err)
		}
		if msg.Timestamp > 0 {
			now = time.UnixMilli(msg.Timestamp)
		} else {
			now = now.Add(interval)
		}

		switch msg.Type {
		case protocol.TypeResults:
			res, err := msg.GetResultsData()
			if err != nil {
				return sum, fmt.Errorf("line %d: %w", sum.Lines, err)
			}
			frame++
			r := session.Results{Faces: res.Faces}
			if res.Error != "" {
				r.Err = errors.New(res.Error)
			}
			orch.HandleResults(r)

		case protocol.TypeStart:
			if err := orch.Start(ctx, ""); err != nil {
				return sum, err
			}

		case protocol.TypeStop:
			orch.Stop()

		case protocol.TypeConfig:
			cfg, err := msg.GetConfigData()
			if err != nil {
				return sum, fmt.Errorf("line %d: %w", sum.Lines, err)
			}
			if cfg.Sensitivity != nil {
				orch.SetSensitivity(*cfg.Sensitivity)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return sum, err
	}

	info := orch.Info()
	sum.Counts = info.Counts
	sum.Stats = info.Stats
	return sum, nil
}

// demoStep is a run of identical synthetic frames
type demoStep struct {
	ear, mar, gap float64
	frames        int
}

// demoScript warms up on a neutral face, then blinks, opens the mouth,
// raises the brows and blinks again
var demoScript = []demoStep{
	{0.30, 0.25, 0.55, 60},
	{0.05, 0.25, 0.55, 3},
	{0.30, 0.25, 0.55, 5},
	{0.30, 0.60, 0.55, 6},
	{0.30, 0.25, 0.55, 5},
	{0.30, 0.25, 0.80, 6},
	{0.30, 0.25, 0.55, 5},
	{0.05, 0.25, 0.55, 3},
	{0.30, 0.25, 0.55, 5},
}

// WriteDemo writes the demo recording as JSON lines, one results message per
// frame, timestamped interval apart
func WriteDemo(w io.Writer, start time.Time, interval time.Duration) error {
	bw := bufio.NewWriter(w)
	ts := start
	for _, step := range demoScript {
		lm := facemesh.Synthetic(step.ear, step.mar, step.gap)
		for i := 0; i < step.frames; i++ {
			msg, err := protocol.NewResultsMessage(lm)
			if err != nil {
				return err
			}
			msg.Timestamp = ts.UnixMilli()
			ts = ts.Add(interval)

			data, err := msg.Bytes()
			if err != nil {
				return err
			}
			bw.Write(data)
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}
