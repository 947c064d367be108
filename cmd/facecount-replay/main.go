// facecount-replay: runs the gesture pipeline over a recorded session
// Input is JSON lines of protocol messages, as sent by the browser client.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-facecount/internal/config"
	"github.com/teslashibe/go-facecount/internal/log"
)

func main() {
	in := flag.String("in", "-", "Recording to replay, - for stdin")
	tuning := flag.String("tuning", os.Getenv("FACECOUNT_TUNING"), "JSON tuning overrides")
	sensitivity := flag.Float64("sensitivity", config.DefaultSensitivity, "Sensitivity 0-100")
	fps := flag.Float64("fps", 30, "Frame rate assumed for messages without timestamps")
	demo := flag.Bool("demo", false, "Replay a built-in synthetic recording")
	emit := flag.Bool("emit-demo", false, "Write the demo recording to stdout and exit")
	asJSON := flag.Bool("json", false, "Print events and summary as JSON")
	level := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	log.Init(*level)

	if *fps <= 0 {
		fmt.Fprintln(os.Stderr, "fps must be positive")
		os.Exit(2)
	}
	interval := time.Duration(float64(time.Second) / *fps)

	if *emit {
		if err := WriteDemo(os.Stdout, time.Now(), interval); err != nil {
			log.Error("emit demo", "error", err)
			os.Exit(1)
		}
		return
	}

	gestureCfg, err := config.LoadGestureConfig(*tuning)
	if err != nil {
		log.Error("tuning config", "path", *tuning, "error", err)
		os.Exit(2)
	}

	r, closeFn, err := openInput(*in, *demo, interval)
	if err != nil {
		log.Error("open input", "error", err)
		os.Exit(1)
	}
	defer closeFn()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	onEvent := func(ev FrameEvent) {
		if *asJSON {
			enc.Encode(ev)
			return
		}
		fmt.Printf("frame %5d  %-5s %d\n", ev.Frame, ev.Kind, ev.Count)
	}

	sum, err := Replay(ctx, r, Options{
		Gesture:       gestureCfg,
		Sensitivity:   *sensitivity,
		FrameInterval: interval,
	}, onEvent)
	if err != nil {
		log.Error("replay failed", "error", err)
		os.Exit(1)
	}

	if *asJSON {
		enc.Encode(sum)
		return
	}
	fmt.Printf("\nframes %d (faces %d, no face %d, degenerate %d)\n",
		sum.Stats.Callbacks, sum.Stats.Faces, sum.Stats.NoFace, sum.Stats.Degenerate)
	fmt.Printf("blinks %d  brows %d  mouths %d\n", sum.Counts.Blink, sum.Counts.Brow, sum.Counts.Mouth)
}

// demoEpoch timestamps the built-in recording
var demoEpoch = time.Unix(1700000000, 0)

// openInput returns the recording to replay
func openInput(path string, demo bool, interval time.Duration) (io.Reader, func(), error) {
	if demo {
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(WriteDemo(pw, demoEpoch, interval))
		}()
		return pr, func() { pr.Close() }, nil
	}
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
