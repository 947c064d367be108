// facecount: real-time blink, brow and mouth counter
// Browsers stream face-mesh landmarks over a WebSocket; the service counts
// gestures and streams status and overlays back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-facecount/internal/config"
	"github.com/teslashibe/go-facecount/internal/log"
	"github.com/teslashibe/go-facecount/pkg/web"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	log.Init(cfg.LogLevel)

	gestureCfg, err := config.LoadGestureConfig(cfg.TuningPath)
	if err != nil {
		log.Error("tuning config", "path", cfg.TuningPath, "error", err)
		os.Exit(2)
	}

	webCfg := web.DefaultConfig()
	webCfg.StaticDir = cfg.StaticDir
	webCfg.Gesture = gestureCfg
	webCfg.Sensitivity = cfg.Sensitivity
	webCfg.Debug = cfg.Debug

	srv := web.NewServer(webCfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("facecount starting",
		"version", web.Version,
		"addr", cfg.Addr(),
		"static", cfg.StaticDir,
		"tuning", cfg.TuningPath,
		"sensitivity", cfg.Sensitivity)

	if err := srv.ListenAndServe(ctx, cfg.Addr()); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// parseFlags resolves the environment and lets flags override it
func parseFlags() (config.Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	port := flag.String("port", cfg.Port, "HTTP port (FACECOUNT_PORT, PORT)")
	static := flag.String("static", cfg.StaticDir, "Browser client directory, empty to disable (FACECOUNT_STATIC_DIR)")
	tuning := flag.String("tuning", cfg.TuningPath, "JSON tuning overrides (FACECOUNT_TUNING)")
	sensitivity := flag.Float64("sensitivity", cfg.Sensitivity, "Initial sensitivity 0-100 (FACECOUNT_SENSITIVITY)")
	level := flag.String("log-level", cfg.LogLevel, "debug, info, warn or error (FACECOUNT_LOG_LEVEL)")
	debug := flag.Bool("debug", cfg.Debug, "Enable debug logging and request logs (FACECOUNT_DEBUG)")
	flag.Parse()

	cfg.Port, cfg.StaticDir, cfg.TuningPath = *port, *static, *tuning
	cfg.Sensitivity, cfg.LogLevel, cfg.Debug = *sensitivity, *level, *debug
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg, cfg.Validate()
}
