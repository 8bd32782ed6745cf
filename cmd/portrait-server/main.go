package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stashapp/stash/pkg/plugin/common/log"

	"github.com/smegmarip/stash-portrait-plugin/internal/config"
	"github.com/smegmarip/stash-portrait-plugin/internal/engine"
	"github.com/smegmarip/stash-portrait-plugin/internal/httpapi"
	"github.com/smegmarip/stash-portrait-plugin/internal/media"
)

const (
	readHeaderTimeout    = 5 * time.Second
	readTimeout          = 5 * time.Minute
	idleTimeout          = 60 * time.Second
	shutdownGraceTimeout = 30 * time.Second
	startupTimeout       = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Errorf("portrait-server: %v", err)
		os.Exit(1)
	}
}

func run() error {
	var optionsFile, host, tempDir, engineURL, ffmpegDir string
	var port int

	flag.StringVar(&optionsFile, "config", "", "YAML options file")
	flag.IntVar(&port, "port", 0, "listen port (server_port)")
	flag.StringVar(&host, "host", "", "bind host (server_name)")
	flag.StringVar(&tempDir, "temp-dir", "", "directory for uploads and results (gradio_temp_dir)")
	flag.StringVar(&engineURL, "engine-url", "", "inference engine base URL")
	flag.StringVar(&ffmpegDir, "ffmpeg-dir", "", "directory holding ffmpeg and ffprobe")
	flag.Parse()

	fileLayer, err := config.LoadOptionsFile(optionsFile)
	if err != nil {
		return err
	}

	// Only flags given on the command line override the file
	flagLayer := make(map[string]interface{})
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			flagLayer["server_port"] = port
		case "host":
			flagLayer["server_name"] = host
		case "temp-dir":
			flagLayer["gradio_temp_dir"] = tempDir
		case "engine-url":
			flagLayer["engine_url"] = engineURL
		case "ffmpeg-dir":
			flagLayer["ffmpeg_dir"] = ffmpegDir
		}
	})

	cfg, err := config.Load(fileLayer, flagLayer)
	if err != nil {
		return err
	}

	if err := media.CheckFFmpeg(cfg.Server.FFmpegDir); err != nil {
		return err
	}

	store, err := media.NewStore(cfg.Server.TempDir)
	if err != nil {
		return err
	}

	client := engine.NewClient(cfg.Server.EngineURL, cfg.EngineTimeout())
	client.OnProgress = func(p float64) {
		log.Debugf("engine job progress %.0f%%", p*100)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		return err
	}
	if err := client.Configure(ctx, cfg.Inference, cfg.Crop); err != nil {
		return err
	}

	api, err := httpapi.NewServer(cfg, client, store)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		// animation jobs hold the response open for the whole engine run
		WriteTimeout: cfg.EngineTimeout() + time.Minute,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("portrait-server listening on %s (media in %s)", srv.Addr, store.Dir())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("shutdown signal received: %s", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGraceTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info("server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}
