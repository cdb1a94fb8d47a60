package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dixieflatline76/Framer/asset"
	"github.com/dixieflatline76/Framer/config"
	"github.com/dixieflatline76/Framer/pkg/api"
	"github.com/dixieflatline76/Framer/pkg/frame"
	"github.com/dixieflatline76/Framer/pkg/generation"
	"github.com/dixieflatline76/Framer/pkg/studio"
	"github.com/dixieflatline76/Framer/util/log"
)

func main() {
	configFile := flag.String("config", config.GetFilename(), "path to the JSON config file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(config.AppName, config.AppVersion)
		return
	}

	cfg, err := config.LoadFrom(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.SetDebug(cfg.Debug)
	if cfg.LogFile != "" {
		closer, err := log.ToFile(cfg.LogFile)
		if err != nil {
			log.Fatalf("Failed to open log file %s: %v", cfg.LogFile, err)
		}
		defer closer.Close()
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("%s %s starting", config.AppName, config.AppVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := generation.NewClient(ctx, generation.Options{
		APIKey:            cfg.APIKey,
		ImageModel:        cfg.ImageModel,
		EditModel:         cfg.EditModel,
		TextModel:         cfg.TextModel,
		RequestsPerMinute: cfg.RequestsPerMinute,
		HTTPClient:        generation.NewHTTPClient(cfg.GenerationTimeout + 30*time.Second),
	})
	if err != nil {
		log.Fatalf("Failed to create generation client: %v", err)
	}

	am := asset.NewManager()
	tuning := frame.DefaultTuning()
	faces, err := loadFaceDetector(am, cfg.FaceFinderPath, tuning)
	if err != nil {
		log.Printf("Warning: Failed to load face detection model: %v. Face-aware crop will be disabled.", err)
		faces = nil
	}
	compositor := frame.NewCompositor(tuning, faces)

	defaults, err := studioDefaults(cfg)
	if err != nil {
		log.Fatalf("Invalid defaults: %v", err)
	}

	st := studio.New(client, compositor, studio.Options{
		Defaults:          defaults,
		GenerationTimeout: cfg.GenerationTimeout,
		EnhanceTimeout:    cfg.EnhanceTimeout,
		LoadingInterval:   cfg.LoadingInterval,
		ResultTTL:         cfg.ResultTTL,
		LoadingMessages:   am.LoadingMessages(),
	})

	server := api.NewServer(st, api.Options{
		Addr:           cfg.ListenAddr,
		MaxUploadBytes: cfg.MaxUploadBytes,
		MaxConnections: cfg.MaxConnections,
		UpdateCheck:    cfg.UpdateCheck,
		FaceAware:      compositor.FaceAware(),
		Web:            am.WebFS(),
		HTTPClient:     generation.NewHTTPClient(10 * time.Second),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	log.Println("Stopped")
}

// loadFaceDetector uses the cascade at path, or the embedded facefinder when
// path is empty.
func loadFaceDetector(am *asset.Manager, path string, tuning frame.Tuning) (*frame.FaceDetector, error) {
	if path != "" {
		return frame.LoadFaceDetector(path, tuning)
	}
	cascade, err := am.GetModel("facefinder")
	if err != nil {
		return nil, err
	}
	return frame.NewFaceDetector(cascade, tuning)
}

func studioDefaults(cfg *config.Config) (studio.Defaults, error) {
	ratio, err := frame.ParseRatio(cfg.DefaultAspectRatio)
	if err != nil {
		return studio.Defaults{}, err
	}
	fit, err := frame.ParseFit(cfg.DefaultFit)
	if err != nil {
		return studio.Defaults{}, err
	}
	style, err := generation.ParseStyle(cfg.DefaultStyle)
	if err != nil {
		return studio.Defaults{}, err
	}
	return studio.Defaults{Style: style, Ratio: ratio, Fit: fit}, nil
}
