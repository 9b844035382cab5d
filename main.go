// ABOUTME: Entry point for the audiocore daemon
// ABOUTME: Registers audio environments, starts the manager and shows the dashboard
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/audiocore/internal/config"
	"github.com/Resonate-Protocol/audiocore/internal/recorder"
	"github.com/Resonate-Protocol/audiocore/internal/ui"
	"github.com/Resonate-Protocol/audiocore/internal/version"
	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/Resonate-Protocol/audiocore/pkg/audio/device"
	"github.com/Resonate-Protocol/audiocore/pkg/audio/tone"
	"github.com/Resonate-Protocol/audiocore/pkg/audiomanager"
	"github.com/Resonate-Protocol/audiocore/pkg/environment"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Identifiers of the environments the daemon registers itself
const (
	localEnvironmentID = "local"
	wavEnvironmentID   = "wav"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "audiocore: %v\n", err)
		os.Exit(2)
	}

	// Determine if we should use TUI or streaming logs
	useTUI := !cfg.NoTUI

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	logger := logrus.New()
	logger.SetLevel(cfg.Level())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if useTUI {
		// TUI mode: log only to file
		logger.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		logger.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	log := logger.WithField("component", "main")

	log.Infof("Starting %s", version.String())

	manager := audiomanager.New(audiomanager.Config{
		Logger:      logger.WithField("component", "audiomanager"),
		Environment: cfg.EnvironmentConfig(logger.WithField("component", "environment")),
	})

	defaultID := registerEnvironments(manager, cfg, logger)

	if err := manager.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start audio manager")
	}

	if cfg.Beep && defaultID != "" {
		playBeep(manager, defaultID, log)
	}

	var rec *recorder.Recorder
	if cfg.Record != "" && defaultID != "" {
		rec, err = startRecorder(manager, defaultID, cfg.Record, logger)
		if err != nil {
			log.WithError(err).Error("Failed to start recorder")
		}
	}

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls

	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.WithError(err).Fatal("Failed to start TUI")
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.WithError(err).Error("TUI exited")
			}
		}()
		go statusUpdateLoop(manager, tuiProg)
		go handleActions(manager, controls, log)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for quit signal from TUI or OS
	if controls != nil {
		select {
		case <-controls.Quit:
			log.Info("Received quit signal from TUI")
		case <-sigChan:
			log.Info("Shutdown signal received")
		}
	} else {
		<-sigChan
		log.Info("Shutdown signal received")
	}

	if rec != nil {
		if err := rec.Stop(); err != nil {
			log.WithError(err).Error("Error finalizing recording")
		}
	}

	manager.Stop()

	if tuiProg != nil {
		tuiProg.Quit()
	}

	log.Info("audiocore stopped")
}

// registerEnvironments registers the configured devices and returns the id
// of the default environment, or "" if there is none
func registerEnvironments(manager *audiomanager.Manager, cfg config.Config, logger *logrus.Logger) string {
	log := logger.WithField("component", "main")
	defaultID := ""

	// Read once at startup
	if cfg.AutoRegisterLocal {
		binding := newLocalBinding(cfg, logger)
		id, err := manager.RegisterEnvironment(binding, environment.WithID(localEnvironmentID))
		if err != nil {
			log.WithError(err).Error("Failed to register local device")
		} else {
			defaultID = id
		}
	}

	if cfg.WAVInput != "" || cfg.WAVOutput != "" {
		binding, err := device.NewWAV(device.WAVConfig{
			InputPath:    cfg.WAVInput,
			OutputPath:   cfg.WAVOutput,
			OutputFormat: cfg.Format(),
			Realtime:     true,
			Logger:       logger.WithField("component", "wav"),
		})
		if err != nil {
			log.WithError(err).Error("Failed to create WAV device")
			return defaultID
		}

		id, err := manager.RegisterEnvironment(binding, environment.WithID(wavEnvironmentID))
		if err != nil {
			log.WithError(err).Error("Failed to register WAV device")
		} else if defaultID == "" {
			defaultID = id
		}
	}

	if defaultID == "" {
		log.Warn("No default environment registered")
	}
	return defaultID
}

// newLocalBinding creates the sound card binding for the configured backend
func newLocalBinding(cfg config.Config, logger *logrus.Logger) device.Binding {
	switch cfg.Backend {
	case config.BackendOto:
		return device.NewOto(device.OtoConfig{
			Format: cfg.Format(),
			Logger: logger.WithField("component", "oto"),
		})
	default:
		return device.NewMalgo(device.MalgoConfig{
			Format: cfg.Format(),
			Logger: logger.WithField("component", "malgo"),
		})
	}
}

// playBeep queues a short beep ahead of anything else on an environment
func playBeep(manager *audiomanager.Manager, id string, log *logrus.Entry) {
	beep, err := tone.NewBeep(audio.DefaultFormat())
	if err != nil {
		log.WithError(err).Error("Failed to create beep")
		return
	}

	if _, err := manager.PlayAudio(id, beep, beep.Format(), environment.QueuePriority); err != nil {
		log.WithError(err).WithField("environment", id).Warn("Failed to play beep")
		_ = beep.Close()
	}
}

// startRecorder records an environment's input to a WAV file
func startRecorder(manager *audiomanager.Manager, id, path string, logger *logrus.Logger) (*recorder.Recorder, error) {
	stream, err := manager.GetInputStream(id)
	if err != nil {
		return nil, err
	}

	rec, err := recorder.New(stream, stream.Format(), path, logger.WithField("component", "recorder"))
	if err != nil {
		stream.Close()
		return nil, err
	}
	rec.Start()
	return rec, nil
}

// handleActions processes requests from the TUI
func handleActions(manager *audiomanager.Manager, controls *ui.Controls, log *logrus.Entry) {
	for action := range controls.Actions {
		switch action.Kind {
		case ui.ActionBeep:
			playBeep(manager, action.EnvironmentID, log)
		case ui.ActionStopOutput:
			if err := manager.StopAudioOutput(action.EnvironmentID); err != nil {
				log.WithError(err).Warn("Failed to stop output")
			}
		}
	}
}

// statusUpdateLoop periodically updates TUI with environment status
func statusUpdateLoop(manager *audiomanager.Manager, prog *tea.Program) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	// Use a slower ticker for expensive runtime stats to avoid GC pauses
	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	var lastGoroutines int
	var lastMemAlloc, lastMemSys uint64

	for {
		select {
		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			lastGoroutines = runtime.NumGoroutine()
			lastMemAlloc = m.Alloc
			lastMemSys = m.Sys

		case <-ticker.C:
			running := manager.IsRunning()
			prog.Send(ui.StatusMsg{
				Running:      &running,
				Environments: manager.Status(),
				Goroutines:   lastGoroutines,
				MemAlloc:     lastMemAlloc,
				MemSys:       lastMemSys,
			})
		}
	}
}
