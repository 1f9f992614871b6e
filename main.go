package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"cam-sequence/capture"
	"cam-sequence/config"
	"cam-sequence/debug"
	"cam-sequence/midi"
	"cam-sequence/sequencer"
	"cam-sequence/theme"
	"cam-sequence/tui"
	"cam-sequence/vision"
)

func main() {
	configPath := flag.String("config", "", "config file (.json, .yaml); default ~/.config/cam-sequence/config.json")
	envFile := flag.String("env", ".env", "environment file with CAMSEQ_* overrides")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path, envFile string) (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, fmt.Errorf("env file: %w", err)
	}

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// registryOptions turns the sequencer config into zone defaults. A tempo
// wins over an explicit step length.
func registryOptions(cfg *config.Config) sequencer.Options {
	opts := sequencer.DefaultOptions()
	opts.Steps = cfg.Sequencer.Steps
	opts.MsPerStep = cfg.Sequencer.MsPerStep
	if cfg.Sequencer.Tempo > 0 {
		opts.MsPerStep = sequencer.MsPerStepForTempo(cfg.Sequencer.Tempo)
	}
	opts.Scale = cfg.Display.Scale
	opts.ClearEdgeOnReset = cfg.Sequencer.ClearEdgeOnReset
	return opts
}

func run(configPath, envFile string) error {
	cfg, err := loadConfig(configPath, envFile)
	if err != nil {
		return err
	}

	if cfg.Debug {
		if err := debug.Enable(debug.DefaultPath()); err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		defer debug.Disable()
	}

	// Load theme
	palette := theme.DefaultPalette()
	if cfg.Display.Palette != "" {
		if palette, err = theme.LoadGPL(cfg.Display.Palette); err != nil {
			return err
		}
	}
	th := theme.New(palette)

	src, err := capture.Open(cfg.Source.Kind, cfg.Source.Path, cfg.Source.Width, cfg.Source.Height)
	if err != nil {
		return err
	}
	defer src.Close()

	d := cfg.Detector
	detector, err := vision.NewDetector(d.Variant, vision.HSVRange{
		HueMin: d.HueMin, HueMax: d.HueMax,
		SatMin: d.SatMin, SatMax: d.SatMax,
		ValMin: d.ValMin, ValMax: d.ValMax,
	})
	if err != nil {
		return err
	}

	// Outputs: the hot-plugged port plus an optional text line stream
	port := &midi.SwitchSink{}
	sinks := midi.MultiSink{port}
	if cfg.Output.LinesPath != "" {
		f, err := os.OpenFile(cfg.Output.LinesPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("lines output: %w", err)
		}
		sinks = append(sinks, midi.NewLineSink(f, uint8(cfg.Output.Channel)))
	}
	defer sinks.Close()

	registry := sequencer.NewRegistry(registryOptions(cfg), detector)
	manager := sequencer.NewManager(registry, src, sinks, cfg.Display.FPS)
	deviceMgr := midi.NewDeviceManager(cfg.Output.PortName, uint8(cfg.Output.Channel), cfg.Output.BaseNote)

	// Preview covers the frame at one cell per Scale logical pixels
	cols := (cfg.Source.Width + cfg.Display.Scale - 1) / cfg.Display.Scale
	rows := (cfg.Source.Height + cfg.Display.Scale - 1) / cfg.Display.Scale
	if f, err := src.Frame(); err == nil && f.Available() {
		cols = (f.Width + cfg.Display.Scale - 1) / cfg.Display.Scale
		rows = (f.Height + cfg.Display.Scale - 1) / cfg.Display.Scale
	}

	m := tui.NewModel(manager, deviceMgr, port, th, cols, rows)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return manager.Run(ctx)
	})
	g.Go(func() error {
		deviceMgr.Run(ctx)
		return nil
	})
	g.Go(func() error {
		// the program runs until quit or until another member fails
		go func() {
			<-ctx.Done()
			p.Quit()
		}()
		if _, err := p.Run(); err != nil {
			return err
		}
		return errQuit
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

// errQuit cancels the group when the user leaves the TUI
var errQuit = errors.New("quit")
