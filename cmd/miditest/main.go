package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"cam-sequence/capture"
	"cam-sequence/midi"
	"cam-sequence/sequencer"
	"cam-sequence/vision"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		listPorts()
	case "trigger":
		err = sendTrigger(os.Args[2:])
	case "poll":
		pollDevices(os.Args[2:])
	case "scenario":
		err = runScenario(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                        - List MIDI output ports")
	fmt.Println("  trigger <port> <id> <vel>   - Send one trigger to a port (substring match)")
	fmt.Println("  poll [port]                 - Watch a port come and go")
	fmt.Println("  scenario [ticks]            - Dry run one zone over the test pattern, printing note lines")
}

func listPorts() {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	names, ok := midi.ListOutPorts(3 * time.Second)
	if !ok {
		fmt.Println("\nTIMEOUT! The MIDI service is hung.")
		return
	}
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func findOut(name string) (drivers.Out, error) {
	for _, out := range gomidi.GetOutPorts() {
		if strings.Contains(out.String(), name) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("no output port matching %q", name)
}

func sendTrigger(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: trigger <port> <id> <vel>")
	}
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad id: %w", err)
	}
	vel, err := strconv.ParseUint(args[2], 10, 8)
	if err != nil || vel > midi.MaxVelocity {
		return fmt.Errorf("velocity must be 0-127, got %q", args[2])
	}

	out, err := findOut(args[0])
	if err != nil {
		return err
	}
	sink, err := midi.OpenPortSink(out, 1, 36)
	if err != nil {
		return err
	}
	defer sink.Close()

	t := midi.Trigger{ID: id, Velocity: uint8(vel)}
	fmt.Printf("Sending %+v to %s\n", t, sink.Name())
	return sink.Send(t)
}

func pollDevices(args []string) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	fmt.Printf("Watching for output port %q (ctrl+c to stop)\n", name)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	dm := midi.NewDeviceManager(name, 1, 36)
	go dm.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-dm.Events():
			if !ok {
				return
			}
			switch ev.Type {
			case midi.DeviceConnected:
				fmt.Printf("[%s] connected: %s\n", time.Now().Format("15:04:05"), ev.ID)
			case midi.DeviceDisconnected:
				fmt.Printf("[%s] disconnected: %s\n", time.Now().Format("15:04:05"), ev.ID)
			}
		}
	}
}

// runScenario drives a registry by hand: one zone spanning the test card,
// 50 ms per tick, triggers printed as note lines.
func runScenario(args []string) error {
	ticks := 64
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("ticks must be a positive number, got %q", args[0])
		}
		ticks = n
	}

	src := capture.NewPatternSource(160, 40)
	src.Period = time.Duration(ticks) * 50 * time.Millisecond

	opts := sequencer.DefaultOptions()
	opts.Scale = 1
	reg := sequencer.NewRegistry(opts, nil)
	reg.Apply(sequencer.StartGesture{Point: image.Pt(0, 0)})
	reg.Apply(sequencer.CommitGesture{Point: image.Pt(160, 40)})

	rec := &midi.RecordSink{}
	sink := midi.MultiSink{midi.NewLineSink(os.Stdout, 1), rec}
	for i := 0; i < ticks; i++ {
		frame, err := src.Frame()
		if err != nil && !errors.Is(err, vision.ErrNoFrame) {
			return err
		}
		stats := reg.Tick(50, frame, func(t midi.Trigger) {
			if err := sink.Send(t); err != nil {
				fmt.Fprintf(os.Stderr, "send: %v\n", err)
			}
		})
		if stats.OutOfBounds > 0 {
			fmt.Fprintf(os.Stderr, "tick %d: %d zones out of bounds\n", i, stats.OutOfBounds)
		}
		time.Sleep(50 * time.Millisecond)
	}

	loud := 0
	sent := rec.Snapshot()
	for _, t := range sent {
		if t.Velocity > 0 {
			loud++
		}
	}
	fmt.Fprintf(os.Stderr, "%d triggers, %d with velocity > 0\n", len(sent), loud)
	return nil
}
