package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"cam-sequence/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// DeviceEvent is emitted when the output port appears or goes away
type DeviceEvent struct {
	Type DeviceEventType
	Sink *PortSink // set on connect
	ID   string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// portLister returns the current output ports. Swapped in tests.
type portLister func() []drivers.Out

// opener turns a port into a sink. Swapped in tests.
type opener func(out drivers.Out, channel, baseNote uint8) (*PortSink, error)

// DeviceManager handles hot-plug of the trigger output port: it polls the
// system ports, opens the first one whose name contains the wanted name and
// reports connects/disconnects.
type DeviceManager struct {
	want     string
	channel  uint8
	baseNote uint8

	mu      sync.RWMutex
	current *PortSink
	id      string

	events   chan DeviceEvent
	pollRate time.Duration
	timeout  time.Duration

	list portLister
	open opener
}

// NewDeviceManager creates a manager looking for an output port whose name
// contains portName (case-insensitive). An empty portName picks the first port.
func NewDeviceManager(portName string, channel, baseNote uint8) *DeviceManager {
	return &DeviceManager{
		want:     strings.ToLower(portName),
		channel:  channel,
		baseNote: baseNote,
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
		timeout:  3 * time.Second,
		list:     func() []drivers.Out { return gomidi.GetOutPorts() },
		open:     OpenPortSink,
	}
}

// Events returns a channel of connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Current returns the connected sink (or nil)
func (dm *DeviceManager) Current() *PortSink {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.current
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

// ListOutPorts returns output port names, giving up after timeout
// (CoreMIDI can hang).
func ListOutPorts(timeout time.Duration) ([]string, bool) {
	ch := make(chan []string, 1)
	go func() {
		var names []string
		for _, p := range gomidi.GetOutPorts() {
			names = append(names, p.String())
		}
		ch <- names
	}()

	select {
	case names := <-ch:
		return names, true
	case <-time.After(timeout):
		return nil, false
	}
}

func (dm *DeviceManager) matches(name string) bool {
	return dm.want == "" || strings.Contains(strings.ToLower(name), dm.want)
}

func (dm *DeviceManager) scan(ctx context.Context) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- dm.list()
	}()

	var outPorts []drivers.Out
	select {
	case outPorts = <-ch:
	case <-time.After(dm.timeout):
		// CoreMIDI is hung - skip this scan
		debug.Log("midi", "port scan timed out after %s", dm.timeout)
		return
	}

	dm.mu.RLock()
	currentID := dm.id
	dm.mu.RUnlock()

	if currentID != "" {
		for _, op := range outPorts {
			if op.String() == currentID {
				return // still there
			}
		}
		dm.disconnect(ctx)
	}

	for _, op := range outPorts {
		if !dm.matches(op.String()) {
			continue
		}
		sink, err := dm.open(op, dm.channel, dm.baseNote)
		if err != nil {
			debug.Log("midi", "open %s: %v", op.String(), err)
			continue
		}

		dm.mu.Lock()
		dm.current = sink
		dm.id = op.String()
		dm.mu.Unlock()

		debug.Log("midi", "connected output %s", op.String())
		dm.emit(ctx, DeviceEvent{Type: DeviceConnected, Sink: sink, ID: op.String()})
		return
	}
}

func (dm *DeviceManager) disconnect(ctx context.Context) {
	dm.mu.Lock()
	sink, id := dm.current, dm.id
	dm.current = nil
	dm.id = ""
	dm.mu.Unlock()

	if sink != nil {
		sink.Close()
	}
	debug.Log("midi", "disconnected output %s", id)
	dm.emit(ctx, DeviceEvent{Type: DeviceDisconnected, ID: id})
}

// emit delivers ev, or drops it once ctx is done
func (dm *DeviceManager) emit(ctx context.Context, ev DeviceEvent) {
	select {
	case dm.events <- ev:
	case <-ctx.Done():
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.current != nil {
		dm.current.Close()
	}
	dm.current = nil
	dm.id = ""
}
