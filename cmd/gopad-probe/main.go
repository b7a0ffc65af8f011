// Command gopad-probe is a standalone controller diagnostic tool. It drives
// the real profile registry and Adapter in internal/midi instead of
// hard-coding Launchpad SysEx bytes inline, so a probe result reflects
// exactly what the running application would do.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"gopad/internal/midi"
	"gopad/internal/model"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detectController()
	case "leds":
		testLEDs()
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("gopad-probe: controller diagnostics")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list    - list all MIDI ports")
	fmt.Println("  detect  - identify a connected grid controller by profile")
	fmt.Println("  leds    - light a diagonal and clear it on Enter")
	fmt.Println("  poll    - run the hot-plug monitor and print connect/disconnect events")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range gomidi.GetInPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range gomidi.GetOutPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func detectController() {
	inPorts := gomidi.GetInPorts()
	names := make([]string, len(inPorts))
	for i, p := range inPorts {
		names[i] = p.String()
	}

	profile, matchName, ok := midi.DetectProfile(names)
	if !ok {
		fmt.Println("no known controller profile matched an input port")
		return
	}
	fmt.Printf("matched %s on port %q\n", profile.Name, matchName)
}

func testLEDs() {
	adapter, portName, ok := connectFirstMatch()
	if !ok {
		fmt.Println("no known controller found")
		return
	}
	defer adapter.Disconnect()
	fmt.Printf("connected to %s\n", portName)

	fmt.Println("lighting diagonal (green)...")
	green := model.Color{R: 0, G: 127, B: 0}
	for i := 0; i < 8; i++ {
		idx := i*8 + i
		if err := adapter.SetPadColor(idx, green); err != nil {
			fmt.Printf("set pad %d: %v\n", idx, err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println("press Enter to clear...")
	fmt.Scanln()

	if err := adapter.ClearAll(); err != nil {
		fmt.Printf("clear all: %v\n", err)
	}
}

func connectFirstMatch() (*midi.Adapter, string, bool) {
	inPorts := gomidi.GetInPorts()
	outPorts := gomidi.GetOutPorts()
	inNames := make([]string, len(inPorts))
	for i, p := range inPorts {
		inNames[i] = p.String()
	}

	profile, matchName, ok := midi.DetectProfile(inNames)
	if !ok {
		return nil, "", false
	}

	var in drivers.In
	for _, p := range inPorts {
		if p.String() == matchName {
			in = p
		}
	}
	var out drivers.Out
	outNames := make([]string, len(outPorts))
	for i, p := range outPorts {
		outNames[i] = p.String()
	}
	if outName, hasOut := profile.MatchPort(outNames); hasOut {
		for _, p := range outPorts {
			if p.String() == outName {
				out = p
			}
		}
	}

	adapter := midi.NewAdapter(profile)
	if err := adapter.Connect(matchName, in, out); err != nil {
		fmt.Printf("connect: %v\n", err)
		return nil, "", false
	}
	return adapter, matchName, true
}

type printObserver struct{}

func (printObserver) OnMIDIEvent(ev midi.Event) {
	switch ev.Kind {
	case midi.EventConnected:
		fmt.Printf("[%s] connected: %s\n", time.Now().Format("15:04:05"), ev.Port)
	case midi.EventDisconnected:
		fmt.Printf("[%s] disconnected: %s\n", time.Now().Format("15:04:05"), ev.Port)
	case midi.EventPress:
		fmt.Printf("[%s] press pad=%d\n", time.Now().Format("15:04:05"), ev.PadIndex)
	case midi.EventRelease:
		fmt.Printf("[%s] release pad=%d\n", time.Now().Format("15:04:05"), ev.PadIndex)
	case midi.EventControlChange:
		fmt.Printf("[%s] cc=%d value=%d\n", time.Now().Format("15:04:05"), ev.CC, ev.Value)
	}
}

func pollDevices() {
	fmt.Println("polling for controller connect/disconnect, ctrl+c to exit")

	adapter := midi.NewAdapter(midi.LaunchpadX)
	adapter.RegisterObserver(printObserver{})
	monitor := midi.NewMonitor(adapter, 2*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor.Run(ctx)
}
