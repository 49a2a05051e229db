// Command axis-probe dumps live axis values from an SBUS receiver, for
// working out the index/inversion mapping of a new controller before
// writing a gamepad shaping file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gait-works/gaitctl/internal/gamepad"
)

var (
	port = flag.String("sbus-port", "", "Serial port of the SBUS RC receiver")
	axes = flag.Int("axes", 8, "Number of axes to display")
)

func main() {
	flag.Parse()
	if *port == "" {
		log.Fatal("-sbus-port is required")
	}

	src, err := gamepad.OpenSBus(*port)
	if err != nil {
		log.Fatalf("failed to open receiver: %v", err)
	}
	defer src.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-stop:
			fmt.Println()
			return
		case <-tick.C:
		}

		var line strings.Builder
		if !src.Connected() {
			line.WriteString("[no link] ")
		}
		for i := 0; i < *axes; i++ {
			fmt.Fprintf(&line, "a%d:%+.2f  ", i, src.Axis(i))
		}
		fmt.Printf("\r%s", line.String())
	}
}
