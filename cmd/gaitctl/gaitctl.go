// Command gaitctl drives a quadruped with a learned joint-position policy:
// it streams robot state, runs the policy at a divided rate, and streams
// joint commands back, with an operator velocity reference from an RC
// receiver.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gait-works/gaitctl/internal/drive"
	"github.com/gait-works/gaitctl/internal/gamepad"
	"github.com/gait-works/gaitctl/internal/monitoring"
	"github.com/gait-works/gaitctl/internal/policy"
	"github.com/gait-works/gaitctl/internal/robot"
	"github.com/gait-works/gaitctl/internal/telemetry"
	"github.com/gait-works/gaitctl/internal/timeutil"
	"github.com/gait-works/gaitctl/internal/version"
)

var (
	showVersion   = flag.Bool("version", false, "Print build identification and exit")
	mock          = flag.Bool("mock", false, "Drive the built-in simulated robot instead of hardware")
	hold          = flag.Bool("hold", false, "Stream zero-motion hold commands instead of policy output (debug)")
	gamepadConfig = flag.String("gamepad-config", "", "Path to a gamepad shaping file (JSON or YAML); defaults apply when empty")
	sbusPort      = flag.String("sbus-port", "", "Serial port of the SBUS RC receiver; empty runs without operator input")
	telemetryDB   = flag.String("telemetry", "", "Path to a sqlite telemetry database; empty disables recording")
	dividerFactor = flag.Int("divider", 6, "State signals per command tick (333 Hz state / 6 => ~55 Hz commands)")
)

func main() {
	flag.Parse()
	if *showVersion {
		log.Printf("gaitctl %s", version.String())
		return
	}
	if flag.NArg() != 1 {
		log.Fatalf("usage: %s [flags] <policy-directory>", os.Args[0])
	}
	policyDir := flag.Arg(0)
	if *dividerFactor < 1 {
		log.Fatalf("divider must be >= 1, got %d", *dividerFactor)
	}
	monitoring.Logf("gaitctl %s", version.String())

	configFile, err := policy.DetectConfigFile(policyDir)
	if err != nil {
		log.Fatalf("failed to locate training config: %v", err)
	}
	cfg, err := policy.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("failed to load training config: %v", err)
	}

	policyFile, err := policy.DetectPolicyFile(policyDir)
	if err != nil {
		log.Fatalf("failed to locate policy file: %v", err)
	}
	// The inference engine is pluggable; this build ships the zero policy,
	// which holds the trained neutral stance. An ONNX-backed Inferencer
	// drops in here without touching the control loop.
	var infer policy.Inferencer = policy.ZeroPolicy{}
	monitoring.Logf("policy: %s (config %s)", policyFile, configFile)

	clock := timeutil.SystemClock{}

	var bot robot.Robot
	if *mock {
		bot = robot.NewSim(clock)
	} else {
		// The vendor transport client is wired in by the hardware build;
		// this tree carries the simulator only.
		log.Fatalf("no hardware transport in this build; run with -mock")
	}

	ctrl := drive.NewContext(clock)

	gen, err := policy.NewCommandGenerator(ctrl, cfg, infer)
	if err != nil {
		log.Fatalf("failed to build command generator: %v", err)
	}
	var source drive.Generator = gen
	if *hold {
		monitoring.Logf("hold mode: streaming the stream-start pose")
		source = drive.GeneratorFunc(gen.NextHold)
	}

	var input drive.InputLoop
	if *sbusPort != "" {
		padCfg := gamepad.DefaultConfig()
		if *gamepadConfig != "" {
			padCfg, err = gamepad.LoadConfig(*gamepadConfig)
			if err != nil {
				log.Fatalf("failed to load gamepad config: %v", err)
			}
		}
		src, err := gamepad.OpenSBus(*sbusPort)
		if err != nil {
			// Degrade: drive with the default (zero) velocity reference.
			monitoring.Logf("no input device on %s (%v); continuing without operator input", *sbusPort, err)
		} else {
			defer src.Close()
			input = gamepad.New(src, padCfg, ctrl, clock)
		}
	} else {
		monitoring.Logf("no input device configured; velocity reference stays at zero")
	}

	var recorder drive.Recorder
	if *telemetryDB != "" {
		rec, err := telemetry.OpenRecorder(*telemetryDB, policyFile)
		if err != nil {
			log.Fatalf("failed to open telemetry db: %v", err)
		}
		defer rec.Close()
		monitoring.Logf("recording session %s to %s", rec.SessionID(), *telemetryDB)
		recorder = rec
	}

	session, err := drive.NewSession(drive.Options{
		Robot:          bot,
		Context:        ctrl,
		Divider:        drive.NewRateDivider(ctrl, *dividerFactor),
		Generator:      source,
		Input:          input,
		Recorder:       recorder,
		StandingHeight: cfg.StandingHeight,
		Clock:          clock,
	})
	if err != nil {
		log.Fatalf("failed to build session: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("session failed: %v", err)
	}
}
