package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openwheel/ffbcore"
	"github.com/openwheel/ffbcore/internal/capctrl"
	"github.com/openwheel/ffbcore/internal/health"
	"github.com/openwheel/ffbcore/internal/hid"
	"github.com/openwheel/ffbcore/internal/logging"
	"github.com/openwheel/ffbcore/internal/owp1"
	"github.com/openwheel/ffbcore/internal/pipeline"
	"github.com/openwheel/ffbcore/internal/rtsched"
	"github.com/openwheel/ffbcore/internal/vendor"
)

func main() {
	var (
		durationStr = flag.String("duration", "3s", "how long to run the simulated session")
		verbose     = flag.Bool("v", false, "verbose logging")
		blackboxOut = flag.String("blackbox", "", "write a .wbb recording to this path (empty disables recording)")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address (empty disables)")
	)
	flag.Parse()

	duration, err := time.ParseDuration(*durationStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -duration %q: %v\n", *durationStr, err)
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	transport := hid.NewMockTransport()
	queueTelemetry(transport, 0)

	controller := capctrl.New(logger)
	if err := controller.ConnectWithTransport(transport, vendor.GenericVendorID, 0x0001); err != nil {
		logger.Error("connect failed", "error", err)
		os.Exit(1)
	}
	controller.SetCaps(owp1.DeviceCaps{
		SupportsPID:           true,
		SupportsRawTorque1kHz: true,
		SupportsHealthStream:  true,
		MaxTorqueCNcm:         2500,
		EncoderCPR:            4096,
		MinReportPeriodUs:     100,
		ProtocolVersion:       1,
	})
	controller.SetGameHints(capctrl.GameHints{ProvidesRawTorque: true})

	modes, err := controller.Negotiate()
	if err != nil {
		logger.Error("negotiate failed", "error", err)
		os.Exit(1)
	}
	logger.Info("negotiated FFB mode", "selected", string(controller.Mode()), "permitted", modes)

	if err := controller.Arm(); err != nil {
		logger.Error("arm failed", "error", err)
		os.Exit(1)
	}

	device := ffbcore.NewDevice(1, controller)

	slot, err := newDemoPipeline()
	if err != nil {
		logger.Error("pipeline compile failed", "error", err)
		os.Exit(1)
	}

	var blackboxFile *os.File
	if *blackboxOut != "" {
		blackboxFile, err = os.Create(*blackboxOut)
		if err != nil {
			logger.Error("create blackbox file failed", "error", err)
			os.Exit(1)
		}
		defer blackboxFile.Close()
	}

	params := ffbcore.EngineParams{
		Device:          device,
		Pipeline:        slot,
		SchedulerConfig: rtsched.DefaultConfig(),
	}
	if blackboxFile != nil {
		params.BlackboxWriter = blackboxFile
	}

	opts := &ffbcore.Options{Logger: logger}
	if *metricsAddr != "" {
		reg := health.NewRegistry("ffbcore")
		params.HealthRegistry = reg
		opts.Observer = health.NewObserver(reg)

		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
		fmt.Printf("serving Prometheus metrics on http://%s/metrics\n", *metricsAddr)
	}

	engine, err := ffbcore.NewEngine(params, opts)
	if err != nil {
		logger.Error("new engine failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	telemetry := ffbcore.NewMockTelemetrySource([]ffbcore.TelemetryInput{
		{FFBScalar: 0.2, SpeedMS: 10, Gear: 3},
		{FFBScalar: 0.6, SpeedMS: 22, Gear: 4},
		{FFBScalar: -0.4, SpeedMS: 18, Gear: 4},
		{FFBScalar: 0.1, SpeedMS: 5, Gear: 2},
	})

	fmt.Printf("running simulated %s session for %s, mode=%s\n", "wheel", duration, controller.Mode())
	fmt.Printf("press Ctrl+C to stop early\n")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	feedTicker := time.NewTicker(time.Millisecond)
	defer feedTicker.Stop()
	reportTicker := time.NewTicker(500 * time.Millisecond)
	defer reportTicker.Stop()
	deadline := time.After(duration)

loop:
	for {
		select {
		case <-feedTicker.C:
			telemetry.Feed(engine)
		case <-reportTicker.C:
			p50, p99 := engine.JitterPercentiles()
			logger.Info("tick stats", "p50_jitter", p50, "p99_jitter", p99, "dropped_frames", engine.DroppedFrames())
		case <-deadline:
			break loop
		case <-sigCh:
			logger.Info("received shutdown signal")
			break loop
		}
	}

	engine.Shutdown()
	if err := controller.Disarm(); err != nil {
		logger.Error("disarm failed", "error", err)
	}
	if err := controller.Release(); err != nil {
		logger.Error("release failed", "error", err)
	}

	p50, p99 := engine.JitterPercentiles()
	fmt.Printf("session complete: dropped=%d p50_jitter=%s p99_jitter=%s\n", engine.DroppedFrames(), p50, p99)
}

// newDemoPipeline compiles a small, representative filter chain: a torque
// response curve, friction and damper effects, and the mandatory trailing
// torque cap.
func newDemoPipeline() (*pipeline.Slot, error) {
	cfg := pipeline.FilterConfig{
		Mode: string(ffbcore.ModeRawTorque),
		Nodes: []pipeline.NodeConfig{
			{Kind: "response_curve", Params: map[string]float64{"shape": 0, "strength": 0.6}},
			{Kind: "friction", Params: map[string]float64{"coefficient": 0.05, "deadband": 0.02}},
			{Kind: "damper", Params: map[string]float64{"coefficient": 0.03}},
			{Kind: "slew_rate", Params: map[string]float64{"max_delta_per_second": 20}},
			{Kind: "torque_cap", Params: map[string]float64{"max_torque": 1.0}},
		},
	}
	p, err := pipeline.Compile(cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewSlot(p), nil
}

// queueTelemetry pre-loads the mock transport with one IN report so the
// engine's RX thread has something to read from tick zero; in a real
// session the device streams these continuously.
func queueTelemetry(t *hid.MockTransport, seq uint16) {
	telem := owp1.DeviceTelemetry{
		WheelAngleMdeg:  1500,
		WheelSpeedMradS: 50,
		TempC:           35,
		HandsOn:         1,
		Seq:             seq,
	}
	var buf [owp1.ReportSize]byte
	owp1.MarshalDeviceTelemetry(&telem, &buf)
	t.QueueRead(buf[:])
}
