package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/JamesHertz/the-internet-simulator/capture"
	"github.com/JamesHertz/the-internet-simulator/monitoring"
	"github.com/JamesHertz/the-internet-simulator/recording"
	"github.com/JamesHertz/the-internet-simulator/sim"
	"github.com/JamesHertz/the-internet-simulator/simulation"
	"github.com/JamesHertz/the-internet-simulator/topology"
	"github.com/JamesHertz/the-internet-simulator/traffic"
)

type runOptions struct {
	frames      int
	seed        int64
	maxPayload  int
	timeout     time.Duration
	logFrames   bool
	record      string
	capture     string
	monitor     bool
	monitorPort int
	openBrowser bool
	hold        bool
}

func runOptionsFrom(cmd *cobra.Command) runOptions {
	f := cmd.Flags()

	var o runOptions
	o.frames, _ = f.GetInt("frames")
	o.seed, _ = f.GetInt64("seed")
	o.maxPayload, _ = f.GetInt("max-payload")
	o.timeout, _ = f.GetDuration("timeout")
	o.logFrames, _ = f.GetBool("log-frames")
	o.record, _ = f.GetString("record")
	o.capture, _ = f.GetString("capture")
	o.monitor, _ = f.GetBool("monitor")
	o.monitorPort, _ = f.GetInt("monitor-port")
	o.openBrowser, _ = f.GetBool("open-browser")
	o.hold, _ = f.GetBool("hold")

	return o
}

var runCmd = &cobra.Command{
	Use:   "run <topology>",
	Short: "Run a network and send random traffic between its hosts.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return runTopology(ctx, args[0], runOptionsFrom(cmd))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.Int("frames", 100, "Number of frames to send between random hosts.")
	f.Int64("seed", 1, "Seed of the traffic generator.")
	f.Int("max-payload", 1500, "Largest payload generated, in bytes.")
	f.Duration("timeout", 30*time.Second,
		"How long to wait for every frame to arrive.")
	f.Bool("log-frames", false, "Log every frame event of every device.")
	f.String("record", "",
		"Record frame events into the given SQLite database name.")
	f.String("capture", "", "Write received frames into the given pcap file.")
	f.Bool("monitor", false, "Serve the monitoring API while running.")
	f.Int("monitor-port", 0, "Port of the monitoring server.")
	f.Bool("open-browser", false, "Open the monitoring server in a browser.")
	f.Bool("hold", false,
		"Keep the network running after the traffic until interrupted.")
}

func runTopology(ctx context.Context, path string, o runOptions) error {
	t, err := topology.ParseFile(path)
	if err != nil {
		return err
	}

	buildOpts := []topology.Option{topology.WithLogger(logger)}
	if o.logFrames {
		buildOpts = append(buildOpts, topology.WithDeviceLogger(logger))
	}

	network, err := topology.Build(t, buildOpts...)
	if err != nil {
		return err
	}

	s := network.Simulator

	if o.record != "" {
		recorder := recording.New(o.record)
		atexit.Register(func() { recorder.Close() })
		s.AcceptFrameHook(recording.NewFrameRecorder(recorder))
	}

	if o.capture != "" {
		pcap, err := capture.NewPcapFile(o.capture)
		if err != nil {
			return err
		}
		defer pcap.Close()

		s.AcceptFrameHook(pcap)
	}

	test := traffic.NewTest(o.seed).
		WithMaxPayload(o.maxPayload).
		WithLogger(logger)
	for _, name := range network.HostNames() {
		test.RegisterHost(network.Hosts[name])
	}

	if o.monitor {
		monitor := monitoring.NewMonitor().
			WithLogger(logger).
			WithPortNumber(o.monitorPort)
		monitor.RegisterSimulator(s)

		url, err := monitor.StartServer()
		if err != nil {
			return err
		}
		defer monitor.StopServer(context.Background())

		bar := monitor.CreateProgressBar("Traffic", uint64(o.frames))
		test.WithProgress(bar)

		if o.openBrowser {
			if err := browser.OpenURL(url); err != nil {
				logger.Warn("cannot open browser", slog.String("err", err.Error()))
			}
		}
	}

	simCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := waitForDevices(s)
	done := make(chan error, 1)

	go func() {
		done <- s.Run(simCtx)
	}()

	select {
	case <-started:
	case err := <-done:
		return err
	}

	err = sendTraffic(ctx, test, o)

	if o.hold && err == nil {
		logger.Info("holding the network, interrupt to stop")
		<-ctx.Done()
	}

	cancel()

	if runErr := <-done; runErr != nil {
		return runErr
	}

	return err
}

func sendTraffic(ctx context.Context, test *traffic.Test, o runOptions) error {
	if o.frames == 0 {
		return nil
	}

	test.GenerateMsgs(o.frames)

	start := time.Now()

	if err := test.Send(); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	waitErr := test.Wait(waitCtx)

	report := test.Report()
	logger.Info("traffic finished",
		slog.Int("sent", report.Sent),
		slog.Int("received", report.Received),
		slog.Int("duplicated", report.Duplicated),
		slog.Int("misdelivered", report.Misdelivered),
		slog.Duration("elapsed", time.Since(start)))

	if err := test.MustHaveReceivedAllMsgs(); err != nil {
		return fmt.Errorf("traffic check failed: %w", err)
	}

	return waitErr
}

// waitForDevices returns a channel closed once every device of the simulator
// has started.
func waitForDevices(s *simulation.Simulator) <-chan struct{} {
	started := make(chan struct{})
	remaining := len(s.Devices())

	if remaining == 0 {
		close(started)
		return started
	}

	var lock sync.Mutex
	s.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		if ctx.Pos != simulation.HookPosDeviceStart {
			return
		}

		lock.Lock()
		defer lock.Unlock()

		remaining--
		if remaining == 0 {
			close(started)
		}
	}))

	return started
}
