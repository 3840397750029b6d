package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"orientd/internal/bridge"
	"orientd/internal/config"
	"orientd/internal/encode"
	"orientd/internal/imu"
	"orientd/internal/lock"
	"orientd/internal/replay"
	"orientd/internal/sensor"
	"orientd/internal/serialsrc"
	"orientd/internal/sim"
	"orientd/internal/udp"
	"orientd/internal/web"
)

func newServeCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Classify the configured sensor and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			logs := web.NewLogBuffer(cfg.Log.BufferLines)
			log.SetOutput(io.MultiWriter(os.Stderr, logs))

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rt, err := newRuntime(cfg, logs)
			if err != nil {
				return err
			}
			defer rt.Close()
			return rt.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "./orientd.yaml", "path to YAML config; a missing default file means built-in defaults")
	return cmd
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && path == "./orientd.yaml" {
		log.Printf("config: %s not found, using defaults", path)
		return config.Parse(nil)
	}
	return cfg, err
}

// runtime wires the configured source, the lock applicators and the outputs
// around one long-lived subscription.
type runtime struct {
	cfg    config.Config
	status *web.Status
	events *web.EventBroadcaster
	logs   *web.LogBuffer
	plugin *bridge.Plugin
	lock   *lock.State

	indicator *lock.Indicator
	udpSink   *udp.Sink
	// recordW is handed to the first source opened and nil afterwards.
	recordW *replay.Writer

	closeOnce sync.Once
}

func newRuntime(cfg config.Config, logs *web.LogBuffer) (*runtime, error) {
	rt := &runtime{
		cfg:    cfg,
		status: web.NewStatus(),
		events: web.NewEventBroadcaster(),
		logs:   logs,
	}
	rt.status.SetStatic(cfg.Platform, cfg.Classifier, cfg.Source.Kind)

	var next lock.Multi
	if cfg.Lock.Indicator {
		ind, err := lock.OpenIndicator(cfg.Lock.GPIOPin)
		if err != nil {
			return nil, fmt.Errorf("lock indicator init failed: %w", err)
		}
		rt.indicator = ind
		next = append(next, ind)
	}
	next = append(next, lock.Func(func(c encode.LockConstraint) error {
		log.Printf("lock: applied %s", c)
		return nil
	}))
	rt.lock = &lock.State{
		Next: next,
		NextOverlays: lock.OverlayFunc(func(f encode.SystemUIFlags) error {
			log.Printf("lock: system ui flags %s top=%t bottom=%t", f, f.TopVisible(), f.BottomVisible())
			return nil
		}),
	}

	if cfg.Record.Enable {
		w, err := replay.CreateWriter(cfg.Record.Path)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("record init failed: %w", err)
		}
		rt.recordW = w
		log.Printf("record: writing samples to %s", cfg.Record.Path)
	}

	if cfg.UDP.Dest != "" {
		s, err := udp.NewSink(cfg.UDP.Dest)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("udp sink init failed: %w", err)
		}
		rt.udpSink = s
	}

	rt.plugin = &bridge.Plugin{
		Platform:   cfg.PlatformID,
		Mode:       cfg.Mode,
		Applicator: rt.lock,
		Overlays:   rt.lock,
		Sources:    rt.openSource,
	}
	return rt, nil
}

func (rt *runtime) openSource() (sensor.Source, error) {
	sc := rt.cfg.Source
	var src sensor.Source
	switch sc.Kind {
	case config.SourceSim:
		k, err := sensor.ParseKind(sc.Sim.Samples)
		if err != nil {
			return nil, err
		}
		dev := sim.Device{Period: sc.Sim.Period, Kind: k, Origin: time.Now()}
		if sc.Sim.Scenario != "" {
			script, err := sim.LoadScript(sc.Sim.Scenario)
			if err != nil {
				return nil, fmt.Errorf("load scenario: %w", err)
			}
			if dev.Script, err = sim.NewScenario(script); err != nil {
				return nil, fmt.Errorf("scenario %s: %w", sc.Sim.Scenario, err)
			}
		}
		src = &sim.Source{Device: dev, Interval: sc.Sim.Interval}
	case config.SourceReplay:
		r, err := replay.OpenSource(sc.Replay.Path, sc.Replay.Speed, sc.Replay.Loop)
		if err != nil {
			return nil, err
		}
		src = r
	case config.SourceSerial:
		src = serialsrc.New(serialsrc.Options{Path: sc.Serial.Path, Baud: sc.Serial.Baud})
	case config.SourceIMU:
		src = imu.New(imu.Config{I2CBus: sc.IMU.I2CBus, Addr: sc.IMU.Addr, Interval: sc.IMU.Interval})
	default:
		return nil, fmt.Errorf("unknown source kind %q", sc.Kind)
	}

	if rt.recordW != nil {
		src = &replay.Recorder{Source: src, W: rt.recordW}
		rt.recordW = nil
	} else if rt.cfg.Record.Enable {
		log.Printf("record: %s already in use, not recording this listener", rt.cfg.Record.Path)
	}
	return src, nil
}

func (rt *runtime) deliver(e bridge.Event) {
	switch e.Kind {
	case bridge.EventChange:
		rt.status.MarkOrientation(e.At, e.Orientation.String())
		log.Printf("orientation: %s", e.Orientation)
	case bridge.EventError:
		rt.status.SetSensorError(e.Code + ": " + e.Message)
		log.Printf("orientation: %s: %s", e.Code, e.Message)
	}
	rt.events.Publish(e)
	if rt.udpSink != nil {
		if err := rt.udpSink.Deliver(e); err != nil {
			log.Printf("udp: send to %s: %v", rt.udpSink.Dest(), err)
		}
	}
}

func (rt *runtime) Run(ctx context.Context) error {
	log.Printf("orientd starting platform=%s classifier=%s source=%s", rt.cfg.Platform, rt.cfg.Classifier, rt.cfg.Source.Kind)
	sub, err := rt.plugin.Listen(ctx, rt.deliver)
	if err != nil {
		return err
	}
	log.Printf("subscription %s listening", sub.ID())

	h := web.Handler(web.Deps{Status: rt.status, Events: rt.events, Methods: rt.plugin, Logs: rt.logs})
	log.Printf("web listening on %s", rt.cfg.Web.Listen)
	err = web.Serve(ctx, rt.cfg.Web.Listen, h)
	rt.plugin.CancelAll()
	log.Printf("orientd stopping")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (rt *runtime) Close() {
	rt.closeOnce.Do(func() {
		if rt.plugin != nil {
			rt.plugin.CancelAll()
		}
		if rt.indicator != nil {
			if err := rt.indicator.Close(); err != nil {
				log.Printf("lock: indicator close: %v", err)
			}
		}
		if rt.udpSink != nil {
			_ = rt.udpSink.Close()
		}
		if rt.recordW != nil {
			if err := rt.recordW.Close(); err != nil {
				log.Printf("record: close: %v", err)
			}
		}
	})
}
