// Package config loads the orientd YAML configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"orientd/internal/classify"
	"orientd/internal/orientation"
	"orientd/internal/sensor"
)

type Config struct {
	Platform   string       `yaml:"platform"`
	Classifier string       `yaml:"classifier"`
	Source     SourceConfig `yaml:"source"`
	Record     RecordConfig `yaml:"record"`
	Web        WebConfig    `yaml:"web"`
	UDP        UDPConfig    `yaml:"udp"`
	Lock       LockConfig   `yaml:"lock"`
	Log        LogConfig    `yaml:"log"`

	// Resolved from Platform and Classifier by Load.
	PlatformID orientation.Platform `yaml:"-"`
	Mode       classify.Mode        `yaml:"-"`
}

type SourceConfig struct {
	Kind   string       `yaml:"kind"`
	Serial SerialConfig `yaml:"serial"`
	IMU    IMUConfig    `yaml:"imu"`
	Replay ReplayConfig `yaml:"replay"`
	Sim    SimConfig    `yaml:"sim"`
}

type SerialConfig struct {
	Path string `yaml:"path"`
	Baud int    `yaml:"baud"`
}

type IMUConfig struct {
	I2CBus   int           `yaml:"i2c_bus"`
	Addr     uint16        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

type ReplayConfig struct {
	Path  string  `yaml:"path"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

type SimConfig struct {
	// Samples is the sample kind produced: angle, tilt, accel or accelmag.
	Samples  string        `yaml:"samples"`
	Period   time.Duration `yaml:"period"`
	Interval time.Duration `yaml:"interval"`
	Scenario string        `yaml:"scenario"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type WebConfig struct {
	Listen string `yaml:"listen"`
}

type UDPConfig struct {
	Dest string `yaml:"dest"`
}

type LockConfig struct {
	Indicator bool `yaml:"indicator"`
	GPIOPin   int  `yaml:"gpio_pin"`
}

type LogConfig struct {
	BufferLines int `yaml:"buffer_lines"`
}

const (
	SourceSim    = "sim"
	SourceReplay = "replay"
	SourceSerial = "serial"
	SourceIMU    = "imu"
)

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse applies defaults to a YAML document and validates it. An empty
// document is a valid simulator configuration.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	p, err := orientation.ParsePlatform(cfg.Platform)
	if err != nil {
		return Config{}, fmt.Errorf("platform must be android or apple")
	}
	cfg.PlatformID = p
	cfg.Platform = p.String()

	if strings.TrimSpace(cfg.Classifier) == "" {
		cfg.Mode = classify.DefaultMode(p)
	} else {
		m, err := classify.ParseMode(cfg.Classifier)
		if err != nil {
			return Config{}, fmt.Errorf("classifier must be angle or vector")
		}
		cfg.Mode = m
	}
	cfg.Classifier = cfg.Mode.String()

	src := &cfg.Source
	src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
	if src.Kind == "" {
		src.Kind = SourceSim
	}
	switch src.Kind {
	case SourceSim:
		if src.Sim.Samples == "" {
			src.Sim.Samples = defaultSimSamples(cfg.Mode, p)
		}
		k, err := sensor.ParseKind(src.Sim.Samples)
		if err != nil {
			return Config{}, fmt.Errorf("source.sim.samples must be angle, tilt, accel or accelmag")
		}
		if err := checkKind(cfg.Mode, k); err != nil {
			return Config{}, err
		}
		if src.Sim.Period <= 0 {
			src.Sim.Period = 20 * time.Second
		}
		if src.Sim.Interval <= 0 {
			src.Sim.Interval = 200 * time.Millisecond
		}
	case SourceReplay:
		if src.Replay.Path == "" {
			return Config{}, fmt.Errorf("source.replay.path is required when source.kind is replay")
		}
		if src.Replay.Speed == 0 {
			src.Replay.Speed = 1
		}
		if src.Replay.Speed < 0 {
			return Config{}, fmt.Errorf("source.replay.speed must be > 0")
		}
	case SourceSerial:
		if src.Serial.Path == "" {
			return Config{}, fmt.Errorf("source.serial.path is required when source.kind is serial")
		}
		if src.Serial.Baud <= 0 {
			src.Serial.Baud = 115200
		}
	case SourceIMU:
		if cfg.Mode != classify.ModeVector {
			return Config{}, fmt.Errorf("source.kind imu requires classifier vector")
		}
		if src.IMU.I2CBus <= 0 {
			src.IMU.I2CBus = 1
		}
		if src.IMU.Addr == 0 {
			src.IMU.Addr = 0x68
		}
		if src.IMU.Addr > 0x7F {
			return Config{}, fmt.Errorf("source.imu.addr must be a 7-bit address")
		}
		if src.IMU.Interval <= 0 {
			src.IMU.Interval = 200 * time.Millisecond
		}
	default:
		return Config{}, fmt.Errorf("source.kind must be sim, replay, serial or imu")
	}

	if cfg.Record.Enable {
		if cfg.Record.Path == "" {
			return Config{}, fmt.Errorf("record.path is required when record.enable is true")
		}
		if src.Kind == SourceReplay {
			return Config{}, fmt.Errorf("record cannot be used with source.kind replay")
		}
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}
	if cfg.Lock.Indicator && cfg.Lock.GPIOPin <= 0 {
		return Config{}, fmt.Errorf("lock.gpio_pin is required when lock.indicator is true")
	}
	if cfg.Log.BufferLines <= 0 {
		cfg.Log.BufferLines = 500
	}
	return cfg, nil
}

func defaultSimSamples(m classify.Mode, p orientation.Platform) string {
	switch {
	case m == classify.ModeAngle:
		return "angle"
	case p == orientation.Apple:
		return "accel"
	}
	return "tilt"
}

// checkKind rejects a simulator that would feed samples the classifier
// ignores.
func checkKind(m classify.Mode, k sensor.Kind) error {
	if (m == classify.ModeAngle) != (k == sensor.KindAngle) {
		return fmt.Errorf("source.sim.samples %s does not match classifier %s", k, m)
	}
	return nil
}
