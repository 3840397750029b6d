package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"orientd/internal/classify"
	"orientd/internal/orientation"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "{}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PlatformID != orientation.Android || cfg.Platform != "android" {
		t.Fatalf("platform=%q", cfg.Platform)
	}
	if cfg.Mode != classify.ModeAngle || cfg.Classifier != "angle" {
		t.Fatalf("classifier=%q", cfg.Classifier)
	}
	if cfg.Source.Kind != SourceSim || cfg.Source.Sim.Samples != "angle" {
		t.Fatalf("source=%+v", cfg.Source)
	}
	if cfg.Source.Sim.Period != 20*time.Second || cfg.Source.Sim.Interval != 200*time.Millisecond {
		t.Fatalf("sim=%+v", cfg.Source.Sim)
	}
	if cfg.Web.Listen != ":8080" {
		t.Fatalf("listen=%q", cfg.Web.Listen)
	}
	if cfg.Log.BufferLines != 500 {
		t.Fatalf("buffer_lines=%d", cfg.Log.BufferLines)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParse_AppleDefaultsToVectorAccel(t *testing.T) {
	cfg, err := Parse([]byte("platform: ios\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.PlatformID != orientation.Apple || cfg.Platform != "apple" {
		t.Fatalf("platform=%q", cfg.Platform)
	}
	if cfg.Mode != classify.ModeVector {
		t.Fatalf("mode=%v", cfg.Mode)
	}
	if cfg.Source.Sim.Samples != "accel" {
		t.Fatalf("samples=%q", cfg.Source.Sim.Samples)
	}

	cfg, err = Parse([]byte("classifier: vector\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Source.Sim.Samples != "tilt" {
		t.Fatalf("samples=%q", cfg.Source.Sim.Samples)
	}
}

func TestParse_SourceDefaults(t *testing.T) {
	cfg, err := Parse([]byte("classifier: vector\nsource:\n  kind: IMU\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Source.Kind != SourceIMU || cfg.Source.IMU.I2CBus != 1 || cfg.Source.IMU.Addr != 0x68 || cfg.Source.IMU.Interval != 200*time.Millisecond {
		t.Fatalf("imu=%+v", cfg.Source.IMU)
	}

	cfg, err = Parse([]byte("source:\n  kind: serial\n  serial:\n    path: /dev/ttyUSB0\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Source.Serial.Baud != 115200 {
		t.Fatalf("baud=%d", cfg.Source.Serial.Baud)
	}

	cfg, err = Parse([]byte("source:\n  kind: replay\n  replay:\n    path: ./x.log\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Source.Replay.Speed != 1 {
		t.Fatalf("speed=%v", cfg.Source.Replay.Speed)
	}
}

func TestParse_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"platform", "platform: windows\n", "platform must be android or apple"},
		{"classifier", "classifier: neural\n", "classifier must be angle or vector"},
		{"kind", "source:\n  kind: gps\n", "source.kind must be sim, replay, serial or imu"},
		{"replay path", "source:\n  kind: replay\n", "source.replay.path is required when source.kind is replay"},
		{"replay speed", "source:\n  kind: replay\n  replay:\n    path: x\n    speed: -2\n", "source.replay.speed must be > 0"},
		{"serial path", "source:\n  kind: serial\n", "source.serial.path is required when source.kind is serial"},
		{"imu mode", "source:\n  kind: imu\n", "source.kind imu requires classifier vector"},
		{"imu addr", "classifier: vector\nsource:\n  kind: imu\n  imu:\n    addr: 200\n", "source.imu.addr must be a 7-bit address"},
		{"sim samples", "source:\n  sim:\n    samples: gyro\n", "source.sim.samples must be angle, tilt, accel or accelmag"},
		{"sim mismatch", "source:\n  sim:\n    samples: tilt\n", "source.sim.samples tilt does not match classifier angle"},
		{"record path", "record:\n  enable: true\n", "record.path is required when record.enable is true"},
		{"record replay", "record:\n  enable: true\n  path: out.log\nsource:\n  kind: replay\n  replay:\n    path: in.log\n", "record cannot be used with source.kind replay"},
		{"gpio", "lock:\n  indicator: true\n", "lock.gpio_pin is required when lock.indicator is true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("platform: [\n")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "orientd.example.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Kind != SourceSim || cfg.Source.IMU.Addr != 0x68 || cfg.Lock.GPIOPin != 17 {
		t.Fatalf("cfg=%+v", cfg)
	}
}
