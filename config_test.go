package treejs

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "treejs.toml", `
max_call_depth = 64
load_path = ["lib", "vendor"]
random_seed = 7
log_level = "debug"
`)
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.MaxCallDepth != 64 || config.RandomSeed != 7 {
		t.Errorf("got %+v", config)
	}
	if config.MaxProtoDepth != DefaultConfig().MaxProtoDepth {
		t.Errorf("unset max_proto_depth: got %d", config.MaxProtoDepth)
	}
	if strings.Join(config.LoadPath, ":") != "lib:vendor" {
		t.Errorf("load_path: got %v", config.LoadPath)
	}
	if level, err := config.Level(); err != nil || level != zapcore.DebugLevel {
		t.Errorf("level: got %v, %v", level, err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Errorf("debug logging disabled")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax.toml", `max_call_depth = `, "failed to parse"},
		{"type.toml", `max_call_depth = "deep"`, "failed to parse"},
		{"depth.toml", `max_call_depth = 0`, "max_call_depth must be positive"},
		{"proto.toml", `max_proto_depth = -1`, "max_proto_depth must be positive"},
		{"level.toml", `log_level = "chatty"`, "log_level"},
	}
	for _, tc := range cases {
		_, err := LoadConfig(writeTestFile(t, dir, tc.name, tc.content))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: got %v, want an error containing %q", tc.name, err, tc.want)
		}
	}

	if _, err := LoadConfig(dir + "/missing.toml"); err == nil {
		t.Errorf("missing file accepted")
	}
}

func TestRandomSeed(t *testing.T) {
	config := DefaultConfig()
	config.RandomSeed = 42
	a := evalString(t, `Math.random() + "," + Math.random()`, WithConfig(config))
	b := evalString(t, `Math.random() + "," + Math.random()`, WithConfig(config))
	if a != b {
		t.Errorf("same seed, different sequences: %s / %s", a, b)
	}
}
