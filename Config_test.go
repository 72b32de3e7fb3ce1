package nebula

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefault(t *testing.T) {
	config, status, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil || status != 3 {
		t.Fatalf("load: status %d error %v", status, err)
	}

	if config.Listen != "0.0.0.0:5000" || config.TimeoutConnect != time.Second || config.TimeoutRead != time.Second {
		t.Fatalf("unexpected defaults %+v", config)
	}
	if config.DiscoveryInterval != time.Second || config.DiscoveryDisable {
		t.Fatalf("unexpected discovery defaults")
	}
}

func TestLoadConfigFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "Config.yaml")
	data := "Listen: \"127.0.0.1:6000\"\nTimeoutRead: 250ms\nSeedList:\n  - \"10.0.0.1:5000\"\n"
	if err := os.WriteFile(filename, []byte(data), 0644); err != nil {
		t.Fatalf("write: %s", err.Error())
	}

	config, status, err := LoadConfig(filename)
	if err != nil || status != 3 {
		t.Fatalf("load: status %d error %v", status, err)
	}

	if config.Listen != "127.0.0.1:6000" || config.TimeoutRead != 250*time.Millisecond {
		t.Fatalf("settings not loaded %+v", config)
	}
	if len(config.SeedList) != 1 || config.SeedList[0] != "10.0.0.1:5000" {
		t.Fatalf("seed list not loaded")
	}
	// not set in the file
	if config.TimeoutConnect != time.Second {
		t.Fatalf("default not applied")
	}

	// round trip
	if err = SaveConfig(filename, config); err != nil {
		t.Fatalf("save: %s", err.Error())
	}
	config2, _, err := LoadConfig(filename)
	if err != nil || config2.TimeoutRead != config.TimeoutRead || config2.Listen != config.Listen {
		t.Fatalf("saved config differs")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "Config.yaml")
	os.WriteFile(filename, []byte("Listen: [unclosed"), 0644)

	if _, status, err := LoadConfig(filename); err == nil || status != 2 {
		t.Fatalf("expected parse error, got status %d", status)
	}
}

func TestApplyEnvironment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(envFile, []byte("NEBULA_EXTERNAL_IP=192.0.2.1\nNEBULA_DISCOVERY=false\n"), 0644)

	t.Setenv("NEBULA_LISTEN", "127.0.0.1:7000")
	t.Setenv("NEBULA_SEEDS", "10.0.0.1:1, 10.0.0.2:2")
	// registered for cleanup, then unset so the .env file applies
	t.Setenv("NEBULA_EXTERNAL_IP", "")
	t.Setenv("NEBULA_DISCOVERY", "")
	os.Unsetenv("NEBULA_EXTERNAL_IP")
	os.Unsetenv("NEBULA_DISCOVERY")

	config := &Config{Listen: "0.0.0.0:5000"}
	config.ApplyEnvironment(envFile)

	if config.Listen != "127.0.0.1:7000" {
		t.Fatalf("listen not overridden")
	}
	if len(config.SeedList) != 2 || config.SeedList[1] != "10.0.0.2:2" {
		t.Fatalf("unexpected seeds %v", config.SeedList)
	}
	if config.ExternalIP != "192.0.2.1" || !config.DiscoveryDisable {
		t.Fatalf(".env file not applied")
	}
}

func TestInitLog(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "Log.txt")

	logger, err := InitLog(&Config{LogFile: filename, LogLevel: "debug"})
	if err != nil {
		t.Fatalf("init log: %s", err.Error())
	}
	logger.Debug("test entry")
	logger.Sync()

	data, err := os.ReadFile(filename)
	if err != nil || len(data) == 0 {
		t.Fatalf("log file empty")
	}

	if _, err := InitLog(&Config{LogFile: filename, LogLevel: "invalid"}); err == nil {
		t.Fatalf("invalid level accepted")
	}
}
