/*
File Name:  Config.go
Copyright:  2021 Peernet s.r.o.
*/

package nebula

import (
	_ "embed" // Required for embedding default Config file
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Version is the current library version
const Version = "1.0"

// Config defines the minimum required config for a node.
type Config struct {
	LogFile  string `yaml:"LogFile"`  // Log file. Empty to disable logging.
	LogLevel string `yaml:"LogLevel"` // debug, info, warn, error

	// Network
	Listen         string        `yaml:"Listen"`         // IP:Port to listen on. Port 0 picks a random port.
	ExternalIP     string        `yaml:"ExternalIP"`     // IP announced to peers and used for deriving the own node ID. Defaults to the listening IP.
	MaxConnections int           `yaml:"MaxConnections"` // Max concurrent incoming connections. 0 = unlimited.
	TimeoutConnect time.Duration `yaml:"TimeoutConnect"` // Timeout for connecting to a peer.
	TimeoutRead    time.Duration `yaml:"TimeoutRead"`    // Timeout for a full request/response exchange.

	// Discovery
	DiscoveryInterval time.Duration `yaml:"DiscoveryInterval"` // Pause between discovery sweeps.
	DiscoveryDisable  bool          `yaml:"DiscoveryDisable"`  // Boot nodes only answer requests and do not sweep.

	// Initial peer seed list, IP:Port
	SeedList []string `yaml:"SeedList"`

	// Blacklist database directory. Empty for an in-memory blacklist.
	BlacklistDatabase string `yaml:"BlacklistDatabase"`

	// Web API
	WebListen          []string      `yaml:"WebListen"`          // IP:Port combinations. Empty to disable.
	WebUseSSL          bool          `yaml:"WebUseSSL"`          // Enables SSL.
	WebCertificateFile string        `yaml:"WebCertificateFile"` // This is the certificate received from the CA. This can also include the intermediate certificate from the CA.
	WebCertificateKey  string        `yaml:"WebCertificateKey"`  // This is the private key.
	WebTimeoutRead     time.Duration `yaml:"WebTimeoutRead"`     // The maximum duration for reading the entire request, including the body.
	WebTimeoutWrite    time.Duration `yaml:"WebTimeoutWrite"`    // The maximum duration before timing out writes of the response.
	WebAPIKey          string        `yaml:"WebAPIKey"`          // UUID required in the x-api-key header. Empty to disable.
}

//go:embed "Config Default.yaml"
var ConfigDefault []byte

// LoadConfig reads the YAML configuration file. If an error is returned, the application shall exit.
// If the file does not exist or is empty, the default config is used.
// Status: 0 = Unknown error checking config file, 1 = Error reading config file, 2 = Error parsing config file, 3 = Success
func LoadConfig(filename string) (config *Config, status int, err error) {
	var configData []byte

	// check if the file is non existent or empty
	stats, err := os.Stat(filename)
	if err != nil && os.IsNotExist(err) || err == nil && stats.Size() == 0 {
		configData = ConfigDefault
	} else if err != nil {
		return nil, 0, err
	} else if configData, err = os.ReadFile(filename); err != nil {
		return nil, 1, err
	}

	// The default config is loaded first so that missing settings keep their default.
	config = &Config{}
	if err = yaml.Unmarshal(ConfigDefault, config); err != nil {
		return nil, 2, err
	}
	if err = yaml.Unmarshal(configData, config); err != nil {
		return nil, 2, err
	}

	return config, 3, nil
}

// SaveConfig stores the config
func SaveConfig(filename string, config *Config) (err error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}

// Environment variables that override settings from the config file. They may be set in a .env file.
const (
	envListen     = "NEBULA_LISTEN"
	envExternalIP = "NEBULA_EXTERNAL_IP"
	envSeeds      = "NEBULA_SEEDS" // Comma separated list of IP:Port
	envLogLevel   = "NEBULA_LOG_LEVEL"
	envWebListen  = "NEBULA_WEB_LISTEN" // Comma separated list of IP:Port
	envDiscovery  = "NEBULA_DISCOVERY"  // Set to false to disable the discovery sweep
)

// ApplyEnvironment overrides config settings with environment variables. The files are optional .env files; if none is given, .env in the working directory is tried.
func (config *Config) ApplyEnvironment(files ...string) {
	godotenv.Load(files...) // A missing .env file is not an error.

	if value := os.Getenv(envListen); value != "" {
		config.Listen = value
	}
	if value := os.Getenv(envExternalIP); value != "" {
		config.ExternalIP = value
	}
	if value := os.Getenv(envSeeds); value != "" {
		config.SeedList = splitList(value)
	}
	if value := os.Getenv(envLogLevel); value != "" {
		config.LogLevel = value
	}
	if value := os.Getenv(envWebListen); value != "" {
		config.WebListen = splitList(value)
	}
	if value := os.Getenv(envDiscovery); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			config.DiscoveryDisable = !enabled
		}
	}
}

func splitList(value string) (list []string) {
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// InitLog creates the logger writing into the log file specified in the configuration. No log file means no logging.
func InitLog(config *Config) (logger *zap.Logger, err error) {
	if config.LogFile == "" {
		return zap.NewNop(), nil
	}

	level := zapcore.InfoLevel
	if config.LogLevel != "" {
		if err = level.UnmarshalText([]byte(config.LogLevel)); err != nil {
			return nil, err
		}
	}

	logConfig := zap.NewProductionConfig()
	logConfig.Level = zap.NewAtomicLevelAt(level)
	logConfig.Encoding = "console"
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConfig.OutputPaths = []string{config.LogFile}
	logConfig.ErrorOutputPaths = []string{config.LogFile}
	logConfig.Sampling = nil

	if logger, err = logConfig.Build(); err != nil {
		return nil, err
	}

	logger.Info("---- Nebula " + Version + " ----")

	return logger, nil
}
