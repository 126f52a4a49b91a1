package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds connection parameters shared by the alarm binaries.
type Config struct {
	// ServerAddress is the host:port of the alarm HTTP server.
	ServerAddress string `yaml:"server_addr" toml:"server_addr"`
	// Secret is the static shared secret sent with every request.
	Secret int64 `yaml:"secret" toml:"secret"`
	// Timeout bounds a single HTTP request.
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
	// StateBackend selects the server persistence: "file" or "sqlite".
	StateBackend string `yaml:"state_backend" toml:"state_backend"`
	// StateFile is the JSON state file or SQLite database path.
	StateFile string `yaml:"state_file" toml:"state_file"`
	// RingCommand is executed by the checker when the alarm fires.
	RingCommand []string `yaml:"ring_command,omitempty" toml:"ring_command,omitempty"`
	// LogLevel is the minimum level written by the binaries.
	LogLevel string `yaml:"log_level,omitempty" toml:"log_level,omitempty"`
	// LogFile redirects the terminal client's logs away from the screen.
	LogFile string `yaml:"log_file,omitempty" toml:"log_file,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for connection settings.
	DefaultConfigFilename = "alarm-clock-settings.yaml"

	// DefaultStateFilename is the default filename for the server state.
	DefaultStateFilename = "alarm-clock-state.json"

	// DefaultDatabaseFilename is the default SQLite database for the sqlite backend.
	DefaultDatabaseFilename = "alarm-clock-state.db"

	// DefaultLogFilename is where the terminal client logs when nothing else is set.
	DefaultLogFilename = "alarm-clock.log"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultSecret is the shared secret the stock server and clients agree on.
	DefaultSecret int64 = 796134889

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// BackendFile stores the server state as a JSON document.
	BackendFile = "file"

	// BackendSQLite stores the server state in a SQLite database.
	BackendSQLite = "sqlite"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownBackend is returned for an unsupported state backend.
	errUnknownBackend = errors.New("unknown state backend")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(contents), &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	} else if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)

	if isTOML(path) {
		var buf bytes.Buffer

		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	} else {
		data, err = yaml.Marshal(cfg)
	}

	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file holds the shared secret.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.Secret == 0 {
		settings.Secret = DefaultSecret
	}

	switch settings.StateBackend {
	case "":
		settings.StateBackend = BackendFile
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, settings.StateBackend)
	}

	if settings.StateFile == "" {
		settings.StateFile = DefaultStateFilename
		if settings.StateBackend == BackendSQLite {
			settings.StateFile = DefaultDatabaseFilename
		}
	}

	return nil
}

// isTOML reports whether the path should be treated as a TOML document.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
