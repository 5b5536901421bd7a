package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/upload"
)

const appDirName = "hr-recorder"

type Config struct {
	ChromePath     string // empty lets rod resolve or download a browser
	Headless       bool
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	DebugDir       string // debug snapshots, written only when a call id is given
	StateDir       string // one state file per running job
	LogFormat      string // "console" or "json"

	Credentials meeting.Credentials
	S3          upload.Config

	// Path of the config file that was read, empty when none.
	Source string
}

type fileConfig struct {
	ChromePath     string        `toml:"chrome_path"`
	Headless       *bool         `toml:"headless"`
	UserAgent      string        `toml:"user_agent"`
	ViewportWidth  int           `toml:"viewport_width"`
	ViewportHeight int           `toml:"viewport_height"`
	DebugDir       string        `toml:"debug_dir"`
	StateDir       string        `toml:"state_dir"`
	LogFormat      string        `toml:"log_format"`
	S3             upload.Config `toml:"s3"`
}

// Load builds the configuration from defaults, the optional config file,
// a .env in the working directory and the environment, in that order.
func Load() (*Config, error) {
	// Already-set variables win over .env.
	_ = godotenv.Load()

	cfg := defaults()

	if configPath := configFilePath(); configPath != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(configPath, &fc); err != nil {
			return nil, err
		}
		cfg.apply(fc)
		cfg.Source = configPath
	}

	applyEnvOverrides(cfg)

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Headless:  true,
		DebugDir:  filepath.Join(os.TempDir(), appDirName, "debug"),
		StateDir:  defaultStateDir(),
		LogFormat: "console",
		S3:        upload.Config{Region: "us-east-1", ForcePathStyle: true},
	}
}

func (cfg *Config) apply(fc fileConfig) {
	if fc.ChromePath != "" {
		cfg.ChromePath = expandTilde(fc.ChromePath)
	}
	if fc.Headless != nil {
		cfg.Headless = *fc.Headless
	}
	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	if fc.ViewportWidth > 0 {
		cfg.ViewportWidth = fc.ViewportWidth
	}
	if fc.ViewportHeight > 0 {
		cfg.ViewportHeight = fc.ViewportHeight
	}
	if fc.DebugDir != "" {
		cfg.DebugDir = expandTilde(fc.DebugDir)
	}
	if fc.StateDir != "" {
		cfg.StateDir = expandTilde(fc.StateDir)
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}

	if fc.S3.Endpoint != "" {
		s3 := fc.S3
		if s3.Region == "" {
			s3.Region = cfg.S3.Region
		}
		cfg.S3 = s3
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHROME_EXECUTABLE_PATH"); v != "" {
		cfg.ChromePath = expandTilde(v)
	}
	cfg.Headless = getEnvBool("RECORDER_HEADLESS", cfg.Headless)
	if v := os.Getenv("RECORDER_DEBUG_DIR"); v != "" {
		cfg.DebugDir = expandTilde(v)
	}
	if v := os.Getenv("RECORDER_STATE_DIR"); v != "" {
		cfg.StateDir = expandTilde(v)
	}
	if v := os.Getenv("RECORDER_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	cfg.Credentials = meeting.Credentials{
		Email:    os.Getenv("GOOGLE_EMAIL"),
		Password: os.Getenv("GOOGLE_PASSWORD"),
	}

	cfg.S3.Endpoint = getEnv("RECORDER_S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.Bucket = getEnv("RECORDER_S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Region = getEnv("RECORDER_S3_REGION", cfg.S3.Region)
	cfg.S3.AccessKey = getEnv("RECORDER_S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = getEnv("RECORDER_S3_SECRET_KEY", cfg.S3.SecretKey)
	cfg.S3.SessionToken = getEnv("RECORDER_S3_SESSION_TOKEN", cfg.S3.SessionToken)
	cfg.S3.Prefix = getEnv("RECORDER_S3_PREFIX", cfg.S3.Prefix)
	cfg.S3.UseSSL = getEnvBool("RECORDER_S3_USE_SSL", cfg.S3.UseSSL)
	cfg.S3.ForcePathStyle = getEnvBool("RECORDER_S3_FORCE_PATH_STYLE", cfg.S3.ForcePathStyle)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool ignores values strconv.ParseBool rejects.
func getEnvBool(key string, defaultValue bool) bool {
	if str := os.Getenv(key); str != "" {
		if value, err := strconv.ParseBool(str); err == nil {
			return value
		}
	}
	return defaultValue
}

// FilePath is where Load looks for the config file, whether or not it exists.
func FilePath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName, "config.toml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", appDirName, "config.toml")
	}
	return ""
}

func configFilePath() string {
	path := FilePath()
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", appDirName)
	}
	return filepath.Join(os.TempDir(), appDirName, "state")
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
