package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/fsutil"
)

const (
	// AppName is the application name used for config files and directories
	AppName = "go-oozie-composer"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "OOZIE_COMPOSER"
)

// AppConfig holds the application configuration
type AppConfig struct {
	// Core settings
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format" default:"human" validate:"oneof=human json"`
	LogFile   string `mapstructure:"log_file"`

	// Output settings for compiled documents and exports
	Output struct {
		Indent      string `mapstructure:"indent" default:"  "`
		Format      string `mapstructure:"format" default:"json" validate:"oneof=json yaml yml plist"`
		Compression string `mapstructure:"compression" default:"gzip" validate:"oneof=none tar gzip gz tgz bzip2 bz2 tbz2 xz txz"`
		PlistFormat string `mapstructure:"plist_format" default:"xml" validate:"oneof=xml binary openstep gnustep"`
	} `mapstructure:"output"`

	// Identifier generation for unnamed nodes
	Identifiers struct {
		// Deterministic numbers unnamed nodes from a counter instead of
		// random tokens
		Deterministic bool `mapstructure:"deterministic"`
	} `mapstructure:"identifiers"`

	// Submission defaults
	Submission struct {
		User string `mapstructure:"user"`
	} `mapstructure:"submission"`
}

// flagKeys maps CLI flag names onto configuration keys
var flagKeys = map[string]string{
	"debug":         "debug",
	"log-format":    "log_format",
	"log-file":      "log_file",
	"deterministic": "identifiers.deterministic",
	"indent":        "output.indent",
	"format":        "output.format",
	"compression":   "output.compression",
	"plist-format":  "output.plist_format",
	"user":          "submission.user",
}

// Global variables
var (
	// Global configuration instance
	Instance AppConfig

	// Status indicators
	ConfigLoaded bool
	ConfigFile   string

	mu sync.Mutex
)

// Initialize loads the configuration into Instance. Values are resolved from
// flags, then OOZIE_COMPOSER_* environment variables, then the config file,
// then defaults. flags may be nil.
func Initialize(cfgFile string, flags *pflag.FlagSet) error {
	cfg, used, err := Load(cfgFile, flags)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	Instance = *cfg
	ConfigFile = used
	ConfigLoaded = used != ""

	if Instance.LogFile != "" {
		_ = fsutil.CreateDirIfNotExists(filepath.Dir(Instance.LogFile))
	}
	return nil
}

// Load resolves a configuration without touching Instance and reports the
// config file it read, if any.
func Load(cfgFile string, flags *pflag.FlagSet) (*AppConfig, string, error) {
	v := viper.New()

	if err := setDefaults(v); err != nil {
		return nil, "", err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		addSearchPaths(v)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", fmt.Errorf("%w: binding flag %s: %s", errors.ErrConfigInvalid, name, err.Error())
				}
			}
		}
	}

	used := ""
	if readErr := v.ReadInConfig(); readErr != nil {
		if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, "", fmt.Errorf("%w: %s", errors.ErrConfigParseError, readErr.Error())
		}
	} else {
		used = v.ConfigFileUsed()
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", fmt.Errorf("%w: %s", errors.ErrConfigParseError, err.Error())
	}
	if err := Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, used, nil
}

// Validate checks a resolved configuration
func Validate(cfg *AppConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrConfigInvalid, err.Error())
	}
	return nil
}

// setDefaults registers the struct tag defaults with viper so that every key
// is known to Unmarshal and AutomaticEnv.
func setDefaults(v *viper.Viper) error {
	var d AppConfig
	if err := defaults.Set(&d); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrConfigInvalid, err.Error())
	}

	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("output.indent", d.Output.Indent)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.compression", d.Output.Compression)
	v.SetDefault("output.plist_format", d.Output.PlistFormat)
	v.SetDefault("identifiers.deterministic", d.Identifiers.Deterministic)
	v.SetDefault("submission.user", d.Submission.User)
	return nil
}

// addSearchPaths adds config search paths
func addSearchPaths(v *viper.Viper) {
	// Always check current directory first
	v.AddConfigPath(".")

	// In CI/Pipeline, only use current directory and explicit CI directories
	if isRunningInPipeline() {
		v.AddConfigPath("/etc/" + AppName)
		return
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, AppName))
	}
	v.AddConfigPath("/etc/" + AppName)
}

// SaveConfig writes the current configuration to a file
func SaveConfig(filePath string) error {
	saveV := viper.New()
	saveV.SetConfigFile(filePath)

	mu.Lock()
	settings := map[string]interface{}{
		"debug":                     Instance.Debug,
		"log_format":                Instance.LogFormat,
		"log_file":                  Instance.LogFile,
		"output.indent":             Instance.Output.Indent,
		"output.format":             Instance.Output.Format,
		"output.compression":        Instance.Output.Compression,
		"output.plist_format":       Instance.Output.PlistFormat,
		"identifiers.deterministic": Instance.Identifiers.Deterministic,
		"submission.user":           Instance.Submission.User,
	}
	mu.Unlock()

	for k, val := range settings {
		saveV.Set(k, val)
	}

	if err := fsutil.CreateDirIfNotExists(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return saveV.WriteConfig()
}

// isRunningInPipeline returns true if running in a CI/CD pipeline environment
func isRunningInPipeline() bool {
	return os.Getenv("CI") == "true" ||
		os.Getenv("PIPELINE") == "true" ||
		os.Getenv("GITHUB_ACTIONS") == "true" ||
		os.Getenv("JENKINS_URL") != ""
}
