package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is loaded once at
// startup and threaded through constructors; nothing mutates it afterwards.
type Config struct {
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Prepare   PrepareConfig   `yaml:"prepare" mapstructure:"prepare"`
	Git       GitConfig       `yaml:"git" mapstructure:"git"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// OracleConfig configures the default Ollama-compatible generation backend.
type OracleConfig struct {
	Backend     string  `yaml:"backend" mapstructure:"backend"` // "ollama" or "anthropic"
	Host        string  `yaml:"host" mapstructure:"host"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Attempts    int     `yaml:"attempts" mapstructure:"attempts"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	KeepAlive   string  `yaml:"keep_alive" mapstructure:"keep_alive"`
	NumPredict  int     `yaml:"num_predict" mapstructure:"num_predict"`
}

// AnthropicConfig holds Anthropic API settings for the alternative backend.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DataConfig locates the working set and its companion stores.
type DataConfig struct {
	WorkingSet   string `yaml:"working_set" mapstructure:"working_set"`
	RawTruth     string `yaml:"raw_truth" mapstructure:"raw_truth"`
	BackupDir    string `yaml:"backup_dir" mapstructure:"backup_dir"`
	FailuresFile string `yaml:"failures_file" mapstructure:"failures_file"`
	JournalDir   string `yaml:"journal_dir" mapstructure:"journal_dir"`
	DiffCache    string `yaml:"diff_cache" mapstructure:"diff_cache"`
}

// PrepareConfig bounds diff preparation for the oracle's context window.
type PrepareConfig struct {
	InlineBudget   int    `yaml:"inline_budget" mapstructure:"inline_budget"`
	PerFileLineCap int    `yaml:"per_file_line_cap" mapstructure:"per_file_line_cap"`
	ReduceAt       int    `yaml:"reduce_at" mapstructure:"reduce_at"`
	OutOfBandAt    int    `yaml:"out_of_band_at" mapstructure:"out_of_band_at"`
	TempDiffDir    string `yaml:"temp_diff_dir" mapstructure:"temp_diff_dir"`
}

// GitConfig configures local repository mirrors for diff extraction.
type GitConfig struct {
	WorkDir    string `yaml:"work_dir" mapstructure:"work_dir"`
	RemoteBase string `yaml:"remote_base" mapstructure:"remote_base"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	PauseSecs int `yaml:"pause_secs" mapstructure:"pause_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PURITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("oracle.backend", "ollama")
	v.SetDefault("oracle.host", "http://localhost:11434")
	v.SetDefault("oracle.model", "qwen2.5-coder:14b")
	v.SetDefault("oracle.attempts", 3)
	v.SetDefault("oracle.temperature", 0.1)
	v.SetDefault("oracle.keep_alive", "10m")
	v.SetDefault("oracle.num_predict", 800)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("data.working_set", "data/purity_working_set.csv")
	v.SetDefault("data.raw_truth", "data/puritychecker_detailed_classification.csv")
	v.SetDefault("data.backup_dir", "data/backups")
	v.SetDefault("data.failures_file", "data/json_failures.jsonl")
	v.SetDefault("data.journal_dir", "data/sessions")
	v.SetDefault("data.diff_cache", "data/diffcache.db")
	v.SetDefault("prepare.inline_budget", 100000)
	v.SetDefault("prepare.per_file_line_cap", 400)
	v.SetDefault("prepare.reduce_at", 60000)
	v.SetDefault("prepare.out_of_band_at", 100000)
	v.SetDefault("prepare.temp_diff_dir", "temp_diffs")
	v.SetDefault("git.work_dir", "repos")
	v.SetDefault("git.remote_base", "https://github.com/")
	v.SetDefault("batch.pause_secs", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
