package cmd

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"a11yfix.dev/pkg/a11yfix/internal/adapter"
	"a11yfix.dev/pkg/a11yfix/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "a11yfix"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "A11YFIX"

	oracleProviderKey        = "oracle.provider"
	oracleModelKey           = "oracle.model"
	oracleAPIKeysKey         = "oracle.api_keys"
	oracleAPIKeyEnvKey       = "oracle.api_key_env"
	oracleBaseURLKey         = "oracle.base_url"
	oracleTimeoutKey         = "oracle.timeout"
	oracleTemperatureKey     = "oracle.temperature"
	oracleMaxOutputTokensKey = "oracle.max_output_tokens"

	engineScopeRadiusKey  = "engine.scope_radius"
	engineMaxAttemptsKey  = "engine.max_attempts"
	engineRetryBackoffKey = "engine.retry_backoff"
	engineLanguageKey     = "engine.language"
	engineCacheSizeKey    = "engine.cache_size"

	serveParallelConfigKey = "serve.parallel"
	serveParallelFlagName  = "parallel"

	defaultOracleProvider  = adapter.ProviderGemini
	defaultOracleModel     = adapter.DefaultGeminiModel
	defaultOracleAPIKeyEnv = "GEMINI_API_KEY"
	defaultServeParallel   = 4

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".a11yfix.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return
		}

		slog.Warn("Failed to read config file", "file", configFileName, "error", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(configVersionKey, currentConfigVersion)

	v.SetDefault(oracleProviderKey, defaultOracleProvider)
	v.SetDefault(oracleModelKey, defaultOracleModel)
	v.SetDefault(oracleAPIKeysKey, []string{})
	v.SetDefault(oracleAPIKeyEnvKey, defaultOracleAPIKeyEnv)
	v.SetDefault(oracleBaseURLKey, "")
	v.SetDefault(oracleTimeoutKey, int64(domain.DefaultOracleTimeout.Seconds()))
	v.SetDefault(oracleTemperatureKey, float64(domain.DefaultTemperature))
	v.SetDefault(oracleMaxOutputTokensKey, domain.DefaultMaxOutputTokens)

	v.SetDefault(engineScopeRadiusKey, domain.DefaultScopeRadius)
	v.SetDefault(engineMaxAttemptsKey, domain.DefaultMaxAttempts)
	v.SetDefault(engineRetryBackoffKey, domain.DefaultRetryBackoff.Milliseconds())
	v.SetDefault(engineLanguageKey, "")
	v.SetDefault(engineCacheSizeKey, adapter.DefaultReadCacheSize)

	v.SetDefault(serveParallelConfigKey, defaultServeParallel)

	// Logging defaults (used by config/env and as fallbacks for flags).
	v.SetDefault(logFilenameKey, defaultLogFilename)
	v.SetDefault(logLevelKey, defaultLogLevel)
	v.SetDefault(logVerboseKey, defaultLogVerbose)
	v.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(logCompressKey, defaultLogCompress)
}

// oracleConfig reads the oracle settings. When no keys are configured the
// key is taken from the environment variable named by oracle.api_key_env.
func oracleConfig(v *viper.Viper) adapter.OracleConfig {
	keys := v.GetStringSlice(oracleAPIKeysKey)

	if len(keys) == 0 {
		if envName := strings.TrimSpace(v.GetString(oracleAPIKeyEnvKey)); envName != "" {
			if key := strings.TrimSpace(os.Getenv(envName)); key != "" {
				keys = []string{key}
			}
		}
	}

	return adapter.OracleConfig{
		Provider: v.GetString(oracleProviderKey),
		Model:    v.GetString(oracleModelKey),
		APIKeys:  keys,
		BaseURL:  v.GetString(oracleBaseURLKey),
		Timeout:  time.Duration(v.GetInt64(oracleTimeoutKey)) * time.Second,
	}
}

func synthesizerOptions(v *viper.Viper) domain.SynthesizerOptions {
	return domain.SynthesizerOptions{
		Timeout:         time.Duration(v.GetInt64(oracleTimeoutKey)) * time.Second,
		Temperature:     float32(v.GetFloat64(oracleTemperatureKey)),
		MaxOutputTokens: v.GetInt(oracleMaxOutputTokensKey),
	}
}

func orchestratorOptions(v *viper.Viper) domain.OrchestratorOptions {
	return domain.OrchestratorOptions{
		MaxAttempts:  v.GetInt(engineMaxAttemptsKey),
		RetryBackoff: time.Duration(v.GetInt64(engineRetryBackoffKey)) * time.Millisecond,
		Language:     v.GetString(engineLanguageKey),
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger installs the global slog logger writing to a rotating file.
//
// By default it logs at the configured level; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose || viper.GetBool(logVerboseKey) {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
