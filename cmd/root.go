package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pixie/internal/processor"
)

// Settings are the defaults read from pixie.yaml and PIXIE_* variables.
// Explicit command flags always win.
type Settings struct {
	// Verbose enables debug logging (default: false)
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
	// MaxFileSize largest input in MB, 0 for no limit (default: 0)
	MaxFileSize int64 `mapstructure:"max-file-size" yaml:"max-file-size"`
	// Quality JPEG/WebP quality (default: 85)
	Quality int `mapstructure:"quality" yaml:"quality"`
	// Algorithm resize filter name (default: lanczos3)
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
	// Threads batch workers, 0 for one per CPU (default: 0)
	Threads int `mapstructure:"threads" yaml:"threads"`
}

var (
	configFile string
	settings   Settings
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "pixie",
	Short:         "pixie - fast image resizer and optimizer",
	Long:          "pixie resizes, recompresses and converts images, one at a time or a whole folder in parallel.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		logger = getLogger(settings.Verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	viper.SetDefault("quality", 85)
	viper.SetDefault("algorithm", processor.Lanczos3.String())
	viper.SetDefault("threads", 0)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file path (default ./pixie.yaml)")

	flags.BoolP("verbose", "v", false, "enable verbose logging")
	bindPFlag(flags, "verbose")
	flags.Int64("max-file-size", 0, "skip inputs larger than this many MB (0 = no limit)")
	bindPFlag(flags, "max-file-size")
}

func initConfig() error {
	v := viper.GetViper()
	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pixie")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.SetEnvPrefix("PIXIE")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := v.Unmarshal(&settings); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if settings.MaxFileSize < 0 {
		return fmt.Errorf("%w: max-file-size must not be negative", processor.ErrInvalidParameter)
	}
	return nil
}

func getLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: verbose,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func bindPFlag(flags *pflag.FlagSet, key string) {
	if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
		panic(err)
	}
}
