package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kamusis/modelpub/internal/config"
	"github.com/kamusis/modelpub/internal/logging"
)

var (
	appViper  = viper.New()
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "modelpub",
	Short: "modelpub publishes analysis models to a BI server",
	Long: `Publish report artifacts, Mondrian schemas, metadata domains and
their datasources to a Pentaho-compatible BI server, and keep local
datasource definitions in sync with the server's connections.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ~/.modelpub/config.yaml)")
	flags.StringP("server", "s", "", "Server profile to use (default: current_server)")
	flags.Duration("timeout", config.DefaultTimeout, "HTTP timeout per request")
	flags.String("staging-dir", config.DefaultStagingDir, "Directory schemas are staged in before upload")
	flags.String("log-level", "warn", "Log level: trace, debug, info, warn, error")
	flags.String("log-format", "auto", "Log format: auto, console, json")
	flags.Bool("plain", false, "Use plain ASCII output instead of Unicode box-drawing characters.")
	flags.BoolP("yes", "y", false, "Answer yes to every confirmation prompt.")

	_ = appViper.BindPFlag("config", flags.Lookup("config"))
	_ = appViper.BindPFlag("current_server", flags.Lookup("server"))
	_ = appViper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = appViper.BindPFlag("staging_dir", flags.Lookup("staging-dir"))
	_ = appViper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = appViper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = appViper.BindPFlag("output.plain", flags.Lookup("plain"))
}

func initConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(appViper)
	if err != nil {
		return err
	}
	appConfig = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logging.Configure(logCfg)

	logging.Default().Debug().
		Str("config_file", cfg.ConfigFile).
		Str("server", cfg.CurrentServer).
		Dur("timeout", cfg.Timeout).
		Msg("configuration loaded")
	return nil
}
