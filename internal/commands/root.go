package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/iotmarket/config"
	"github.com/kbukum/iotmarket/version"
)

// ServiceName is used to locate config.yml and .env files.
const ServiceName = config.DefaultName

type rootFlags struct {
	configFile string
	envFile    string
}

// NewRootCommand builds the iotmarket command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "iotmarket",
		Short: "IoT marketplace API host",
		Long: `iotmarket resolves its listen settings, attaches the memory and mongo
datasources, registers the identity and feed models and serves them over REST.`,
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default: search ./config.yml, ./config/config.yml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "env file loaded before IOTMARKET_* overrides (default: search ./.env)")

	root.AddCommand(newServeCommand(flags))
	root.AddCommand(newConfigCommand(flags))
	root.AddCommand(newVersionCommand())
	root.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)
	return root
}

// Execute runs the root command with SIGINT/SIGTERM cancelling its context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func (f *rootFlags) load() (*config.AppConfig, error) {
	var opts []config.LoaderOption
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}

	cfg := &config.AppConfig{}
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	// Without a config file or IOTMARKET_NAME the CLI boots as config.Default() would.
	if cfg.Name == "" {
		cfg.Name = config.DefaultName
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
