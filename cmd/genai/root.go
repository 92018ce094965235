package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/genaikit/config"
	"github.com/kbukum/genaikit/genai"
	"github.com/kbukum/genaikit/logger"
	"github.com/kbukum/genaikit/observability"
)

const shutdownTimeout = 5 * time.Second

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configFile string
	logLevel   string
	model      string
	jsonOutput bool

	cfg      appConfig
	client   *genai.Client
	shutdown observability.ShutdownFunc
	out      io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Command-line client for the Generative Language API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.OutOrStdout())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./genai.yml or $XDG_CONFIG_HOME/genai/config.yml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVarP(&a.model, "model", "m", "", "model name (default: client.default_model)")
	flags.BoolVar(&a.jsonOutput, "json", false, "print raw JSON responses")

	root.AddCommand(
		newGenerateCmd(a),
		newCountTokensCmd(a),
		newEmbedCmd(a),
		newModelsCmd(a),
		newCacheCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context, out io.Writer) error {
	a.out = out

	var opts []config.LoaderOption
	if a.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.configFile))
	}
	if err := config.LoadConfig(serviceName, &a.cfg, opts...); err != nil {
		return err
	}
	if a.logLevel != "" {
		a.cfg.Logging.Level = a.logLevel
	}
	a.cfg.ApplyDefaults()
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger.Init(a.cfg.Logging)
	log := logger.WithComponent("cli")

	shutdown, err := observability.Setup(ctx, a.cfg.Telemetry)
	a.shutdown = shutdown
	if err != nil {
		return err
	}

	clientOpts := []genai.Option{genai.WithLogger(logger.GetGlobalLogger())}
	if a.cfg.Telemetry.Metrics {
		metrics, err := observability.NewClientMetrics(observability.Meter(serviceName))
		if err != nil {
			return err
		}
		clientOpts = append(clientOpts, genai.WithMetrics(metrics))
	}

	client, err := genai.New(a.cfg.Client, clientOpts...)
	if err != nil {
		return err
	}
	a.client = client
	log.Debug("client ready", logger.Fields("base_url", a.cfg.Client.BaseURL, "api_version", a.cfg.Client.APIVersion))
	return nil
}

func (a *app) teardown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if a.client != nil {
		err = a.client.Close(ctx)
	}
	if a.shutdown != nil {
		if serr := a.shutdown(ctx); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}
