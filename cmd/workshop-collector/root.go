package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Sternrassler/workshop-collector/pkg/cache"
	"github.com/Sternrassler/workshop-collector/pkg/client"
	"github.com/Sternrassler/workshop-collector/pkg/clock"
	"github.com/Sternrassler/workshop-collector/pkg/export"
	"github.com/Sternrassler/workshop-collector/pkg/logging"
	"github.com/Sternrassler/workshop-collector/pkg/metrics"
	"github.com/Sternrassler/workshop-collector/pkg/pagination"
	"github.com/Sternrassler/workshop-collector/pkg/progress"
	"github.com/Sternrassler/workshop-collector/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// newRootCmd creates the workshop-collector command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workshop-collector",
		Short: "Download every Steam Workshop item of an application as JSON",
		Long: `workshop-collector pages through the Steam Web API
IPublishedFileService/QueryFiles endpoint with a continuation cursor and
saves all published file details of one application to a JSON document.

The API key is read from --key, WORKSHOP_KEY or STEAM_WEB_API. Settings may
also come from WORKSHOP_* variables, .env and .env.local files, or a config
file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCollect,
	}

	registerFlags(cmd.Flags())

	return cmd
}

func runCollect(cmd *cobra.Command, _ []string) error {
	if err := loadEnvFiles(); err != nil {
		return err
	}

	v, err := newViper(cmd.Flags())
	if err != nil {
		return err
	}
	if err := readConfigFile(v); err != nil {
		return err
	}
	s := loadSettings(v)

	logger, err := logging.Setup(logging.Config{
		Level:   logging.LogLevel(s.LogLevel),
		Pretty:  s.LogPretty,
		Output:  cmd.ErrOrStderr(),
		Service: "workshop-collector",
	})
	if err != nil {
		return err
	}

	cfg, err := s.exportOptions().Parse()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if s.MetricsAddr != "" {
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		defer stopMetrics()
		go func() {
			if err := metrics.Serve(metricsCtx, s.MetricsAddr, logging.NewLogger("metrics")); err != nil {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	clientCfg := client.DefaultConfig()
	clientCfg.BaseURL = s.BaseURL
	clientCfg.UserAgent = s.UserAgent
	clientCfg.Timeout = s.Timeout
	clientCfg.Retry.MaxAttempts = s.MaxRetries

	if s.RedisURL != "" {
		redisClient, err := connectRedis(ctx, s.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		clientCfg.Cache = cache.NewManager(redisClient, s.CacheTTL)
		clientCfg.Usage = ratelimit.NewTracker(redisClient, logging.NewLogger("usage"), s.DailyLimit)
		logger.Info().Msg("Connected to Redis")
	}

	steam, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create steam client: %w", err)
	}
	defer steam.Close()

	reporter := progress.NewTerminal(cmd.OutOrStdout(), logging.NewLogger("progress"))
	collector := pagination.NewCollector(steam, reporter, clock.New(), logging.NewLogger("collector"))

	_, err = export.New(collector, logging.NewLogger("export")).Run(ctx, cfg)
	return err
}

// connectRedis parses url and checks the connection.
func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return redisClient, nil
}

// execute runs the command and reports a failure on errOut.
func execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	if err := cmd.ExecuteContext(ctx); err != nil {
		logger := zerolog.New(errOut).With().Timestamp().Logger()
		logger.Error().Err(err).Msg("Command failed")
		return 1
	}
	return 0
}
