package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/lathrop-navisite/slack-exporter/internal/archive"
	"github.com/lathrop-navisite/slack-exporter/internal/domain"
	"github.com/lathrop-navisite/slack-exporter/internal/exporter"
	logmask "github.com/lathrop-navisite/slack-exporter/internal/log"
	"github.com/lathrop-navisite/slack-exporter/internal/pkg/config"
	"github.com/lathrop-navisite/slack-exporter/internal/slackapi"
)

// Exit codes, one per failure class.
const (
	exitFailure     = 1 // any unclassified error
	exitConfig      = 2 // bad configuration or missing SLACK_BOT_TOKEN
	exitAuth        = 3 // credential rejected by the API
	exitRateLimited = 4 // throttled by the API
	exitWrite       = 5 // local filesystem failure
)

// configError marks configuration problems so they map to exitConfig.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		outputDir  string
		channels   []string
		verbose    bool
		onlyEmojis bool
	)

	cmd := &cobra.Command{
		Use:   "slack-exporter",
		Short: "Export Slack conversations, users and emoji to a dated archive",
		Long: `slack-exporter performs a full export of every conversation the
credential can access: public and private channels, DMs and group DMs,
plus the user list and custom emoji. Output lands under a per-run dated
directory as verbatim JSON.

The credential is read from the SLACK_BOT_TOKEN environment variable
(a .env file in the working directory is honored). The token needs the
channels:history, channels:read, groups:read, im:read, mpim:read,
users:read and emoji:read scopes. Any API or filesystem error aborts
the run; files written before the failure are kept.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return &configError{err}
			}
			if outputDir != "" {
				cfg.Export.Directory = outputDir
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return &configError{err}
			}

			opts := exporter.Options{
				Channels:      channels,
				DownloadFiles: cfg.Export.DownloadFiles,
				DownloadEmoji: cfg.Export.DownloadEmoji,
				OnlyEmoji:     onlyEmojis,
			}
			// Emoji-only mode is the emoji dump; it always fetches the
			// images regardless of the download_emoji setting.
			if onlyEmojis {
				opts.DownloadEmoji = true
			}
			return run(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yml", "path to the YAML config file")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "archive root directory (overrides config)")
	cmd.Flags().StringSliceVar(&channels, "channels", nil, "channel names to export (default: everything)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().BoolVar(&onlyEmojis, "only-emojis", false, "export only the custom emoji index and images")
	return cmd
}

// run wires the configured components together and executes the export.
func run(cmd *cobra.Command, cfg *config.Config, opts exporter.Options) error {
	logger := newLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	clientOpts := []slackapi.Option{
		slackapi.WithLogger(logger),
		slackapi.WithConversationTypes(cfg.Slack.ConversationTypes),
		slackapi.WithPageSize(cfg.Slack.PageSize),
		slackapi.WithRequestDelay(cfg.Slack.RequestDelay.Std()),
		slackapi.WithHTTPClient(&http.Client{Timeout: cfg.Slack.RequestTimeout.Std()}),
	}
	if cfg.Slack.APIURL != "" {
		clientOpts = append(clientOpts, slackapi.WithAPIURL(cfg.Slack.APIURL))
	}
	client := slackapi.New(cfg.Slack.Token, clientOpts...)

	arch := archive.New(cfg.Export.Directory, archive.WithPrettyJSON(cfg.Export.PrettyJSON))
	exp := exporter.New(client, arch, opts, exporter.WithLogger(logger))

	sum, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("Archive written", "dir", arch.Dir(), "run_id", sum.RunID)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return logmask.NewMaskedLogger(handler)
}

func exitCode(err error) int {
	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return exitConfig
	}
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return exitAuth
	}
	var rlErr *domain.RateLimitError
	if errors.As(err, &rlErr) {
		return exitRateLimited
	}
	var writeErr *domain.WriteError
	if errors.As(err, &writeErr) {
		return exitWrite
	}
	return exitFailure
}
