package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/reecen30/BotConnectorAPI/internal/config"
	"github.com/reecen30/BotConnectorAPI/internal/directline"
	"github.com/reecen30/BotConnectorAPI/internal/gateway"
	"github.com/reecen30/BotConnectorAPI/internal/logging"
	"github.com/reecen30/BotConnectorAPI/internal/relay"
	"github.com/reecen30/BotConnectorAPI/internal/session"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if logLevel == "" && cfg.Logging.Level != "" {
				log = logging.New(nil, cfg.Logging.Level)
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			identity := directline.Identity{
				Name:          cfg.Bot.Name,
				ID:            cfg.Bot.ID,
				TenantID:      cfg.Bot.TenantID,
				TokenEndpoint: cfg.Bot.TokenEndpoint,
			}
			tokens := directline.NewTokenProvider(identity, log)
			transport := directline.NewClient(cfg.DirectLine.BaseURL, log)
			sessions := session.NewMemoryStore()
			extractor := relay.NewExtractor(cfg.Relay.ExtractionMode)

			orchestrator := relay.NewOrchestrator(tokens, transport, sessions, extractor, relay.Options{
				BotName:                cfg.Bot.Name,
				EndConversationMessage: cfg.Bot.EndConversationMessage,
				SubmitTextKey:          cfg.Relay.SubmitTextKey,
				NoReplyText:            cfg.Relay.NoReplyText,
				PollInitial:            time.Duration(cfg.DirectLine.PollInitialMs) * time.Millisecond,
				PollMax:                time.Duration(cfg.DirectLine.PollMaxMs) * time.Millisecond,
				PollDeadline:           time.Duration(cfg.DirectLine.PollDeadlineMs) * time.Millisecond,
				Stream:                 cfg.DirectLine.Stream,
			}, log)

			log.Info().
				Str("bot", cfg.Bot.Name).
				Str("mode", cfg.Relay.ExtractionMode).
				Bool("stream", cfg.DirectLine.Stream).
				Msg("relay configured")

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg, log, orchestrator)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override webhook server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback)")

	return cmd
}
