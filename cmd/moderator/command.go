package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/viant/moderation"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/httpapi"
)

type cli struct {
	configURL string
	out       io.Writer
}

func newRootCommand() *cobra.Command {
	c := &cli{out: os.Stdout}
	root := &cobra.Command{
		Use:           "moderator",
		Short:         "Moderated action pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.configURL, "config", "c", "", "configuration URL (file path, s3://, gs://, ...)")
	root.AddCommand(c.serveCommand(), c.pendingCommand(), c.approveCommand(), c.denyCommand(), c.purgeCommand())
	return root
}

func (c *cli) loadConfig(ctx context.Context) (*moderation.Config, error) {
	if c.configURL == "" {
		return moderation.DefaultConfig(), nil
	}
	return moderation.LoadConfig(ctx, nil, c.configURL)
}

func (c *cli) service(ctx context.Context) (*moderation.Service, error) {
	config, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return moderation.New(ctx, moderation.WithConfig(config))
}

func (c *cli) print(v interface{}) error {
	encoder := json.NewEncoder(c.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, notification workers and housekeeping",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv, err := c.service(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = srv.Shutdown(context.Background()) }()
			return serve(ctx, srv)
		},
	}
}

func serve(ctx context.Context, srv *moderation.Service) error {
	config := srv.Config()
	logger := srv.Logger()
	if err := srv.Start(ctx); err != nil {
		return err
	}

	httpConfig := httpapi.DefaultConfig()
	if config.HTTP.Addr != "" {
		httpConfig.Addr = config.HTTP.Addr
	}
	server := httpapi.New(httpConfig, srv,
		httpapi.WithIdentity(srv.Identity()),
		httpapi.WithMetricsHandler(srv.Metrics().Handler()),
		httpapi.WithLogger(logger))

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return server.ListenAndServe(ctx) })
	if schedule := config.Housekeeping.Schedule; schedule != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(schedule, func() {
			if _, err := srv.Purge(ctx); err != nil {
				logger.WarnContext(ctx, "housekeeping purge failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid housekeeping schedule %q: %w", schedule, err)
		}
		group.Go(func() error {
			scheduler.Start()
			<-ctx.Done()
			<-scheduler.Stop().Done()
			return nil
		})
	}
	return group.Wait()
}

func (c *cli) pendingCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List items awaiting review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var actionKind model.ActionKind
			if kind != "" {
				parsed, err := model.ParseKind(kind)
				if err != nil {
					return err
				}
				actionKind = parsed
			}
			srv, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = srv.Shutdown(cmd.Context()) }()
			items, err := srv.ListPending(cmd.Context(), actionKind)
			if err != nil {
				return err
			}
			return c.print(items)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "action kind filter")
	return cmd
}

func (c *cli) approveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <item-id>",
		Short: "Approve an item and apply its effects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = srv.Shutdown(cmd.Context()) }()
			decision, err := srv.Approve(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s", model.MessageOf(err))
			}
			return c.print(decision)
		},
	}
}

func (c *cli) denyCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "deny <item-id>",
		Short: "Deny an item with a reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = srv.Shutdown(cmd.Context()) }()
			decision, err := srv.Deny(cmd.Context(), args[0], reason)
			if err != nil {
				return fmt.Errorf("%s", model.MessageOf(err))
			}
			return c.print(decision)
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "denial reason shown to the requester")
	return cmd
}

func (c *cli) purgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove expired challenges and lapsed cooldowns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = srv.Shutdown(cmd.Context()) }()
			removed, err := srv.Purge(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "removed %d records\n", removed)
			return err
		},
	}
}
