package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"aigateway/internal/platform/config"
	"aigateway/internal/platform/logger"
	rlhandler "aigateway/internal/ratelimit/handler"
	"aigateway/internal/ratelimit/models"
	rlservice "aigateway/internal/ratelimit/service"
)

func resetUsageCmd() *cobra.Command {
	var req rlhandler.SubjectRequest

	cmd := &cobra.Command{
		Use:   "reset-usage",
		Short: "Clear a caller's burst and daily counters in the shared store",
		Long: `Clears both admission windows for one caller, identified by user ID or,
for unauthenticated traffic, by client IP. Requires REDIS_URL or DATABASE_URL;
in-process counters belong to a running server and cannot be reset from here.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			return resetUsage(cmd.Context(), cmd.OutOrStdout(), req.Subject())
		},
	}
	cmd.Flags().StringVar(&req.UserID, "user", "", "user ID to reset")
	cmd.Flags().StringVar(&req.IP, "ip", "", "client IP to reset when no user ID is known")
	return cmd
}

func resetUsage(ctx context.Context, out io.Writer, subject string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	stores := &counterStores{}
	defer stores.Close()
	shared, err := sharedStore(ctx, cfg, stores)
	if err != nil {
		return fmt.Errorf("counter store: %w", err)
	}
	if shared == nil {
		return errors.New("reset-usage needs REDIS_URL or DATABASE_URL")
	}

	svc, err := rlservice.New(shared,
		rlservice.WithLogger(log),
		rlservice.WithLimits(
			models.Limit{Requests: cfg.RateLimit.BurstLimit, Window: cfg.RateLimit.BurstWindow},
			models.Limit{Requests: cfg.RateLimit.DailyLimit, Window: cfg.RateLimit.DailyWindow},
		),
	)
	if err != nil {
		return err
	}
	if err := svc.Reset(ctx, subject); err != nil {
		return err
	}
	usage, err := svc.Usage(ctx, subject)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "reset %s on %s: burst %d/%d, daily %d/%d\n",
		subject, stores.backend,
		usage.Burst.Used, usage.Burst.Limit,
		usage.Quota.Used, usage.Quota.Limit,
	)
	return err
}
