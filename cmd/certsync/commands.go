package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/doitintl/hello/offset-checkout/logger"
	"github.com/doitintl/hello/offset-checkout/poller"
)

func pollerConfig(v *viper.Viper) poller.Config {
	cfg := poller.DefaultConfig()

	if n := v.GetInt("max_attempts"); n > 0 {
		cfg.MaxAttempts = n
	}

	return cfg
}

func watchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Render the missing artifacts of purchases and donations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owners := make([]owner, 0)
			for _, id := range v.GetStringSlice("purchase") {
				owners = append(owners, owner{purchaseID: id})
			}

			for _, id := range v.GetStringSlice("donation") {
				owners = append(owners, owner{donationID: id})
			}

			if len(owners) == 0 {
				return errors.New("at least one --purchase or --donation is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ctx, cancel := context.WithTimeout(ctx, v.GetDuration("deadline"))
			defer cancel()

			client := newClient(v)
			p := poller.New(logger.FromContext, client, pollerConfig(v))

			w := &watcher{
				lister:   client,
				poller:   p,
				interval: v.GetDuration("interval"),
			}

			runErr := w.run(ctx, owners)
			stopErr := p.Stop()

			if err := printStatuses(cmd.OutOrStdout(), p.Snapshot()); err != nil {
				return err
			}

			if runErr != nil {
				return runErr
			}

			return stopErr
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("purchase", nil, "purchase id, repeatable")
	flags.StringSlice("donation", nil, "donation id, repeatable")
	flags.Duration("interval", 10*time.Second, "how often certificates are listed again")
	flags.Duration("deadline", 3*time.Minute, "give up watching after this long")
	flags.Int("max-attempts", 0, "render attempts per certificate (default 3)")

	_ = v.BindPFlag("purchase", flags.Lookup("purchase"))
	_ = v.BindPFlag("donation", flags.Lookup("donation"))
	_ = v.BindPFlag("interval", flags.Lookup("interval"))
	_ = v.BindPFlag("deadline", flags.Lookup("deadline"))
	_ = v.BindPFlag("max_attempts", flags.Lookup("max-attempts"))

	return cmd
}

func verifyCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <certificate-number>",
		Short: "Look up a certificate number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient(v).Verify(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(result)
		},
	}
}

// retryCmd makes one more render attempt for a certificate the poller gave up on.
func retryCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <certificate-id>",
		Short: "Make one more render attempt for a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pollerConfig(v)
			cfg.MaxAttempts = 1

			p := poller.New(logger.FromContext, newClient(v), cfg)
			p.Observe(args[0], "")

			if err := p.WaitIdle(cmd.Context()); err != nil {
				return err
			}

			stopErr := p.Stop()

			if err := printStatuses(cmd.OutOrStdout(), p.Snapshot()); err != nil {
				return err
			}

			return stopErr
		},
	}
}
