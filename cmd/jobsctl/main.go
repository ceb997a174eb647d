package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kedai-dimesem/storefront/cmd/jobsctl/cli"
)

func main() {
	if err := makeRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jobsctl:", err)
		os.Exit(1)
	}
}

func makeRootCommand() *cobra.Command {
	var redisAddr string
	var helpers *cli.JobsCLI

	command := &cobra.Command{
		Use:   "jobsctl [command] (flags)",
		Short: "jobsctl inspects and feeds the storefront background job queue.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			helpers = cli.NewJobsCLI(redisAddr)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if helpers == nil {
				return nil
			}
			return helpers.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	command.PersistentFlags().StringVar(&redisAddr, "redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "Redis address of the job queue")

	get := func() *cli.JobsCLI { return helpers }
	command.AddCommand(makeTriggerCommand(get))
	command.AddCommand(makeResendCommand(get))
	command.AddCommand(makeInspectCommand(get))
	command.AddCommand(makeRetriesCommand(get))
	return command
}

func makeTriggerCommand(helpers func() *cli.JobsCLI) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <job>",
		Short: "Enqueue a job now (supported: " + cli.JobStatsWarmup + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := helpers().Trigger(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", info.Type, info.ID)
			return nil
		},
	}
}

func makeResendCommand(helpers func() *cli.JobsCLI) *cobra.Command {
	var in cli.Confirmation
	command := &cobra.Command{
		Use:   "resend-confirmation",
		Short: "Enqueue the order confirmation mail for a transaction again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := helpers().ResendConfirmation(cmdContext(cmd), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s for %s (%s)\n", info.Type, in.Code, info.ID)
			return nil
		},
	}
	command.Flags().StringVar(&in.Code, "code", "", "transaction code, e.g. TRX-1717236000000-42")
	command.Flags().StringVar(&in.CustomerName, "name", "", "customer name")
	command.Flags().StringVar(&in.CustomerEmail, "email", "", "customer email")
	command.Flags().StringVar(&in.Total, "total", "0", "order total in rupiah")
	return command
}

func makeInspectCommand(helpers func() *cli.JobsCLI) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the state of the default queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := helpers().InspectQueue(cmdContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
			return nil
		},
	}
}

func makeRetriesCommand(helpers func() *cli.JobsCLI) *cobra.Command {
	var size int
	command := &cobra.Command{
		Use:   "retries",
		Short: "List tasks waiting for a retry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := helpers().ListRetry(cmdContext(cmd), size)
			if err != nil {
				return err
			}
			for _, t := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tretried=%d\t%s\n", t.ID, t.Type, t.Retried, t.LastErr)
			}
			return nil
		},
	}
	command.Flags().IntVar(&size, "size", 10, "page size")
	return command
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
