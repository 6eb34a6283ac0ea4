package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sortbot/internal/session"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var rootPath string
	var skipInitial bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Organize new files as they arrive until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd, session.Options{Root: rootPath, Watch: true})
			if err != nil {
				return err
			}
			defer sess.Close()

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return sess.Watch(signalCtx, session.WatchOptions{InitialScan: !skipInitial})
		},
	}

	cmd.Flags().StringVarP(&rootPath, "path", "p", "", "Directory to watch (defaults to paths.root)")
	cmd.Flags().BoolVar(&skipInitial, "no-initial-scan", false, "Do not organize files already present at startup")
	return cmd
}
