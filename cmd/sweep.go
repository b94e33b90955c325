/*
Copyright © 2026 Tim Malone
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
	"github.com/tdmalone/slackemon-sub000/internal/data"
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one battle-timeout and invite-expiry sweep",
	Long: `Settles every active battle whose turn holder has been silent past
the turn timeout, and expires stale invites. Settlement archives the
record, so running the sweep repeatedly is safe. The running service
does this on a timer; this command exists for cron-style deployments.`,
	Run: func(cmd *cobra.Command, args []string) {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

		st, err := openStore(context.Background())
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}

		loader := data.NewLoader(viper.GetStringSlice("data_dir"))
		machine := battle.NewMachine(st, st, st, st, loader, nil, log)

		if err := machine.Sweep(time.Now()); err != nil {
			fmt.Printf("Sweep failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Sweep complete.")
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
