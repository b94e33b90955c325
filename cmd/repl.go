/*
Copyright © 2026 Tim Malone
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
	"github.com/tdmalone/slackemon-sub000/internal/chat"
	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/random"
	"github.com/tdmalone/slackemon-sub000/internal/rules"
)

var replCmd = &cobra.Command{
	Use:   "repl [player_id]",
	Short: "Start the interactive REPL shell",
	Long: `Starts a local read-eval-print loop that plays the game as a single
trainer, against the configured store. Useful for trying out commands
and inspecting battles without a chat platform.
Usage:
	> battle wild`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		playerID := "trainer"
		if len(args) >= 1 {
			playerID = args[0]
		}

		ctx := context.Background()
		st, err := openStore(ctx)
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}

		dataDirs := viper.GetStringSlice("data_dir")
		loader := data.NewLoader(dataDirs)
		region := viper.GetString("region")
		log := zerolog.Nop()

		manifest, err := rules.LoadManifest(dataDirs)
		if err != nil {
			fmt.Printf("Error loading spawn manifest: %v\n", err)
			os.Exit(1)
		}
		registry, err := rules.NewRegistry(func(percent int) bool {
			return random.Int(1, 100) <= percent
		})
		if err != nil {
			fmt.Printf("Error building rule registry: %v\n", err)
			os.Exit(1)
		}

		notices := make(chan string, 64)
		machine := battle.NewMachine(st, st, st, st, loader, &replNotifier{ch: notices}, log)

		pool := viper.GetStringSlice("spawn_pool")
		if len(pool) == 0 {
			pool = defaultPool
		}
		spawner := chat.NewSpawner(registry, manifest, st, loader, region, pool, log)
		spawner.Announce = func(text string) {
			select {
			case notices <- text:
			default:
			}
		}

		handler := chat.NewHandler(machine, st, region, log)
		handler.Spawner = spawner

		fmt.Printf("Starting REPL as '%s' in %s...\nType 'exit' or 'quit' to leave.\n\n", playerID, region)

		if err := RunTUI(handler, spawner, st, playerID, region, notices); err != nil {
			fmt.Printf("Fatal TUI Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// replNotifier funnels battle events into the TUI log. The channel is
// drained after each command; overflow is dropped rather than blocking
// the machine.
type replNotifier struct {
	ch chan string
}

func (n *replNotifier) Notify(userID string, evt battle.Event) {
	msg := evt.Message()
	if msg == "" {
		return
	}
	select {
	case n.ch <- fmt.Sprintf("[%s] %s", userID, msg):
	default:
	}
}

func init() {
	rootCmd.AddCommand(replCmd)
}
