/*
Copyright © 2026 Tim Malone
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tdmalone/slackemon-sub000/internal/store"
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "List settled battles from the archive",
	Long: `Replays the completed-battle log of the file backend and prints one
line per settled battle, oldest first.`,
	Run: func(cmd *cobra.Command, args []string) {
		if viper.GetString("store") != "file" {
			fmt.Println("Error: the archive command reads the file backend; query the battle_archive table directly for sqlite/postgres.")
			os.Exit(1)
		}

		st, err := store.NewFileStore(viper.GetString("store_dir"))
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}

		battles, err := st.LoadArchive()
		if err != nil {
			fmt.Printf("Error reading battle archive: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%d settled battles.\n", len(battles))
		for _, b := range battles {
			started := time.Unix(b.CreatedAt, 0).Format(time.RFC3339)
			fmt.Printf("- %s  %-4s  %s vs %s  started %s\n",
				b.Hash, b.Type,
				b.Sides[0].Participant.Key(), b.Sides[1].Participant.Key(),
				started)
		}
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}
