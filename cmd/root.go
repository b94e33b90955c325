/*
Copyright © 2026 Tim Malone
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
	"github.com/tdmalone/slackemon-sub000/internal/chat"
	"github.com/tdmalone/slackemon-sub000/internal/store"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "slackemon",
	Short: "A chat-driven Pokémon catching and battling game",
	Long: `Slackemon runs a Pokémon game inside a chat channel: wild Pokémon
spawn into a region, players catch them, train them, and battle each
other turn by turn, all through chat commands.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.slackemon.yaml)")
	rootCmd.PersistentFlags().StringSlice("data_dir", []string{"./data"}, "Reference data directories, searched in order")
	rootCmd.PersistentFlags().String("region", "kanto", "Region this deployment serves")
	rootCmd.PersistentFlags().String("store", "file", "Storage backend: file, sqlite, or postgres")
	rootCmd.PersistentFlags().String("store_dir", "./game-data", "Root directory for the file backend")
	rootCmd.PersistentFlags().String("sqlite_path", "./slackemon.db", "Database file for the sqlite backend")
	rootCmd.PersistentFlags().String("dsn", "", "Connection string for the postgres backend")

	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data_dir"))
	viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	viper.BindPFlag("store", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("store_dir", rootCmd.PersistentFlags().Lookup("store_dir"))
	viper.BindPFlag("sqlite_path", rootCmd.PersistentFlags().Lookup("sqlite_path"))
	viper.BindPFlag("dsn", rootCmd.PersistentFlags().Lookup("dsn"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".slackemon" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".slackemon")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// gameStore is the union of everything one backend must provide.
type gameStore interface {
	battle.PlayerStore
	battle.BattleStore
	battle.InviteStore
	chat.SpawnIndex
}

// openStore builds the configured storage backend.
func openStore(ctx context.Context) (gameStore, error) {
	switch backend := viper.GetString("store"); backend {
	case "file":
		return store.NewFileStore(viper.GetString("store_dir"))
	case "sqlite":
		s, err := store.NewSQLiteStore(viper.GetString("sqlite_path"))
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		dsn := viper.GetString("dsn")
		if dsn == "" {
			return nil, fmt.Errorf("the postgres backend needs --dsn")
		}
		s, err := store.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
