/*
Copyright © 2026 Tim Malone
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
	"github.com/tdmalone/slackemon-sub000/internal/chat"
	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/random"
	"github.com/tdmalone/slackemon-sub000/internal/rules"
)

// TelegramConfig maps a Telegram group and its members onto the game.
type TelegramConfig struct {
	ChatID string            `yaml:"chat_id"`
	Users  map[string]string `yaml:"users"` // telegram user_id -> player_id
}

// defaultPool keeps a deployment playable before anyone writes a spawn
// manifest.
var defaultPool = []string{
	"pidgey", "rattata", "caterpie", "weedle", "spearow",
	"nidoran-f", "nidoran-m", "zubat", "oddish", "machop",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the game service",
	Long: `Starts the long-running game service: the Telegram bot loop, the
wild-spawn scheduler, and the battle-timeout sweeper. Requires a bot
token ('slackemon bot telegram') and a chat mapping ('slackemon
telegram').`,
	Run: func(cmd *cobra.Command, args []string) {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

		token := viper.GetString("telegram_token")
		if token == "" {
			fmt.Println("Error: no Telegram bot token configured. Run: slackemon bot telegram")
			os.Exit(1)
		}

		cfg, err := loadTelegramConfig()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
		if err != nil {
			fmt.Printf("Error: invalid chat_id %q in telegram.yaml\n", cfg.ChatID)
			os.Exit(1)
		}
		userMap := make(map[int64]string)
		for idStr, playerID := range cfg.Users {
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				userMap[id] = playerID
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}

		dataDirs := viper.GetStringSlice("data_dir")
		loader := data.NewLoader(dataDirs)
		region := viper.GetString("region")

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

		machine := battle.NewMachine(st, st, st, st, loader, nil, log)
		machine.AIDelay = 2 * time.Second

		pool := viper.GetStringSlice("spawn_pool")
		if len(pool) == 0 {
			pool = defaultPool
		}
		spawner := chat.NewSpawner(registry, manifest, st, loader, region, pool, log)

		handler := chat.NewHandler(machine, st, region, log)
		handler.Spawner = spawner

		bot := chat.NewBot(token, chatID, userMap, handler, log)
		machine.Notify = bot
		spawner.Announce = bot.Announce

		interval := viper.GetDuration("spawn_interval")
		if interval <= 0 {
			interval = 30 * time.Minute
		}
		go spawner.Run(ctx, interval)

		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					if err := machine.Sweep(now); err != nil {
						log.Error().Err(err).Msg("sweep failed")
					}
				}
			}
		}()

		log.Info().Str("region", region).Int64("chat", chatID).Msg("game service starting")
		bot.Start(ctx)
	},
}

// loadTelegramConfig reads telegram.yaml from the store directory.
func loadTelegramConfig() (*TelegramConfig, error) {
	path := filepath.Join(viper.GetString("store_dir"), "telegram.yaml")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no chat mapping at %s; run: slackemon telegram", path)
	}
	defer f.Close()

	var cfg TelegramConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("%s has no chat_id; run: slackemon telegram", path)
	}
	return &cfg, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
