package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
)

var (
	tgChatID    string
	tgUserPairs []string
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Map a Telegram group and its members onto the game",
	Long: `Writes telegram.yaml into the store directory: the group chat the
bot listens to, and the Telegram-user to player-id mapping it uses to
attribute commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath := filepath.Join(viper.GetString("store_dir"), "telegram.yaml")
		config := TelegramConfig{
			Users: make(map[string]string),
		}

		// Load existing config if it exists
		if _, err := os.Stat(configPath); err == nil {
			f, _ := os.Open(configPath)
			yaml.NewDecoder(f).Decode(&config)
			f.Close()
		}

		if tgChatID == "" {
			fmt.Println("---")
			fmt.Println("How to get your Telegram Chat ID:")
			fmt.Println("1. Add your bot to the group.")
			fmt.Println("2. Send a message in the group (e.g., /start).")
			fmt.Println("3. Access https://api.telegram.org/bot<TOKEN>/getUpdates in your browser.")
			fmt.Println("4. Look for the 'chat' object and its 'id' field (it usually starts with a minus sign).")
			fmt.Println("---")
			fmt.Print("chat_id: ")
			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				tgChatID = strings.TrimSpace(scanner.Text())
			}
		}

		if tgChatID != "" {
			config.ChatID = tgChatID
		}
		if len(tgUserPairs) > 0 {
			st, err := openStore(cmd.Context())
			for _, pair := range tgUserPairs {
				parts := strings.Split(pair, ":")
				if len(parts) != 2 {
					fmt.Printf("Warning: invalid user pair format '%s'. Expected 'telegram_id:player_id'\n", pair)
					continue
				}
				telegramID := parts[0]
				playerID := parts[1]

				if err == nil {
					if _, lookupErr := st.GetPlayer(playerID); errors.Is(lookupErr, battle.ErrNotFound) {
						fmt.Printf("Note: player '%s' has no record yet; one is created on their first command.\n", playerID)
					}
				}

				config.Users[telegramID] = playerID
			}
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			fmt.Printf("Error creating store directory: %v\n", err)
			os.Exit(1)
		}

		// Save config
		f, err := os.Create(configPath)
		if err != nil {
			fmt.Printf("Error creating config file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		encoder := yaml.NewEncoder(f)
		if err := encoder.Encode(config); err != nil {
			fmt.Printf("Error encoding config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Telegram configuration saved to %s\n", configPath)
	},
}

func init() {
	rootCmd.AddCommand(telegramCmd)
	telegramCmd.Flags().StringVarP(&tgChatID, "chat_id", "c", "", "Telegram group chat ID")
	telegramCmd.Flags().StringSliceVarP(&tgUserPairs, "user", "u", []string{}, "Map a Telegram user to a player id (format: telegram_id:player_id)")
}
