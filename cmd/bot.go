/*
Copyright © 2026 Tim Malone
*/
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var botToken string

// BotFather tokens are "<numeric bot id>:<secret>".
var tokenShape = regexp.MustCompile(`^\d+:[\w-]+$`)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Configure the chat bot",
}

var telegramBotCmd = &cobra.Command{
	Use:   "telegram [token]",
	Short: "Store the Telegram bot token",
	Long: `Stores the bot API token the game service authenticates with.
Get one from @BotFather (/newbot), add the bot to your game group, and
turn its privacy mode off so it can read member commands.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		token := botToken
		if len(args) == 1 {
			token = args[0]
		}
		if token == "" {
			fmt.Print("token: ")
			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				token = strings.TrimSpace(scanner.Text())
			}
		}
		if token == "" {
			fmt.Println("No token given; nothing saved.")
			return
		}
		if !tokenShape.MatchString(token) {
			fmt.Println("That doesn't look like a bot token (expected <bot-id>:<secret>); nothing saved.")
			return
		}

		viper.Set("telegram_token", token)
		if err := saveConfig(); err != nil {
			fmt.Printf("Error saving configuration: %v\n", err)
			return
		}
		fmt.Println("Telegram bot token saved. Next: slackemon telegram, then slackemon run.")
	},
}

// saveConfig persists viper state, creating $HOME/.slackemon.yaml when no
// config file exists yet.
func saveConfig() error {
	if err := viper.WriteConfig(); err == nil {
		return nil
	}
	if err := viper.SafeWriteConfig(); err == nil {
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return viper.WriteConfigAs(filepath.Join(home, ".slackemon.yaml"))
}

func init() {
	rootCmd.AddCommand(botCmd)
	botCmd.AddCommand(telegramBotCmd)

	telegramBotCmd.Flags().StringVarP(&botToken, "token", "t", "", "Telegram bot API token")
}
