package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
)

// CommandResult holds the output of a command execution.
type CommandResult struct {
	Messages []string
}

// Executor defines the interface for running chat commands on behalf of
// a player.
type Executor interface {
	Execute(userID, text string) (*CommandResult, error)
}

// Bot handles the integration between Telegram and the game
type Bot struct {
	client       *Client
	executor     Executor
	chatID       int64
	userMap      map[int64]string // telegram_user_id -> player_id
	lastUpdateID int
	log          zerolog.Logger
}

// NewBot initializes a new follower bot
func NewBot(token string, chatID int64, userMap map[int64]string, exec Executor, log zerolog.Logger) *Bot {
	return &Bot{
		client:       NewClient(token),
		executor:     exec,
		chatID:       chatID,
		userMap:      userMap,
		lastUpdateID: viper.GetInt("tg_last_update_id"),
		log:          log,
	}
}

// Start launches the long-polling loop until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.log.Info().Int64("chat", b.chatID).Msg("telegram bot started")
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := b.client.GetUpdates(ctx, b.lastUpdateID+1, 25)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.log.Error().Err(err).Msg("error fetching updates")
			time.Sleep(5 * time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID > b.lastUpdateID {
				b.lastUpdateID = update.UpdateID
				// Persist last_update_id
				viper.Set("tg_last_update_id", b.lastUpdateID)
				_ = viper.WriteConfig() // Ignore error if config file doesn't exist yet
			}

			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	// Only the configured game channel is listened to.
	if msg.Chat.ID != b.chatID {
		return
	}

	if !strings.HasPrefix(msg.Text, "/") {
		return
	}
	rawText := strings.TrimPrefix(msg.Text, "/")
	if strings.TrimSpace(rawText) == "" {
		return
	}

	playerID, ok := b.userMap[msg.From.ID]
	if !ok {
		b.send(ctx, Announcement(b.chatID, fmt.Sprintf("User %s (%d) is not registered as a trainer.", msg.From.FirstName, msg.From.ID)))
		return
	}

	result, err := b.executor.Execute(playerID, rawText)
	if err != nil {
		b.log.Error().Err(err).Str("player", playerID).Str("command", rawText).Msg("command failed")
		b.send(ctx, Reply(b.chatID, fmt.Sprintf("Error: %v", err)))
		return
	}

	for _, out := range result.Messages {
		if out != "" {
			b.send(ctx, Reply(b.chatID, out))
		}
	}
}

func (b *Bot) send(ctx context.Context, msg Outgoing) {
	if err := b.client.Send(ctx, msg); err != nil {
		b.log.Error().Err(err).Msg("failed to send message")
	}
}

// Notify implements battle.Notifier by narrating battle events into the
// game channel, addressed at the user they concern.
func (b *Bot) Notify(userID string, evt battle.Event) {
	text := evt.Message()
	if text == "" {
		return
	}
	if err := b.client.Send(context.Background(), Addressed(b.chatID, userID, text)); err != nil {
		b.log.Error().Err(err).Str("player", userID).Str("event", string(evt.Type())).Msg("failed to deliver battle event")
	}
}

// Announce posts a plain message to the game channel; the spawner uses
// it for "a wild X appeared" drops.
func (b *Bot) Announce(text string) {
	b.send(context.Background(), Announcement(b.chatID, text))
}
