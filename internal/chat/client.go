// Package chat connects the game to its chat platform: a thin Telegram
// API client, the long-polling bot worker that turns messages into game
// commands, and the spawn scheduler that drops wild encounters into the
// channel.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Update is one long-poll result from the Bot API.
type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int    `json:"message_id"`
	From      User   `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// User identifies the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat identifies the group a message arrived in.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Outgoing is one sendMessage payload. Use the format helpers below
// rather than filling it by hand, so replies, battle narration, and
// spawn drops stay visually consistent.
type Outgoing struct {
	ChatID              int64  `json:"chat_id"`
	Text                string `json:"text"`
	ParseMode           string `json:"parse_mode,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// Reply formats a command reply: bold, into the game channel.
func Reply(chatID int64, text string) Outgoing {
	return Outgoing{ChatID: chatID, Text: "*" + text + "*", ParseMode: "Markdown"}
}

// Addressed formats battle narration at the user it concerns.
func Addressed(chatID int64, userID, text string) Outgoing {
	return Outgoing{ChatID: chatID, Text: fmt.Sprintf("@%s %s", userID, text), ParseMode: "Markdown"}
}

// Announcement formats a channel-wide drop, e.g. a spawn appearing. It is
// plain text so species names never collide with Markdown markup.
func Announcement(chatID int64, text string) Outgoing {
	return Outgoing{ChatID: chatID, Text: text}
}

// Client covers the slice of the Bot API the game needs: long-polling
// for member commands and sending formatted messages.
type Client struct {
	Token      string
	APIBase    string
	HTTPClient *http.Client
}

// NewClient builds a client for the hosted Bot API. The HTTP timeout
// sits well above the poll timeout so long polls are never cut short
// client-side.
func NewClient(token string) *Client {
	return &Client{
		Token:      token,
		APIBase:    "https://api.telegram.org",
		HTTPClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// GetUpdates long-polls for updates past the given offset, holding the
// request open up to timeout seconds. Cancelling the context aborts the
// poll immediately.
func (c *Client) GetUpdates(ctx context.Context, offset, timeout int) ([]Update, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("timeout", strconv.Itoa(timeout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/bot%s/getUpdates?%s", c.APIBase, c.Token, q.Encode()), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool     `json:"ok"`
		Description string   `json:"description"`
		Result      []Update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding getUpdates response: %w", err)
	}
	if !result.OK {
		return nil, apiError("getUpdates", resp.StatusCode, result.Description)
	}
	return result.Result, nil
}

// Send delivers one outgoing message.
func (c *Client) Send(ctx context.Context, msg Outgoing) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendMessage", c.APIBase, c.Token), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding sendMessage response: %w", err)
	}
	if !result.OK {
		return apiError("sendMessage", resp.StatusCode, result.Description)
	}
	return nil
}

// apiError prefers the API's own description over the bare HTTP status.
func apiError(method string, status int, description string) error {
	if description == "" {
		return fmt.Errorf("telegram %s failed with status %d", method, status)
	}
	return fmt.Errorf("telegram %s failed: %s", method, description)
}
