package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultTelegramAPI is the public Bot API endpoint.
const DefaultTelegramAPI = "https://api.telegram.org"

// Telegram delivers messages through the Bot API sendMessage method.
// The bot client is connected on first delivery, so a bad token or an
// unreachable API fails deliveries instead of the run.
type Telegram struct {
	endpoint  string
	token     string
	parseMode string
	client    *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegram creates a Bot API gateway. An empty apiURL selects the public
// endpoint; a zero timeout selects 10s.
func NewTelegram(apiURL, token, parseMode string, timeout time.Duration) *Telegram {
	if apiURL == "" {
		apiURL = DefaultTelegramAPI
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{
		endpoint:  strings.TrimRight(apiURL, "/") + "/bot%s/%s",
		token:     token,
		parseMode: parseMode,
		client:    &http.Client{Timeout: timeout},
	}
}

// Deliver sends text to chatID. A transport failure is returned as an error; a
// refusal by the Bot API is reported through the result with OK unset.
func (t *Telegram) Deliver(ctx context.Context, chatID, text string) (DeliveryResult, error) {
	result := DeliveryResult{ChatID: chatID}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	msg, err := newMessage(chatID, text)
	if err != nil {
		return result, err
	}
	msg.ParseMode = t.parseMode

	bot, err := t.connect()
	if err == nil {
		_, err = bot.Send(msg)
	}

	var apiErr *tgbotapi.Error
	switch {
	case errors.As(err, &apiErr):
		result.StatusCode = apiErr.Code
		result.Description = apiErr.Message
		return result, nil
	case err != nil:
		// Transport errors carry the request URL, which holds the bot token.
		return result, fmt.Errorf("send telegram message: %w", redact(err, t.token))
	}

	result.StatusCode = http.StatusOK
	result.OK = true
	return result, nil
}

func (t *Telegram) connect() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
	if err != nil {
		return nil, err
	}
	t.bot = bot
	return bot, nil
}

// newMessage addresses numeric chat ids directly and @usernames as channels.
func newMessage(chatID, text string) (tgbotapi.MessageConfig, error) {
	if strings.HasPrefix(chatID, "@") {
		return tgbotapi.NewMessageToChannel(chatID, text), nil
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	return tgbotapi.NewMessage(id, text), nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, secret string) error {
	if secret == "" || !strings.Contains(err.Error(), secret) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "<token>"), err: err}
}
