// Package bot implements the Telegram presentation layer over the core
// pipeline: commands, the filter wizard, and the district browser.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"estate_bot/internal/config"
	"estate_bot/internal/poller"
	"estate_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot handles user commands and delivers listing notifications.
type Bot struct {
	api    telegramAPI
	store  storage.Storage
	cfg    *config.Config
	poller *poller.Poller
	log    *slog.Logger

	// Conversational state, keyed by chat id. mu guards the maps only;
	// the state objects themselves are mutated exclusively on the Run
	// goroutine.
	mu      sync.Mutex
	wizards map[string]*wizardState
	browses map[string]*browseState
}

// New creates a Bot with the given Telegram token, storage, and config.
// Attach the poller with SetPoller before Run.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:     api,
		store:   store,
		cfg:     cfg,
		log:     log,
		wizards: make(map[string]*wizardState),
		browses: make(map[string]*browseState),
	}, nil
}

// SetPoller wires the orchestrator used for on-demand lookups.
func (b *Bot) SetPoller(p *poller.Poller) {
	b.poller = p
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil {
				continue
			}
			chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
			if update.Message.IsCommand() {
				b.handleCommand(ctx, chatID, update.Message)
				continue
			}
			if text := strings.TrimSpace(update.Message.Text); text != "" {
				b.handleText(ctx, chatID, text)
			}
		}
	}
}

// SendMessage delivers a text message to the given chat. It implements
// poller.Sender; transport failures surface as errors for the failure sink.
func (b *Bot) SendMessage(chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	msg := tgbotapi.NewMessage(id, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		b.log.Error("reply", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, chatID string, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	if err := b.store.EnsureUser(ctx, chatID); err != nil {
		b.log.Error("ensure user", "chat_id", chatID, "error", err)
	}

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "addfilter":
		b.handleAddFilter(chatID)
	case "myfilters":
		b.handleMyFilters(ctx, chatID)
	case "removefilter":
		b.handleRemoveFilter(ctx, chatID, args)
	case "latest":
		b.handleLatest(ctx, chatID, args)
	case "districts":
		b.handleDistricts(chatID)
	case "failedlistings":
		b.handleFailedListings(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// handleText routes free-form text to whichever conversation is active for
// the chat: a bound prompt from the district browser, or the filter wizard.
func (b *Bot) handleText(ctx context.Context, chatID, text string) {
	if b.handleBrowseInput(chatID, text) {
		return
	}
	b.handleWizardInput(ctx, chatID, text)
}
