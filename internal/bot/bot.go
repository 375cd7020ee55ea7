package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dormmarket/market-bot/internal/market"
)

// Bot adapts the Telegram transport to the market core: inbound updates are
// classified into normalized events, outbound sends implement
// market.Transport.
type Bot struct {
	api     *tgbotapi.BotAPI
	router  *market.Router
	updates chan tgbotapi.Update // fed by the webhook handler when enabled
	webhook string
}

type Config struct {
	Token      string
	WebhookURL string
}

func New(cfg Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:     api,
		updates: make(chan tgbotapi.Update, 64),
		webhook: cfg.WebhookURL,
	}, nil
}

// SetRouter wires the event entry point. Separate from New because the
// router needs the bot as its Transport.
func (b *Bot) SetRouter(router *market.Router) {
	b.router = router
}

// Run consumes updates until the context is cancelled. With a webhook URL
// configured the updates arrive through WebhookHandler; otherwise the bot
// long-polls.
func (b *Bot) Run(ctx context.Context) error {
	var updates tgbotapi.UpdatesChannel

	if b.webhook != "" {
		wh, err := tgbotapi.NewWebhook(b.webhook)
		if err != nil {
			return fmt.Errorf("failed to build webhook config: %w", err)
		}
		if _, err := b.api.Request(wh); err != nil {
			return fmt.Errorf("failed to register webhook: %w", err)
		}
		updates = b.updates
	} else {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates = b.api.GetUpdatesChan(u)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

// WebhookHandler decodes Telegram webhook posts into the update stream.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "bad update payload", http.StatusBadRequest)
			return
		}
		b.updates <- update
		w.WriteHeader(http.StatusOK)
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, ok := b.classify(update)
	if !ok {
		return
	}

	switch {
	case update.CallbackQuery != nil:
		updatesTotal.WithLabelValues("callback").Inc()
		// Stop the button spinner; the real response follows.
		if _, err := b.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			log.Printf("Error answering callback: %v", err)
		}
	default:
		updatesTotal.WithLabelValues("message").Inc()
	}

	if err := b.router.HandleEvent(ctx, ev); err != nil {
		handlerErrors.Inc()
		log.Printf("Error handling event from user %d: %v", ev.UserID, err)
	}
}

// classify turns a raw update into a normalized event with a tagged
// command. Button labels and slash commands are resolved here so the core
// never matches on literal text.
func (b *Bot) classify(update tgbotapi.Update) (market.Event, bool) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.From == nil || cb.Message == nil {
			return market.Event{}, false
		}
		ev := market.Event{
			UserID:   cb.From.ID,
			ChatID:   cb.Message.Chat.ID,
			Username: cb.From.UserName,
		}
		ev.Command, ev.Arg = parseCallback(cb.Data)
		return ev, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return market.Event{}, false
	}

	ev := market.Event{
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: msg.From.UserName,
		Text:     msg.Text,
	}

	if len(msg.Photo) > 0 {
		ev.PhotoID = msg.Photo[len(msg.Photo)-1].FileID
		if ev.Text == "" {
			ev.Text = msg.Caption
		}
	}

	// Only the sender's own contact counts as verification.
	if msg.Contact != nil && msg.Contact.UserID == msg.From.ID {
		ev.Phone = msg.Contact.PhoneNumber
	}

	if msg.IsCommand() {
		ev.Command, ev.Arg = parseSlashCommand(msg.Command(), msg.CommandArguments())
		return ev, true
	}

	if route, ok := labelRoutes[strings.TrimSpace(msg.Text)]; ok {
		ev.Command = route.command
		ev.Arg = route.arg
	}
	return ev, true
}

func parseSlashCommand(command, args string) (market.Command, string) {
	switch command {
	case "start":
		return market.CmdStart, ""
	case "cancel":
		return market.CmdCancel, ""
	case "profile":
		return market.CmdProfile, ""
	case "moderate":
		return market.CmdModerate, ""
	case "approve":
		return market.CmdApprove, args
	case "reject":
		return market.CmdReject, args
	case "maintenance":
		return market.CmdMaintenance, ""
	case "broadcast":
		return market.CmdBroadcast, args
	default:
		return market.CmdNone, ""
	}
}

func parseCallback(data string) (market.Command, string) {
	action, arg, _ := strings.Cut(data, ":")
	switch action {
	case "cancel":
		return market.CmdCancel, ""
	case "newad":
		return market.CmdNewAd, arg
	case "next":
		return market.CmdNext, arg
	case "prev":
		return market.CmdPrev, arg
	case "interest":
		return market.CmdInterest, arg // "<id>:<category>"
	case "delete":
		return market.CmdDeleteAd, arg
	case "approve":
		return market.CmdApprove, arg
	case "reject":
		return market.CmdReject, arg
	case "mod_next":
		return market.CmdModNext, ""
	default:
		return market.CmdNone, ""
	}
}

// SendText implements market.Transport.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string, buttons market.Buttons) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup := keyboardFor(buttons); markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		sendErrors.Inc()
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	return nil
}

// SendPhoto implements market.Transport.
func (b *Bot) SendPhoto(ctx context.Context, chatID int64, photoID, caption string, buttons market.Buttons) error {
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(photoID))
	msg.Caption = caption
	if markup := keyboardFor(buttons); markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		sendErrors.Inc()
		return fmt.Errorf("failed to send photo to %d: %w", chatID, err)
	}
	return nil
}
