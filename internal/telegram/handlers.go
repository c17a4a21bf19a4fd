package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/suspectuso/blum-farmer/internal/farmer"
)

// StatusSource provides account snapshots for /status
type StatusSource interface {
	Statuses() []farmer.AccountStatus
}

// Bot wraps the telegram bot with handlers. It talks to a single chat
type Bot struct {
	bot    *bot.Bot
	chatID int64
	status StatusSource
	log    *slog.Logger
}

// New creates a new telegram bot
func New(token string, chatID int64, log *slog.Logger) (*Bot, error) {
	b := &Bot{
		chatID: chatID,
		log:    log,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler(CallbackStatus, bot.MatchTypeExact, b.callbackHandler),
	}

	tgBot, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot

	// Register command handlers
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.statusHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, b.statusHandler)

	return b, nil
}

// Start starts the bot polling. Status commands are answered from status
func (b *Bot) Start(ctx context.Context, status StatusSource) {
	b.status = status
	b.bot.Start(ctx)
}

func (b *Bot) allowed(chatID int64) bool {
	return chatID == b.chatID
}

func (b *Bot) statusHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	if !b.allowed(update.Message.Chat.ID) {
		b.log.Warn("ignoring message from unknown chat", "chat_id", update.Message.Chat.ID)
		return
	}

	b.sendMessage(ctx, update.Message.Chat.ID, FormatStatus(b.status.Statuses()), StatusKeyboard())
}

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || !b.allowed(update.Message.Chat.ID) {
		return
	}

	b.sendMessage(ctx, update.Message.Chat.ID, "Use /status to see the farming accounts.", nil)
}

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery

	// Answer callback to remove loading state
	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	if cb.Message.Message == nil || !b.allowed(cb.Message.Message.Chat.ID) {
		return
	}

	b.editMessage(ctx, cb.Message, FormatStatus(b.status.Statuses()), StatusKeyboard())
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		b.log.Error("send message", "error", err)
	}
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.EditMessageText(ctx, params)
	if err != nil {
		b.log.Error("edit message", "error", err)
	}
}

// SendNotification sends a message to the configured chat
func (b *Bot) SendNotification(ctx context.Context, text string) error {
	disablePreview := true
	params := &bot.SendMessageParams{
		ChatID:    b.chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disablePreview,
		},
	}

	_, err := b.bot.SendMessage(ctx, params)
	return err
}
