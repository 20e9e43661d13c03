package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/domain"
)

const (
	msgGenericError = "Something went wrong. Please try again later."

	helpText = `<b>Commands</b>

/start - Welcome message
/help - Show this help
/new - Start a new conversation
/profile - Show your cultural profile
/lang ar|en|mixed - Preferred reply language
/style direct|indirect|balanced - Communication style
/formal on|off - Formal address

<b>How to use</b>
Just send your marketing question. Include your website (for example <i>brand.sa</i>) to get an SEO and backlink review for the Saudi market.

<b>Examples</b>
• What's the best SEO strategy for my site example.com?
• How should I plan a Ramadan campaign?
• ما هي أفضل استراتيجية تسويق في الرياض؟`

	welcomeText = `<b>أهلاً وسهلاً! Welcome!</b>

I'm your marketing consultant for the Saudi market. Ask about SEO, competitors, campaigns or your website and I'll bring in the right specialists.

Use /lang ar to get replies in Arabic. /help lists all commands.`
)

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	h.bot.logger.Info("received message",
		zap.Int64("telegram_id", msg.From.ID),
		zap.Bool("is_command", msg.IsCommand()),
	)

	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
		return
	}
	h.handleChat(ctx, msg)
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.bot.Send(msg.Chat.ID, welcomeText)
	case "help":
		h.bot.Send(msg.Chat.ID, helpText)
	case "new":
		h.handleNew(ctx, msg)
	case "profile":
		h.handleProfile(ctx, msg)
	case "lang":
		h.handleLang(ctx, msg)
	case "style":
		h.handleStyle(ctx, msg)
	case "formal":
		h.handleFormal(ctx, msg)
	default:
		h.bot.Send(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

func (h *Handler) handleNew(ctx context.Context, msg *tgbotapi.Message) {
	closed, err := h.bot.conversations.CompleteActive(ctx, userKey(msg.From.ID), "new conversation requested")
	if err != nil {
		h.bot.logger.Error("failed to complete conversation", zap.Error(err))
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	if closed {
		h.bot.Send(msg.Chat.ID, "Previous conversation closed. What would you like to work on next?")
		return
	}
	h.bot.Send(msg.Chat.ID, "No open conversation. Send your question to start one.")
}

func (h *Handler) handleProfile(ctx context.Context, msg *tgbotapi.Message) {
	p, err := h.bot.profiles.GetProfile(ctx, userKey(msg.From.ID))
	if err != nil {
		h.bot.logger.Error("failed to load profile", zap.Error(err))
		h.bot.Send(msg.Chat.ID, msgGenericError)
		return
	}
	if p == nil {
		h.bot.Send(msg.Chat.ID, "No profile yet. Set one with /lang and /style.")
		return
	}
	h.bot.Send(msg.Chat.ID, FormatProfile(p))
}

func (h *Handler) handleLang(ctx context.Context, msg *tgbotapi.Message) {
	lang, ok := ParseLanguage(msg.CommandArguments())
	if !ok {
		h.bot.Send(msg.Chat.ID, "Usage: /lang ar|en|mixed")
		return
	}
	h.updateProfile(ctx, msg, func(p *domain.CulturalProfile) {
		p.PreferredLanguage = lang
	}, "Reply language set to "+lang+".")
}

func (h *Handler) handleStyle(ctx context.Context, msg *tgbotapi.Message) {
	style, ok := ParseDirectness(msg.CommandArguments())
	if !ok {
		h.bot.Send(msg.Chat.ID, "Usage: /style direct|indirect|balanced")
		return
	}
	h.updateProfile(ctx, msg, func(p *domain.CulturalProfile) {
		p.Directness = style
	}, "Communication style set to "+style+".")
}

func (h *Handler) handleFormal(ctx context.Context, msg *tgbotapi.Message) {
	on, ok := ParseToggle(msg.CommandArguments())
	if !ok {
		h.bot.Send(msg.Chat.ID, "Usage: /formal on|off")
		return
	}
	reply := "Formal address turned off."
	if on {
		reply = "Formal address turned on."
	}
	h.updateProfile(ctx, msg, func(p *domain.CulturalProfile) {
		p.FormalAddress = domain.BoolPtr(on)
	}, reply)
}

func (h *Handler) updateProfile(ctx context.Context, msg *tgbotapi.Message, fn func(p *domain.CulturalProfile), reply string) {
	if _, err := h.bot.profiles.Update(ctx, userKey(msg.From.ID), fn); err != nil {
		h.bot.logger.Error("failed to update profile",
			zap.Int64("telegram_id", msg.From.ID),
			zap.Error(err),
		)
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}
	h.bot.Send(msg.Chat.ID, reply)
}

func (h *Handler) handleChat(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.SendTyping(msg.Chat.ID)

	resp, err := h.bot.chat.Handle(ctx, channelTelegram, domain.ChatRequest{
		Message:  msg.Text,
		ClientID: channelTelegram,
		UserID:   userKey(msg.From.ID),
	})
	if err != nil {
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	for _, m := range SplitMessage(FormatChatResponse(resp), maxMessageLen) {
		if err := h.bot.Send(msg.Chat.ID, m); err != nil {
			h.bot.logger.Error("failed to send message", zap.Error(err))
		}
	}
}

func mapErrorToMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		return "Please send a question."
	case errors.Is(err, domain.ErrMessageTooLong):
		return "Your message is too long. Please keep it under 4000 characters."
	case errors.Is(err, domain.ErrMalformedMessage):
		return "I could not read that message. Please send plain text."
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many messages. Please wait a minute and try again."
	case errors.Is(err, domain.ErrStateStore):
		return "Your conversation could not be saved. Please try again."
	case errors.Is(err, domain.ErrInvalidProfile):
		return "That profile setting is not supported."
	default:
		return msgGenericError
	}
}
