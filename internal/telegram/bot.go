package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/domain"
	"github.com/kitbuilder587/morvo/internal/metrics"
)

const channelTelegram = "telegram"

type ChatHandler interface {
	Handle(ctx context.Context, channel string, req domain.ChatRequest) (*domain.ChatResponse, error)
}

type ConversationCloser interface {
	CompleteActive(ctx context.Context, userID, reason string) (bool, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.CulturalProfile, error)
	Update(ctx context.Context, userID string, fn func(p *domain.CulturalProfile)) (*domain.CulturalProfile, error)
}

// sender - часть BotAPI, которой бот отвечает. В тестах подменяется.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type BotConfig struct {
	Token string
	Debug bool
}

type BotDeps struct {
	Chat          ChatHandler
	Conversations ConversationCloser
	Profiles      ProfileStore
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
}

type Bot struct {
	api           *tgbotapi.BotAPI
	out           sender
	chat          ChatHandler
	conversations ConversationCloser
	profiles      ProfileStore
	logger        *zap.Logger
	metrics       *metrics.Metrics
	handler       *Handler
	wg            sync.WaitGroup
}

func New(cfg BotConfig, deps BotDeps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	api.Debug = cfg.Debug

	bot := newBot(api, deps)
	bot.logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
	)

	return bot, nil
}

func newBot(api *tgbotapi.BotAPI, deps BotDeps) *Bot {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	bot := &Bot{
		api:           api,
		chat:          deps.Chat,
		conversations: deps.Conversations,
		profiles:      deps.Profiles,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
	}
	if api != nil {
		bot.out = api
	}
	bot.handler = NewHandler(bot)
	return bot
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping, waiting for handlers to finish")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("all handlers finished")
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			chatID := int64(0)
			if update.Message != nil && update.Message.Chat != nil {
				chatID = update.Message.Chat.ID
			}
			b.logger.Error("panic in update handler",
				zap.Any("panic", r),
				zap.Int64("chat_id", chatID),
			)
			if b.metrics != nil {
				b.metrics.RecordRequest(channelTelegram, "panic", time.Since(startTime))
			}
		}
	}()

	b.handler.HandleMessage(ctx, update.Message)

	// обычные сообщения учитывает ChatService, здесь только команды
	if b.metrics != nil && update.Message.IsCommand() {
		b.metrics.RecordRequest(channelTelegram, "command", time.Since(startTime))
	}
}

func (b *Bot) Send(chatID int64, text string) error {
	if b.out == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) SendTyping(chatID int64) {
	if b.out == nil {
		return
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	b.out.Send(action)
}

// userKey - идентификатор пользователя telegram внутри сервиса
func userKey(telegramID int64) string {
	return "tg:" + strconv.FormatInt(telegramID, 10)
}
