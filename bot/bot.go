package bot

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"coinbot/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Config holds bot configuration
type Config struct {
	Token           string
	AdminTelegramID int64
	ConversationTTL time.Duration
}

type Bot struct {
	config           Config
	api              *tgbotapi.BotAPI
	userService      service.UserService
	rewardService    service.RewardService
	raffleService    service.RaffleService
	shopService      service.ShopService
	settingsService  service.SettingsService
	broadcastService service.BroadcastService
	conversations    *ConversationTracker
	done             chan struct{}
}

func New(config Config, userService service.UserService, rewardService service.RewardService, raffleService service.RaffleService, shopService service.ShopService, settingsService service.SettingsService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram session: %w", err)
	}

	bot := &Bot{
		config:          config,
		api:             api,
		userService:     userService,
		rewardService:   rewardService,
		raffleService:   raffleService,
		shopService:     shopService,
		settingsService: settingsService,
		conversations:   NewConversationTracker(config.ConversationTTL),
		done:            make(chan struct{}),
	}

	log.WithField("username", api.Self.UserName).Info("Telegram session authorized")

	return bot, nil
}

// SetBroadcastService wires the broadcast service after construction; the
// service needs the bot as its outbound sender, so it cannot exist first.
func (b *Bot) SetBroadcastService(svc service.BroadcastService) {
	b.broadcastService = svc
}

// Start begins consuming updates until the context is cancelled
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(u)

	go func() {
		defer close(b.done)
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				go b.handleUpdate(ctx, update)
			}
		}
	}()

	log.Info("Bot is running")
}

// Stop shuts down the update stream and the conversation janitor
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.conversations.Stop()
	<-b.done
}

// SendText implements service.MessageSender
func (b *Bot) SendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Update handler panicked")
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

// reply sends a plain text message to a chat, logging delivery failures.
// Outbound failures never unwind completed work.
func (b *Bot) reply(chatID int64, text string) {
	if err := b.SendText(chatID, text); err != nil {
		log.WithError(err).WithField("chatID", chatID).Warn("Failed to send message")
	}
}

func (b *Bot) replyWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chatID", chatID).Warn("Failed to send message")
	}
}
