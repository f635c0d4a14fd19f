package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"coinbot/models"
	"coinbot/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	user, err := b.userService.GetOrCreateUser(ctx, message.From.ID, message.From.UserName, message.From.FirstName)
	if err != nil {
		log.WithError(err).WithField("telegramID", message.From.ID).Error("Failed to get or create user")
		b.reply(message.Chat.ID, msgStorageTrouble)
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStart(ctx, message, user)
		case "help":
			b.reply(message.Chat.ID, helpText)
		case "daily":
			b.handleDaily(ctx, message.From.ID, message.Chat.ID)
		case "profile", "balance":
			b.handleProfile(ctx, message.From.ID, message.Chat.ID)
		case "raffles":
			b.handleRaffleList(ctx, message.Chat.ID)
		case "shop":
			b.handleShopList(ctx, message.Chat.ID)
		case "invite":
			b.handleInvite(message.Chat.ID, user)
		case "redeem":
			b.handleRedeemCommand(ctx, message)
		case "cancel":
			b.conversations.Clear(message.From.ID)
			b.reply(message.Chat.ID, "Cancelled.")
		case "broadcast":
			b.handleBroadcastCommand(ctx, message)
		case "setreward":
			b.handleSetRewardCommand(ctx, message)
		}
		return
	}

	b.handleFreeText(ctx, message)
}

// handleFreeText resolves non-command text: pending conversation state wins,
// then a bare number is a menu selection, anything else is ignored.
func (b *Bot) handleFreeText(ctx context.Context, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	if state, ok := b.conversations.Get(message.From.ID); ok {
		b.conversations.Clear(message.From.ID)
		switch state {
		case StateAwaitingInviteCode:
			b.redeemCode(ctx, message.From.ID, message.Chat.ID, text)
		case StateAwaitingBroadcast:
			b.runBroadcast(ctx, message.Chat.ID, text)
		}
		return
	}

	if n, err := strconv.Atoi(text); err == nil {
		b.handleNumberedSelection(ctx, message.From.ID, message.Chat.ID, n)
	}
}

// handleNumberedSelection maps a bare number onto the combined menu: open
// raffles first, then shop items, 1-based. Out-of-range numbers are ignored
// silently; in a group chat a stray number usually is not meant for the bot.
func (b *Bot) handleNumberedSelection(ctx context.Context, telegramID, chatID int64, n int) {
	if n < 1 {
		return
	}

	raffles, err := b.raffleService.ListOpenRaffles(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list raffles for selection")
		return
	}

	if n <= len(raffles) {
		b.enterRaffle(ctx, telegramID, chatID, raffles[n-1].ID)
		return
	}
	n -= len(raffles)

	items, err := b.shopService.ListItems(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list shop items for selection")
		return
	}

	if n <= len(items) {
		b.purchaseItem(ctx, telegramID, chatID, items[n-1].ID)
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message, user *models.User) {
	// Deep links (t.me/<bot>?start=<code>) deliver the referral code as the
	// command payload on first contact.
	if code := strings.TrimSpace(message.CommandArguments()); code != "" {
		b.redeemCode(ctx, message.From.ID, message.Chat.ID, code)
	}

	b.reply(message.Chat.ID, welcomeText(user))
}

func (b *Bot) handleDaily(ctx context.Context, telegramID, chatID int64) {
	result, err := b.rewardService.ClaimDaily(ctx, telegramID)
	if err != nil {
		b.replyError(chatID, err, "Unable to process your check-in. Please try again.")
		return
	}

	b.reply(chatID, formatDailyClaim(result))
}

func (b *Bot) handleProfile(ctx context.Context, telegramID, chatID int64) {
	user, err := b.userService.GetUser(ctx, telegramID)
	if err != nil {
		b.replyError(chatID, err, "Unable to load your profile. Please try again.")
		return
	}

	txs, err := b.userService.RecentTransactions(ctx, telegramID, recentTransactionLimit)
	if err != nil {
		log.WithError(err).WithField("telegramID", telegramID).Warn("Failed to load recent transactions")
	}

	b.reply(chatID, formatProfile(user, txs))
}

func (b *Bot) handleRaffleList(ctx context.Context, chatID int64) {
	text, markup, err := b.buildRaffleView(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to build raffle view")
		b.reply(chatID, msgStorageTrouble)
		return
	}

	if markup == nil {
		b.reply(chatID, text)
		return
	}
	b.replyWithMarkup(chatID, text, *markup)
}

func (b *Bot) handleShopList(ctx context.Context, chatID int64) {
	text, markup, err := b.buildShopView(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to build shop view")
		b.reply(chatID, msgStorageTrouble)
		return
	}

	if markup == nil {
		b.reply(chatID, text)
		return
	}
	b.replyWithMarkup(chatID, text, *markup)
}

func (b *Bot) handleInvite(chatID int64, user *models.User) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("I have a code", callbackRedeem),
		),
	)
	b.replyWithMarkup(chatID, formatInvite(user), markup)
}

func (b *Bot) handleRedeemCommand(ctx context.Context, message *tgbotapi.Message) {
	if code := strings.TrimSpace(message.CommandArguments()); code != "" {
		b.redeemCode(ctx, message.From.ID, message.Chat.ID, code)
		return
	}

	b.conversations.Set(message.From.ID, StateAwaitingInviteCode)
	b.reply(message.Chat.ID, "Send me the invite code you received.")
}

func (b *Bot) redeemCode(ctx context.Context, telegramID, chatID int64, code string) {
	result, err := b.rewardService.RedeemReferralCode(ctx, telegramID, code)
	if err != nil {
		b.replyError(chatID, err, "Unable to redeem the code. Please try again.")
		return
	}

	b.reply(chatID, formatReferralRedeemed(result))
}

func (b *Bot) handleBroadcastCommand(ctx context.Context, message *tgbotapi.Message) {
	if message.From.ID != b.config.AdminTelegramID || b.config.AdminTelegramID == 0 {
		return
	}
	if b.broadcastService == nil {
		return
	}

	if text := strings.TrimSpace(message.CommandArguments()); text != "" {
		b.runBroadcast(ctx, message.Chat.ID, text)
		return
	}

	b.conversations.Set(message.From.ID, StateAwaitingBroadcast)
	b.reply(message.Chat.ID, "Send the message to broadcast, or /cancel.")
}

// handleSetRewardCommand adjusts a reward amount at runtime:
// /setreward daily 15, /setreward referral 5, /setreward signup 10.
// New amounts take effect on the next claim; past transactions are untouched.
func (b *Bot) handleSetRewardCommand(ctx context.Context, message *tgbotapi.Message) {
	if message.From.ID != b.config.AdminTelegramID || b.config.AdminTelegramID == 0 {
		return
	}

	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		b.reply(message.Chat.ID, "Usage: /setreward <daily|referral|signup> <amount>")
		return
	}

	var key string
	switch args[0] {
	case "daily":
		key = models.SettingDailyRewardAmount
	case "referral":
		key = models.SettingReferralRewardAmount
	case "signup":
		key = models.SettingSignupBonus
	default:
		b.reply(message.Chat.ID, "Usage: /setreward <daily|referral|signup> <amount>")
		return
	}

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount < 0 {
		b.reply(message.Chat.ID, "The amount must be a non-negative number.")
		return
	}

	if err := b.settingsService.Set(ctx, key, strconv.FormatInt(amount, 10)); err != nil {
		log.WithError(err).WithField("key", key).Error("Failed to store setting")
		b.reply(message.Chat.ID, msgStorageTrouble)
		return
	}

	b.reply(message.Chat.ID, fmt.Sprintf("The %s reward is now %d coins.", args[0], amount))
}

func (b *Bot) runBroadcast(ctx context.Context, chatID int64, text string) {
	report, err := b.broadcastService.Broadcast(ctx, text)
	if err != nil {
		log.WithError(err).Error("Broadcast failed")
		b.reply(chatID, "Broadcast failed.")
		return
	}

	b.reply(chatID, formatBroadcastReport(report))
}

func (b *Bot) enterRaffle(ctx context.Context, telegramID, chatID int64, raffleID int64) {
	receipt, err := b.raffleService.EnterRaffle(ctx, telegramID, raffleID)
	if err != nil {
		b.replyError(chatID, err, "Unable to enter the raffle. Please try again.")
		return
	}

	b.reply(chatID, formatRaffleReceipt(receipt))
}

func (b *Bot) purchaseItem(ctx context.Context, telegramID, chatID int64, itemID int64) {
	receipt, err := b.shopService.PurchaseItem(ctx, telegramID, itemID, 1)
	if err != nil {
		b.replyError(chatID, err, "Unable to complete the purchase. Please try again.")
		return
	}

	b.reply(chatID, formatPurchaseReceipt(receipt))
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil {
		return
	}

	if _, err := b.userService.GetOrCreateUser(ctx, query.From.ID, query.From.UserName, query.From.FirstName); err != nil {
		log.WithError(err).WithField("telegramID", query.From.ID).Error("Failed to get or create user")
		b.answerCallback(query, msgStorageTrouble)
		return
	}

	data := query.Data
	switch {
	case data == callbackRedeem:
		b.conversations.Set(query.From.ID, StateAwaitingInviteCode)
		b.answerCallback(query, "")
		if query.Message != nil {
			b.reply(query.Message.Chat.ID, "Send me the invite code you received.")
		}

	case strings.HasPrefix(data, callbackRafflePrefix):
		raffleID, err := strconv.ParseInt(strings.TrimPrefix(data, callbackRafflePrefix), 10, 64)
		if err != nil {
			b.answerCallback(query, "")
			return
		}
		b.handleRaffleCallback(ctx, query, raffleID)

	case strings.HasPrefix(data, callbackShopPrefix):
		itemID, err := strconv.ParseInt(strings.TrimPrefix(data, callbackShopPrefix), 10, 64)
		if err != nil {
			b.answerCallback(query, "")
			return
		}
		b.handleShopCallback(ctx, query, itemID)

	default:
		b.answerCallback(query, "")
	}
}

func (b *Bot) handleRaffleCallback(ctx context.Context, query *tgbotapi.CallbackQuery, raffleID int64) {
	receipt, err := b.raffleService.EnterRaffle(ctx, query.From.ID, raffleID)
	if err != nil {
		b.answerCallback(query, callbackErrorText(err, "Unable to enter the raffle."))
		return
	}

	b.answerCallback(query, formatRaffleReceipt(receipt))
	b.refreshRaffleMessage(ctx, query)
}

func (b *Bot) handleShopCallback(ctx context.Context, query *tgbotapi.CallbackQuery, itemID int64) {
	receipt, err := b.shopService.PurchaseItem(ctx, query.From.ID, itemID, 1)
	if err != nil {
		b.answerCallback(query, callbackErrorText(err, "Unable to complete the purchase."))
		return
	}

	b.answerCallback(query, formatPurchaseReceipt(receipt))
	b.refreshShopMessage(ctx, query)
}

// refreshRaffleMessage re-renders the raffle menu in place after a successful
// entry so the shown entry counts stay current
func (b *Bot) refreshRaffleMessage(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}

	text, markup, err := b.buildRaffleView(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to rebuild raffle view")
		return
	}
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text, markup)
}

func (b *Bot) refreshShopMessage(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}

	text, markup, err := b.buildShopView(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to rebuild shop view")
		return
	}
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text, markup)
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	var edit tgbotapi.Chattable
	if markup != nil {
		m := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
		edit = m
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}

	if _, err := b.api.Send(edit); err != nil {
		log.WithError(err).WithField("chatID", chatID).Warn("Failed to edit message")
	}
}

func (b *Bot) answerCallback(query *tgbotapi.CallbackQuery, text string) {
	callback := tgbotapi.NewCallback(query.ID, text)
	if _, err := b.api.Request(callback); err != nil {
		log.WithError(err).Warn("Failed to answer callback query")
	}
}

// replyError sends the specific message for a known rejection, or the given
// fallback for storage failures
func (b *Bot) replyError(chatID int64, err error, fallback string) {
	if service.IsRejection(err) {
		b.reply(chatID, rejectionMessage(err))
		return
	}
	log.WithError(err).Error("Operation failed")
	b.reply(chatID, fallback)
}

func callbackErrorText(err error, fallback string) string {
	if service.IsRejection(err) {
		return rejectionMessage(err)
	}
	log.WithError(err).Error("Operation failed")
	return fallback
}
