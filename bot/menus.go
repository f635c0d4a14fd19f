package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coinbot/models"
	"coinbot/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackRedeem       = "redeem"
	callbackRafflePrefix = "raffle_"
	callbackShopPrefix   = "shop_"

	recentTransactionLimit = 5

	msgStorageTrouble = "Something went wrong on our side. Please try again in a moment."
)

const helpText = `Available commands:
/daily - Claim your daily coins
/profile - Balance, streak and recent activity
/raffles - Open raffles
/shop - Items you can buy with coins
/invite - Your invite code
/redeem - Redeem an invite code
/cancel - Cancel the current action

You can also reply with a number to pick from the raffle and shop lists.`

func welcomeText(user *models.User) string {
	return fmt.Sprintf(`Welcome, %s!

Check in every day with /daily to earn coins and build a streak.
Spend coins on /raffles and in the /shop.
Share your invite code with /invite to earn more.

Your balance: %d coins`, displayName(user), user.Coins)
}

func displayName(user *models.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.Username != "" {
		return user.Username
	}
	return "there"
}

func formatDailyClaim(result *service.DailyClaimResult) string {
	return fmt.Sprintf("Checked in! +%d coins (streak: %d days)\nBalance: %d coins",
		result.Amount, result.User.Streak, result.User.Coins)
}

func formatProfile(user *models.User, txs []*models.Transaction) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n", displayName(user))
	fmt.Fprintf(&sb, "Balance: %d coins\n", user.Coins)
	fmt.Fprintf(&sb, "Streak: %d days\n", user.Streak)
	fmt.Fprintf(&sb, "Invite code: %s\n", user.ReferralCode)

	if len(txs) > 0 {
		sb.WriteString("\nRecent activity:\n")
		for _, tx := range txs {
			fmt.Fprintf(&sb, "%s  %+d  %s\n",
				tx.CreatedAt.Format("Jan 02"), tx.Amount, tx.Description)
		}
	}

	return sb.String()
}

func formatInvite(user *models.User) string {
	return fmt.Sprintf(`Your invite code: %s

Friends can redeem it with /redeem, or join directly via your link.
You both earn coins when they do.`, user.ReferralCode)
}

func formatReferralRedeemed(result *service.ReferralResult) string {
	return fmt.Sprintf("Invite code accepted! You and %s each earned %d coins.\nYour balance: %d coins",
		displayName(result.Referrer), result.Amount, result.Referee.Coins)
}

func formatRaffleReceipt(receipt *service.RaffleReceipt) string {
	return fmt.Sprintf("You're in! %d %s for %s.\nBalance: %d coins",
		receipt.Entry.EntryCount, plural(receipt.Entry.EntryCount, "entry", "entries"),
		receipt.Raffle.Title, receipt.NewBalance)
}

func formatPurchaseReceipt(receipt *service.PurchaseReceipt) string {
	return fmt.Sprintf("Purchased %s for %d coins.\nBalance: %d coins",
		receipt.Item.Name, receipt.Purchase.TotalCost, receipt.NewBalance)
}

func formatBroadcastReport(report *service.BroadcastReport) string {
	return fmt.Sprintf("Broadcast done: %d sent, %d failed.", report.Sent, report.Failed)
}

// buildRaffleView renders the numbered raffle list with one entry button per
// raffle. A nil markup means there is nothing to click.
func (b *Bot) buildRaffleView(ctx context.Context) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	raffles, err := b.raffleService.ListOpenRaffles(ctx)
	if err != nil {
		return "", nil, err
	}

	if len(raffles) == 0 {
		return "No raffles are open right now. Check back later!", nil, nil
	}

	var sb strings.Builder
	sb.WriteString("Open raffles:\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, raffle := range raffles {
		fmt.Fprintf(&sb, "%d. %s - %d coins/entry", i+1, raffle.Title, raffle.EntryCost)
		if raffle.MaxEntries != nil {
			fmt.Fprintf(&sb, " (%d/%d entries)", raffle.CurrentEntries, *raffle.MaxEntries)
		}
		fmt.Fprintf(&sb, "\n   Prize: %s\n   Ends: %s\n\n",
			raffle.Prize, raffle.EndsAt.Format("Jan 02 15:04 MST"))

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Enter #%d (%d coins)", i+1, raffle.EntryCost),
				fmt.Sprintf("%s%d", callbackRafflePrefix, raffle.ID),
			),
		))
	}

	sb.WriteString("Tap a button or reply with the raffle number.")

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return sb.String(), &markup, nil
}

// buildShopView renders the numbered shop list, continuing the numbering after
// the raffle list so bare-number selection stays unambiguous
func (b *Bot) buildShopView(ctx context.Context) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	raffles, err := b.raffleService.ListOpenRaffles(ctx)
	if err != nil {
		return "", nil, err
	}
	offset := len(raffles)

	items, err := b.shopService.ListItems(ctx)
	if err != nil {
		return "", nil, err
	}

	if len(items) == 0 {
		return "The shop is empty right now. Check back later!", nil, nil
	}

	var sb strings.Builder
	sb.WriteString("Shop:\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, item := range items {
		number := offset + i + 1
		fmt.Fprintf(&sb, "%d. %s - %d coins", number, item.Name, item.Cost)
		if item.Stock != nil {
			fmt.Fprintf(&sb, " (%d left)", *item.Stock)
		}
		if item.Description != "" {
			fmt.Fprintf(&sb, "\n   %s", item.Description)
		}
		sb.WriteString("\n\n")

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Buy #%d (%d coins)", number, item.Cost),
				fmt.Sprintf("%s%d", callbackShopPrefix, item.ID),
			),
		))
	}

	sb.WriteString("Tap a button or reply with the item number.")

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return sb.String(), &markup, nil
}

// rejectionMessage maps a domain rejection onto its user-facing text
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrAlreadyClaimedToday):
		return "You've already checked in today. Come back tomorrow!"
	case errors.Is(err, service.ErrSelfReferral):
		return "You can't redeem your own invite code."
	case errors.Is(err, service.ErrAlreadyReferred):
		return "You've already redeemed an invite code."
	case errors.Is(err, service.ErrUnknownCode):
		return "That invite code doesn't exist. Double-check it and try again."
	case errors.Is(err, service.ErrInsufficientBalance):
		return "Not enough coins. Check in with /daily to earn more."
	case errors.Is(err, service.ErrRaffleClosed):
		return "That raffle is closed."
	case errors.Is(err, service.ErrOutOfStock):
		return "That item is sold out."
	case errors.Is(err, service.ErrUserNotFound):
		return "Send /start first so I know who you are."
	case errors.Is(err, service.ErrNotFound):
		return "That one doesn't exist anymore."
	default:
		return msgStorageTrouble
	}
}

func plural(n int64, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
