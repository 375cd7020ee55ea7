package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dormmarket/market-bot/internal/market"
)

// Main menu button labels. The reverse mapping in labelRoutes is the only
// place label text is interpreted.
const (
	labelFood    = "🍕 Еда"
	labelItems   = "📦 Вещи"
	labelNewAd   = "➕ Подать объявление"
	labelMyAds   = "📋 Мои объявления"
	labelProfile = "👤 Профиль"
	labelCancel  = "❌ Отмена"
	labelContact = "📱 Поделиться номером"
)

type route struct {
	command market.Command
	arg     string
}

var labelRoutes = map[string]route{
	labelFood:    {command: market.CmdBrowse, arg: "food"},
	labelItems:   {command: market.CmdBrowse, arg: "item"},
	labelNewAd:   {command: market.CmdNewAd},
	labelMyAds:   {command: market.CmdMyAds},
	labelProfile: {command: market.CmdProfile},
	labelCancel:  {command: market.CmdCancel},
}

// keyboardFor renders the core's abstract button set as a concrete
// Telegram keyboard. Returns nil when no keyboard applies.
func keyboardFor(b market.Buttons) interface{} {
	switch b.Kind {
	case market.ButtonsMainMenu:
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(labelFood),
				tgbotapi.NewKeyboardButton(labelItems),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(labelNewAd),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(labelMyAds),
				tgbotapi.NewKeyboardButton(labelProfile),
			),
		)

	case market.ButtonsContact:
		kb := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButtonContact(labelContact),
			),
		)
		kb.OneTimeKeyboard = true
		return kb

	case market.ButtonsCancel:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(labelCancel, "cancel"),
			),
		)

	case market.ButtonsCategory:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(labelFood, "newad:food"),
				tgbotapi.NewInlineKeyboardButtonData(labelItems, "newad:item"),
			),
		)

	case market.ButtonsBrowse:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("prev:%s", b.Arg)),
				tgbotapi.NewInlineKeyboardButtonData("✋ Хочу!", fmt.Sprintf("interest:%d:%s", b.AdID, b.Arg)),
				tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("next:%s", b.Arg)),
			),
		)

	case market.ButtonsModerate:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить", fmt.Sprintf("approve:%d", b.AdID)),
				tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", fmt.Sprintf("reject:%d", b.AdID)),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⏭ Дальше", "mod_next"),
			),
		)

	case market.ButtonsOwnAd:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("delete:%d", b.AdID)),
			),
		)
	}

	return nil
}
