package market

import (
	"fmt"
	"strings"

	"github.com/dormmarket/market-bot/internal/models"
)

var categoryTitles = map[models.Category]string{
	models.CategoryFood: "🍕 Еда",
	models.CategoryItem: "📦 Вещи",
}

// adCaption builds the feed card for one ad.
func adCaption(ad models.Ad, pos, total int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s • %d из %d\n", categoryTitles[ad.Category], pos+1, total))
	sb.WriteString("━━━━━━━━━━━━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("💵 Цена: %s\n\n", ad.Price))
	sb.WriteString(ad.Description)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("📍 Общага %d, %s\n", ad.Dorm, ad.Spot))
	sb.WriteString(fmt.Sprintf("👁 Просмотров: %d", ad.Views))

	return sb.String()
}

// pendingCaption builds the moderation card for one pending ad.
func pendingCaption(ad models.Ad, ownerContact string, pos, total int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🛂 На модерации • %d из %d\n", pos+1, total))
	sb.WriteString("━━━━━━━━━━━━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("#%d • %s\n", ad.ID, categoryTitles[ad.Category]))
	sb.WriteString(fmt.Sprintf("💵 Цена: %s\n\n", ad.Price))
	sb.WriteString(ad.Description)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("📍 Общага %d, %s\n", ad.Dorm, ad.Spot))
	sb.WriteString(fmt.Sprintf("👤 Автор: %s", ownerContact))

	return sb.String()
}

// ownAdCaption builds the "my ads" card.
func ownAdCaption(ad models.Ad) string {
	status := "✅ опубликовано"
	if ad.Status == models.StatusPending {
		status = "🛂 на модерации"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("#%d • %s • %s\n", ad.ID, categoryTitles[ad.Category], status))
	sb.WriteString(fmt.Sprintf("💵 %s\n", ad.Price))
	sb.WriteString(fmt.Sprintf("📍 Общага %d, %s\n", ad.Dorm, ad.Spot))
	sb.WriteString(fmt.Sprintf("👁 Просмотров: %d", ad.Views))
	return sb.String()
}

// profileText builds the profile view.
func profileText(user models.User) string {
	username := "не указан"
	if user.Username != "" {
		username = "@" + user.Username
	}
	phone := "не указан"
	if user.Phone != "" {
		phone = user.Phone
	}

	return fmt.Sprintf("👤 Профиль\n\n👤 Username: %s\n📱 Телефон: %s", username, phone)
}

// contactLine is the public representation of a user's contact means.
// The phone is included only when policy allows.
func contactLine(user models.User, showPhone bool) string {
	var parts []string
	if user.Username != "" {
		parts = append(parts, "@"+user.Username)
	}
	if showPhone && user.Phone != "" {
		parts = append(parts, user.Phone)
	}
	if len(parts) == 0 {
		return "контакт скрыт"
	}
	return strings.Join(parts, ", ")
}
