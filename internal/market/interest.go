package market

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dormmarket/market-bot/internal/store"
)

// Interest connects a viewer with an ad's seller: the viewer learns the
// pickup location and the seller's contact, the seller learns who is
// interested. The two effects are independent; the seller notification is
// fire-and-forget.
type Interest struct {
	ads       *store.AdRepository
	users     *store.UserRepository
	transport Transport
	showPhone bool
}

func NewInterest(ads *store.AdRepository, users *store.UserRepository, transport Transport, showPhone bool) *Interest {
	return &Interest{ads: ads, users: users, transport: transport, showPhone: showPhone}
}

// Express handles one interest press on an ad. The ad may have vanished
// between render and press; that reports softly and changes nothing.
func (i *Interest) Express(ctx context.Context, ev Event, adID int64) error {
	ad, err := i.ads.GetByID(ctx, adID)
	if errors.Is(err, store.ErrNotFound) {
		return i.transport.SendText(ctx, ev.ChatID,
			"Объявление не найдено — похоже, его уже забрали.",
			Buttons{Kind: ButtonsMainMenu})
	}
	if err != nil {
		return err
	}

	seller, err := i.users.GetByID(ctx, ad.OwnerID)
	if errors.Is(err, store.ErrNotFound) {
		return i.transport.SendText(ctx, ev.ChatID,
			"Продавец не найден 😔",
			Buttons{Kind: ButtonsMainMenu})
	}
	if err != nil {
		return err
	}

	// Effect 1: the viewer's response must complete regardless of what
	// happens to the seller notification.
	reply := fmt.Sprintf(
		"🤝 Отлично! Вот детали:\n\n📍 Забирать: Общага %d, %s\n👤 Продавец: %s",
		ad.Dorm, ad.Spot, contactLine(seller, i.showPhone))
	if err := i.transport.SendText(ctx, ev.ChatID, reply, Buttons{Kind: ButtonsNone}); err != nil {
		return err
	}

	// Effect 2: best effort. The viewer may have blocked the bot's
	// messages to the seller's chat; swallow and log.
	viewer, err := i.users.GetByID(ctx, ev.UserID)
	viewerContact := "@" + ev.Username
	if err == nil {
		viewerContact = contactLine(viewer, true)
	}
	notice := fmt.Sprintf(
		"✋ Твоим объявлением #%d (%s) интересуются!\nПокупатель: %s",
		ad.ID, ad.Price, viewerContact)
	if err := i.transport.SendText(ctx, ad.OwnerID, notice, Buttons{Kind: ButtonsNone}); err != nil {
		log.Printf("Error notifying seller %d about ad %d: %v", ad.OwnerID, ad.ID, err)
	}

	return nil
}
