package market

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/dormmarket/market-bot/internal/models"
	"github.com/dormmarket/market-bot/internal/store"
)

// Config carries the policy knobs decided per deployment.
type Config struct {
	AdminIDs          []int64
	ModerationEnabled bool
	WrapNavigation    bool
	ShowSellerPhone   bool
}

// Router is the single entry point for inbound events. It classifies each
// event (maintenance guard, contact capture, cancel, active submission,
// command) and dispatches to the owning component.
type Router struct {
	users      *store.UserRepository
	ads        *store.AdRepository
	transport  Transport
	sessions   *Sessions
	workflow   *Workflow
	feed       *Feed
	moderation *Moderation
	interest   *Interest
}

func NewRouter(users *store.UserRepository, ads *store.AdRepository, settings *store.SettingsRepository, transport Transport, cfg Config) *Router {
	sessions := NewSessions()
	return &Router{
		users:      users,
		ads:        ads,
		transport:  transport,
		sessions:   sessions,
		workflow:   NewWorkflow(sessions, ads, transport, cfg.ModerationEnabled, cfg.AdminIDs),
		feed:       NewFeed(ads, transport, cfg.WrapNavigation),
		moderation: NewModeration(ads, users, settings, transport, cfg.AdminIDs),
		interest:   NewInterest(ads, users, transport, cfg.ShowSellerPhone),
	}
}

// Moderation exposes the gate for boot-time flag loading.
func (r *Router) Moderation() *Moderation {
	return r.moderation
}

// HandleEvent processes one inbound event to completion.
func (r *Router) HandleEvent(ctx context.Context, ev Event) error {
	if err := r.users.Touch(ctx, ev.UserID, ev.Username); err != nil {
		log.Printf("Error touching user %d: %v", ev.UserID, err)
	}

	if r.moderation.UnderMaintenance() && !r.moderation.IsAdmin(ev.UserID) {
		return r.transport.SendText(ctx, ev.ChatID,
			"🛠 Бот на техработах. Возвращайся чуть позже!",
			Buttons{Kind: ButtonsNone})
	}

	if ev.Phone != "" {
		return r.saveContact(ctx, ev)
	}

	// Cancel wins over everything, including step validation.
	if ev.Command == CmdCancel {
		if r.sessions.Active(ev.UserID) {
			return r.workflow.Cancel(ctx, ev)
		}
		return r.transport.SendText(ctx, ev.ChatID, "Нечего отменять 🙂",
			Buttons{Kind: ButtonsMainMenu})
	}

	if r.sessions.Active(ev.UserID) {
		return r.workflow.Handle(ctx, ev)
	}

	switch ev.Command {
	case CmdStart:
		return r.start(ctx, ev)
	case CmdNewAd:
		return r.newAd(ctx, ev)
	case CmdBrowse:
		return r.feed.Start(ctx, ev, parseCategory(ev.Arg))
	case CmdNext:
		return r.feed.Advance(ctx, ev, parseCategory(ev.Arg), +1)
	case CmdPrev:
		return r.feed.Advance(ctx, ev, parseCategory(ev.Arg), -1)
	case CmdInterest:
		return r.expressInterest(ctx, ev)
	case CmdMyAds:
		return r.myAds(ctx, ev)
	case CmdDeleteAd:
		return r.deleteAd(ctx, ev)
	case CmdProfile:
		return r.profile(ctx, ev)
	case CmdModerate:
		return r.admin(ctx, ev, func() error { return r.moderation.Queue(ctx, ev) })
	case CmdModNext:
		return r.admin(ctx, ev, func() error { return r.moderation.QueueAdvance(ctx, ev) })
	case CmdApprove:
		return r.admin(ctx, ev, func() error {
			id, err := parseID(ev.Arg)
			if err != nil {
				return r.transport.SendText(ctx, ev.ChatID, "Не понял номер объявления.", Buttons{Kind: ButtonsNone})
			}
			return r.moderation.Approve(ctx, ev, id)
		})
	case CmdReject:
		return r.admin(ctx, ev, func() error {
			id, err := parseID(ev.Arg)
			if err != nil {
				return r.transport.SendText(ctx, ev.ChatID, "Не понял номер объявления.", Buttons{Kind: ButtonsNone})
			}
			return r.moderation.Reject(ctx, ev, id)
		})
	case CmdMaintenance:
		return r.admin(ctx, ev, func() error { return r.toggleMaintenance(ctx, ev) })
	case CmdBroadcast:
		return r.admin(ctx, ev, func() error { return r.broadcast(ctx, ev) })
	}

	// Not a command, no session: nudge towards the menu.
	return r.transport.SendText(ctx, ev.ChatID,
		"Выбери действие на клавиатуре или напиши /start.",
		Buttons{Kind: ButtonsMainMenu})
}

func (r *Router) start(ctx context.Context, ev Event) error {
	user, err := r.users.GetByID(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if !user.Verified() {
		return r.transport.SendText(ctx, ev.ChatID,
			"Привет! Это барахолка общаги 🏠\n\nЧтобы продавать и покупать, поделись номером телефона.",
			Buttons{Kind: ButtonsContact})
	}
	return r.transport.SendText(ctx, ev.ChatID,
		"Привет! Это барахолка общаги 🏠\n\nСмотри объявления или выставляй своё.",
		Buttons{Kind: ButtonsMainMenu})
}

func (r *Router) saveContact(ctx context.Context, ev Event) error {
	if err := r.users.SetPhone(ctx, ev.UserID, ev.Phone); err != nil {
		return err
	}
	return r.transport.SendText(ctx, ev.ChatID,
		"📱 Телефон сохранён. Теперь тебе доступно всё меню!",
		Buttons{Kind: ButtonsMainMenu})
}

func (r *Router) newAd(ctx context.Context, ev Event) error {
	user, err := r.users.GetByID(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if !user.Verified() {
		return r.transport.SendText(ctx, ev.ChatID,
			"Сначала поделись номером телефона — покупателям нужен твой контакт.",
			Buttons{Kind: ButtonsContact})
	}
	if ev.Arg == "" {
		return r.transport.SendText(ctx, ev.ChatID,
			"Что продаём?",
			Buttons{Kind: ButtonsCategory})
	}
	return r.workflow.Start(ctx, ev, parseCategory(ev.Arg))
}

// expressInterest resolves contacts and then auto-advances the feed so the
// viewer lands on the next ad.
func (r *Router) expressInterest(ctx context.Context, ev Event) error {
	idStr, categoryStr, _ := strings.Cut(ev.Arg, ":")
	id, err := parseID(idStr)
	if err != nil {
		return r.transport.SendText(ctx, ev.ChatID, "Не понял номер объявления.",
			Buttons{Kind: ButtonsMainMenu})
	}
	if err := r.interest.Express(ctx, ev, id); err != nil {
		return err
	}
	if categoryStr == "" {
		return nil
	}
	return r.feed.Advance(ctx, ev, parseCategory(categoryStr), +1)
}

func (r *Router) myAds(ctx context.Context, ev Event) error {
	ads, err := r.ads.ListByOwner(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if len(ads) == 0 {
		return r.transport.SendText(ctx, ev.ChatID,
			"У тебя пока нет объявлений. Самое время выставить что-нибудь!",
			Buttons{Kind: ButtonsMainMenu})
	}
	for _, ad := range ads {
		if err := r.transport.SendPhoto(ctx, ev.ChatID, ad.PhotoID,
			ownAdCaption(ad), Buttons{Kind: ButtonsOwnAd, AdID: ad.ID}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) deleteAd(ctx context.Context, ev Event) error {
	id, err := parseID(ev.Arg)
	if err != nil {
		return r.transport.SendText(ctx, ev.ChatID, "Не понял номер объявления.",
			Buttons{Kind: ButtonsMainMenu})
	}

	ownerID := ev.UserID
	if r.moderation.IsAdmin(ev.UserID) {
		ownerID = 0
	}
	err = r.ads.Delete(ctx, id, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		// Missing or owned by someone else; either way nothing applied.
		return r.transport.SendText(ctx, ev.ChatID,
			"Объявление не найдено или оно не твоё.",
			Buttons{Kind: ButtonsMainMenu})
	}
	if err != nil {
		return err
	}
	return r.transport.SendText(ctx, ev.ChatID,
		fmt.Sprintf("🗑 Объявление #%d удалено.", id),
		Buttons{Kind: ButtonsMainMenu})
}

func (r *Router) profile(ctx context.Context, ev Event) error {
	user, err := r.users.GetByID(ctx, ev.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return r.transport.SendText(ctx, ev.ChatID,
			"👤 Профиль\n\n❌ Профиль не найден.\nПопробуй написать /start",
			Buttons{Kind: ButtonsMainMenu})
	}
	if err != nil {
		return err
	}
	return r.transport.SendText(ctx, ev.ChatID, profileText(user),
		Buttons{Kind: ButtonsMainMenu})
}

func (r *Router) toggleMaintenance(ctx context.Context, ev Event) error {
	on, err := r.moderation.ToggleMaintenance(ctx)
	if err != nil {
		return err
	}
	text := "🛠 Техработы включены. Бот отвечает только админам."
	if !on {
		text = "✅ Техработы выключены. Бот снова доступен всем."
	}
	return r.transport.SendText(ctx, ev.ChatID, text, Buttons{Kind: ButtonsNone})
}

// broadcast delivers an announcement to every known user, best effort.
func (r *Router) broadcast(ctx context.Context, ev Event) error {
	text := strings.TrimSpace(ev.Arg)
	if text == "" {
		return r.transport.SendText(ctx, ev.ChatID,
			"Использование: /broadcast <текст>", Buttons{Kind: ButtonsNone})
	}

	ids, err := r.users.ListIDs(ctx)
	if err != nil {
		return err
	}

	sent := 0
	for _, id := range ids {
		if id == ev.UserID {
			continue
		}
		if err := r.transport.SendText(ctx, id, "📢 "+text, Buttons{Kind: ButtonsNone}); err != nil {
			log.Printf("Error broadcasting to user %d: %v", id, err)
			continue
		}
		sent++
	}
	return r.transport.SendText(ctx, ev.ChatID,
		fmt.Sprintf("📢 Доставлено %d из %d.", sent, len(ids)-1),
		Buttons{Kind: ButtonsNone})
}

func (r *Router) admin(ctx context.Context, ev Event, fn func() error) error {
	if !r.moderation.IsAdmin(ev.UserID) {
		return r.transport.SendText(ctx, ev.ChatID, "⛔ Нет доступа.",
			Buttons{Kind: ButtonsMainMenu})
	}
	return fn()
}

func parseCategory(arg string) models.Category {
	if models.Category(arg) == models.CategoryItem {
		return models.CategoryItem
	}
	return models.CategoryFood
}

func parseID(arg string) (int64, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, fmt.Errorf("no ID provided")
	}
	return strconv.ParseInt(arg, 10, 64)
}
