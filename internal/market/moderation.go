package market

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/dormmarket/market-bot/internal/store"
)

const maintenanceKey = "maintenance"

// Moderation owns the admin-only surfaces: the pending queue, the terminal
// approve/reject transitions, and the process-wide maintenance flag.
type Moderation struct {
	ads       *store.AdRepository
	users     *store.UserRepository
	settings  *store.SettingsRepository
	transport Transport
	adminIDs  []int64

	mu          sync.RWMutex
	maintenance bool
	queuePos    map[int64]int
}

func NewModeration(ads *store.AdRepository, users *store.UserRepository, settings *store.SettingsRepository, transport Transport, adminIDs []int64) *Moderation {
	return &Moderation{
		ads:       ads,
		users:     users,
		settings:  settings,
		transport: transport,
		adminIDs:  adminIDs,
		queuePos:  make(map[int64]int),
	}
}

// LoadMaintenance restores the persisted flag; a missing row means off.
func (m *Moderation) LoadMaintenance(ctx context.Context) error {
	value, err := m.settings.Get(ctx, maintenanceKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.maintenance = value == "on"
	m.mu.Unlock()
	return nil
}

func (m *Moderation) IsAdmin(userID int64) bool {
	for _, id := range m.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (m *Moderation) UnderMaintenance() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maintenance
}

// ToggleMaintenance flips and persists the flag, returning the new value.
func (m *Moderation) ToggleMaintenance(ctx context.Context) (bool, error) {
	m.mu.Lock()
	m.maintenance = !m.maintenance
	on := m.maintenance
	m.mu.Unlock()

	value := "off"
	if on {
		value = "on"
	}
	if err := m.settings.Set(ctx, maintenanceKey, value); err != nil {
		return on, err
	}
	return on, nil
}

// Queue resets the admin's cursor over pending ads and shows the first one.
func (m *Moderation) Queue(ctx context.Context, ev Event) error {
	m.setPos(ev.UserID, 0)
	return m.renderQueue(ctx, ev)
}

// QueueAdvance moves to the next pending ad.
func (m *Moderation) QueueAdvance(ctx context.Context, ev Event) error {
	m.setPos(ev.UserID, m.getPos(ev.UserID)+1)
	return m.renderQueue(ctx, ev)
}

// Approve publishes a pending ad. The transition is terminal: a second
// attempt on the same id reports that nothing was found.
func (m *Moderation) Approve(ctx context.Context, ev Event, adID int64) error {
	ad, err := m.ads.GetByID(ctx, adID)
	if err == nil {
		err = m.ads.Approve(ctx, adID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return m.transport.SendText(ctx, ev.ChatID,
			"Это объявление уже обработано или удалено.",
			Buttons{Kind: ButtonsNone})
	}
	if err != nil {
		return err
	}

	m.notifyOwner(ctx, ad.OwnerID,
		fmt.Sprintf("✅ Твоё объявление #%d прошло модерацию и опубликовано!", ad.ID))

	if err := m.transport.SendText(ctx, ev.ChatID,
		fmt.Sprintf("✅ Объявление #%d опубликовано.", ad.ID),
		Buttons{Kind: ButtonsNone}); err != nil {
		return err
	}
	return m.renderQueue(ctx, ev)
}

// Reject removes a pending ad; rejection is equivalent to deletion.
func (m *Moderation) Reject(ctx context.Context, ev Event, adID int64) error {
	ad, err := m.ads.GetByID(ctx, adID)
	if err == nil {
		err = m.ads.Reject(ctx, adID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return m.transport.SendText(ctx, ev.ChatID,
			"Это объявление уже обработано или удалено.",
			Buttons{Kind: ButtonsNone})
	}
	if err != nil {
		return err
	}

	m.notifyOwner(ctx, ad.OwnerID,
		fmt.Sprintf("❌ Твоё объявление #%d отклонено модератором.", ad.ID))

	if err := m.transport.SendText(ctx, ev.ChatID,
		fmt.Sprintf("🗑 Объявление #%d отклонено и удалено.", ad.ID),
		Buttons{Kind: ButtonsNone}); err != nil {
		return err
	}
	return m.renderQueue(ctx, ev)
}

// renderQueue re-queries the pending set and shows the ad at the clamped
// cursor position. An item leaving the set must never strand the cursor
// past the new end.
func (m *Moderation) renderQueue(ctx context.Context, ev Event) error {
	ads, err := m.ads.ListPending(ctx)
	if err != nil {
		return err
	}

	if len(ads) == 0 {
		m.clearPos(ev.UserID)
		return m.transport.SendText(ctx, ev.ChatID,
			"Нет объявлений на модерации 🎉",
			Buttons{Kind: ButtonsNone})
	}

	pos := clamp(m.getPos(ev.UserID), 0, len(ads)-1)
	m.setPos(ev.UserID, pos)
	ad := ads[pos]

	ownerContact := "контакт скрыт"
	owner, err := m.users.GetByID(ctx, ad.OwnerID)
	if err == nil {
		ownerContact = contactLine(owner, true)
	}

	return m.transport.SendPhoto(ctx, ev.ChatID, ad.PhotoID,
		pendingCaption(ad, ownerContact, pos, len(ads)),
		Buttons{Kind: ButtonsModerate, AdID: ad.ID})
}

// notifyOwner is best effort: the owner may have blocked the bot.
func (m *Moderation) notifyOwner(ctx context.Context, ownerID int64, text string) {
	if err := m.transport.SendText(ctx, ownerID, text, Buttons{Kind: ButtonsNone}); err != nil {
		log.Printf("Error notifying owner %d: %v", ownerID, err)
	}
}

func (m *Moderation) getPos(adminID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queuePos[adminID]
}

func (m *Moderation) setPos(adminID int64, pos int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queuePos[adminID] = pos
}

func (m *Moderation) clearPos(adminID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queuePos, adminID)
}
