package market

import (
	"context"
	"log"
	"sync"

	"github.com/dormmarket/market-bot/internal/models"
	"github.com/dormmarket/market-bot/internal/store"
)

type cursorKey struct {
	viewer   int64
	category models.Category
}

// Feed presents approved ads one at a time per viewer and category. The
// cursor holds only a position; the result set is re-queried on every
// navigation so deletions and new ads are always reflected.
type Feed struct {
	ads       *store.AdRepository
	transport Transport
	wrap      bool

	mu  sync.Mutex
	pos map[cursorKey]int
}

func NewFeed(ads *store.AdRepository, transport Transport, wrap bool) *Feed {
	return &Feed{
		ads:       ads,
		transport: transport,
		wrap:      wrap,
		pos:       make(map[cursorKey]int),
	}
}

// Start resets the viewer's cursor for the category and shows the first ad.
func (f *Feed) Start(ctx context.Context, ev Event, category models.Category) error {
	ads, err := f.ads.ListApproved(ctx, category)
	if err != nil {
		return err
	}

	key := cursorKey{viewer: ev.UserID, category: category}
	if len(ads) == 0 {
		f.clear(key)
		return f.transport.SendText(ctx, ev.ChatID,
			"Пока нет объявлений 😔 Загляни позже.",
			Buttons{Kind: ButtonsMainMenu})
	}

	f.set(key, 0)
	return f.render(ctx, ev, ads, 0, category)
}

// Advance moves the cursor by delta (+1 next, -1 previous) over the freshly
// re-queried set. The stored position is re-clamped first because the set
// can shrink or grow between presses.
func (f *Feed) Advance(ctx context.Context, ev Event, category models.Category, delta int) error {
	ads, err := f.ads.ListApproved(ctx, category)
	if err != nil {
		return err
	}

	key := cursorKey{viewer: ev.UserID, category: category}
	if len(ads) == 0 {
		f.clear(key)
		return f.transport.SendText(ctx, ev.ChatID,
			"Объявления закончились 😔",
			Buttons{Kind: ButtonsMainMenu})
	}

	pos := clamp(f.get(key), 0, len(ads)-1)
	next := pos + delta
	if f.wrap {
		next = (next + len(ads)) % len(ads)
	} else if next < 0 || next >= len(ads) {
		f.set(key, pos)
		text := "Это последнее объявление."
		if next < 0 {
			text = "Это первое объявление."
		}
		return f.transport.SendText(ctx, ev.ChatID, text,
			Buttons{Kind: ButtonsBrowse, AdID: ads[pos].ID, Arg: string(category)})
	}

	f.set(key, next)
	return f.render(ctx, ev, ads, next, category)
}

func (f *Feed) render(ctx context.Context, ev Event, ads []models.Ad, pos int, category models.Category) error {
	ad := ads[pos]

	first, err := f.ads.MarkViewed(ctx, ad.ID, ev.UserID)
	if err != nil {
		log.Printf("Error marking ad %d viewed by %d: %v", ad.ID, ev.UserID, err)
	} else if first {
		ad.Views++
	}

	return f.transport.SendPhoto(ctx, ev.ChatID, ad.PhotoID,
		adCaption(ad, pos, len(ads)),
		Buttons{Kind: ButtonsBrowse, AdID: ad.ID, Arg: string(category)})
}

func (f *Feed) get(key cursorKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos[key]
}

func (f *Feed) set(key cursorKey, pos int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos[key] = pos
}

func (f *Feed) clear(key cursorKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pos, key)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
