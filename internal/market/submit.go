package market

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/dormmarket/market-bot/internal/models"
	"github.com/dormmarket/market-bot/internal/store"
)

const (
	maxPriceLen    = 64
	minDescription = 3
	minSpot        = 3
	minDorm        = 1
	maxDorm        = 30
)

var affirmatives = map[string]bool{
	"да": true, "да!": true, "yes": true, "y": true, "ага": true, "+": true,
}

var negatives = map[string]bool{
	"нет": true, "no": true, "-": true,
}

// Workflow is the per-user ad submission state machine. One input event
// advances at most one step; invalid input re-prompts without advancing.
type Workflow struct {
	sessions     *Sessions
	ads          *store.AdRepository
	transport    Transport
	moderationOn bool
	adminIDs     []int64
}

func NewWorkflow(sessions *Sessions, ads *store.AdRepository, transport Transport, moderationOn bool, adminIDs []int64) *Workflow {
	return &Workflow{
		sessions:     sessions,
		ads:          ads,
		transport:    transport,
		moderationOn: moderationOn,
		adminIDs:     adminIDs,
	}
}

// Start opens a fresh session for the chosen category, superseding any
// previous one.
func (w *Workflow) Start(ctx context.Context, ev Event, category models.Category) error {
	w.sessions.set(ev.UserID, &session{
		Step:         stepAwaitPhoto,
		Draft:        models.Ad{OwnerID: ev.UserID, Category: category},
		LastActivity: time.Now(),
	})
	return w.transport.SendText(ctx, ev.ChatID,
		"📸 Шаг 1: Фото\n\nОтправь фото того, что продаёшь.",
		Buttons{Kind: ButtonsCancel})
}

// Cancel tears the session down unconditionally.
func (w *Workflow) Cancel(ctx context.Context, ev Event) error {
	w.sessions.clear(ev.UserID)
	return w.transport.SendText(ctx, ev.ChatID,
		"Окей, отменил. Возвращаю в меню.",
		Buttons{Kind: ButtonsMainMenu})
}

// Handle processes one input event for an active session.
func (w *Workflow) Handle(ctx context.Context, ev Event) error {
	sess := w.sessions.get(ev.UserID)
	if sess == nil || sess.Step == stepNone {
		return nil
	}
	sess.LastActivity = time.Now()

	text := strings.TrimSpace(ev.Text)

	switch sess.Step {
	case stepAwaitPhoto:
		if ev.PhotoID == "" {
			return w.transport.SendText(ctx, ev.ChatID,
				"❌ Нужно именно фото. Отправь его картинкой.",
				Buttons{Kind: ButtonsCancel})
		}
		sess.Draft.PhotoID = ev.PhotoID
		sess.Step = stepAwaitPrice
		return w.transport.SendText(ctx, ev.ChatID,
			"💵 Шаг 2: Цена\n\nНапиши цену (можно диапазон, например «100-200»).",
			Buttons{Kind: ButtonsCancel})

	case stepAwaitPrice:
		if text == "" || len([]rune(text)) > maxPriceLen {
			return w.transport.SendText(ctx, ev.ChatID,
				"❌ Цена должна быть непустой и короткой. Попробуй ещё раз.",
				Buttons{Kind: ButtonsCancel})
		}
		sess.Draft.Price = text
		sess.Step = stepAwaitDescription
		return w.transport.SendText(ctx, ev.ChatID,
			"📄 Шаг 3: Описание\n\nРасскажи, что продаёшь.",
			Buttons{Kind: ButtonsCancel})

	case stepAwaitDescription:
		if len([]rune(text)) < minDescription {
			return w.transport.SendText(ctx, ev.ChatID,
				"❌ Слишком коротко. Опиши товар хотя бы парой слов.",
				Buttons{Kind: ButtonsCancel})
		}
		sess.Draft.Description = text
		sess.Step = stepAwaitDorm
		return w.transport.SendText(ctx, ev.ChatID,
			fmt.Sprintf("🏠 Шаг 4: Общага\n\nНапиши номер общаги (%d-%d).", minDorm, maxDorm),
			Buttons{Kind: ButtonsCancel})

	case stepAwaitDorm:
		dorm, err := strconv.Atoi(text)
		if err != nil || dorm < minDorm || dorm > maxDorm {
			return w.transport.SendText(ctx, ev.ChatID,
				fmt.Sprintf("❌ Нужен номер общаги числом от %d до %d.", minDorm, maxDorm),
				Buttons{Kind: ButtonsCancel})
		}
		sess.Draft.Dorm = dorm
		sess.Step = stepAwaitSpot
		return w.transport.SendText(ctx, ev.ChatID,
			"📍 Шаг 5: Где забирать\n\nНапиши, где именно встретиться (этаж, комната, ориентир).",
			Buttons{Kind: ButtonsCancel})

	case stepAwaitSpot:
		if len([]rune(text)) < minSpot {
			return w.transport.SendText(ctx, ev.ChatID,
				"❌ Слишком коротко. Уточни место встречи.",
				Buttons{Kind: ButtonsCancel})
		}
		sess.Draft.Spot = text
		sess.Step = stepAwaitConfirm
		return w.transport.SendPhoto(ctx, ev.ChatID, sess.Draft.PhotoID,
			w.previewCaption(sess.Draft),
			Buttons{Kind: ButtonsCancel})

	case stepAwaitConfirm:
		answer := strings.ToLower(text)
		switch {
		case affirmatives[answer]:
			return w.commit(ctx, ev, sess.Draft)
		case negatives[answer]:
			w.sessions.clear(ev.UserID)
			return w.transport.SendText(ctx, ev.ChatID,
				"Ладно, ничего не публикую.",
				Buttons{Kind: ButtonsMainMenu})
		default:
			return w.transport.SendText(ctx, ev.ChatID,
				"Ответь «да» или «нет».",
				Buttons{Kind: ButtonsCancel})
		}
	}

	return nil
}

func (w *Workflow) previewCaption(draft models.Ad) string {
	var sb strings.Builder
	sb.WriteString("Вот что получилось:\n")
	sb.WriteString("━━━━━━━━━━━━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("💵 Цена: %s\n\n", draft.Price))
	sb.WriteString(draft.Description)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("📍 Общага %d, %s\n", draft.Dorm, draft.Spot))
	sb.WriteString("━━━━━━━━━━━━━━━━━━\n")
	sb.WriteString("Публикуем? (да/нет)")
	return sb.String()
}

func (w *Workflow) commit(ctx context.Context, ev Event, draft models.Ad) error {
	draft.Status = models.StatusApproved
	if w.moderationOn {
		draft.Status = models.StatusPending
	}

	ad, err := w.ads.Create(ctx, draft)
	if err != nil {
		log.Printf("Error creating ad for user %d: %v", ev.UserID, err)
		return w.transport.SendText(ctx, ev.ChatID,
			"❌ Не получилось сохранить объявление, попробуй позже.",
			Buttons{Kind: ButtonsCancel})
	}

	w.sessions.clear(ev.UserID)

	if w.moderationOn {
		// Best effort: an unreachable admin must not fail the submission.
		for _, adminID := range w.adminIDs {
			if err := w.transport.SendText(ctx, adminID,
				fmt.Sprintf("🛂 Новое объявление #%d ждёт модерации. Жми /moderate", ad.ID),
				Buttons{Kind: ButtonsNone}); err != nil {
				log.Printf("Error notifying admin %d about ad %d: %v", adminID, ad.ID, err)
			}
		}
		return w.transport.SendText(ctx, ev.ChatID,
			fmt.Sprintf("✅ Объявление #%d отправлено на модерацию.", ad.ID),
			Buttons{Kind: ButtonsMainMenu})
	}

	return w.transport.SendText(ctx, ev.ChatID,
		fmt.Sprintf("✅ Объявление #%d опубликовано!", ad.ID),
		Buttons{Kind: ButtonsMainMenu})
}
