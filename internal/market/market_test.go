package market

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dormmarket/market-bot/internal/db"
	"github.com/dormmarket/market-bot/internal/models"
	"github.com/dormmarket/market-bot/internal/store"
)

const (
	adminID  = int64(1)
	sellerID = int64(100)
	viewerID = int64(200)
)

type sent struct {
	ChatID  int64
	Text    string
	PhotoID string
	Buttons Buttons
}

// fakeTransport records outbound messages and can be told to fail
// deliveries to specific chats.
type fakeTransport struct {
	mu      sync.Mutex
	Sent    []sent
	FailFor map[int64]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{FailFor: make(map[int64]bool)}
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string, buttons Buttons) error {
	return f.record(sent{ChatID: chatID, Text: text, Buttons: buttons})
}

func (f *fakeTransport) SendPhoto(_ context.Context, chatID int64, photoID, caption string, buttons Buttons) error {
	return f.record(sent{ChatID: chatID, Text: caption, PhotoID: photoID, Buttons: buttons})
}

func (f *fakeTransport) record(msg sent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailFor[msg.ChatID] {
		return fmt.Errorf("chat %d is unreachable", msg.ChatID)
	}
	f.Sent = append(f.Sent, msg)
	return nil
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = nil
}

// last returns the most recent message sent to chatID.
func (f *fakeTransport) last(t *testing.T, chatID int64) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Sent) - 1; i >= 0; i-- {
		if f.Sent[i].ChatID == chatID {
			return f.Sent[i]
		}
	}
	t.Fatalf("no message sent to chat %d", chatID)
	return sent{}
}

func (f *fakeTransport) countFor(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, msg := range f.Sent {
		if msg.ChatID == chatID {
			n++
		}
	}
	return n
}

type fixture struct {
	router    *Router
	transport *fakeTransport
	users     *store.UserRepository
	ads       *store.AdRepository
	conn      *sql.DB
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if len(cfg.AdminIDs) == 0 {
		cfg.AdminIDs = []int64{adminID}
	}

	transport := newFakeTransport()
	users := store.NewUserRepository(conn)
	ads := store.NewAdRepository(conn)
	router := NewRouter(users, ads, store.NewSettingsRepository(conn), transport, cfg)

	return &fixture{
		router:    router,
		transport: transport,
		users:     users,
		ads:       ads,
		conn:      conn,
	}
}

func (f *fixture) seedUser(t *testing.T, id int64, username, phone string) {
	t.Helper()
	ctx := context.Background()
	if err := f.users.Touch(ctx, id, username); err != nil {
		t.Fatalf("seed user %d: %v", id, err)
	}
	if phone != "" {
		if err := f.users.SetPhone(ctx, id, phone); err != nil {
			t.Fatalf("set phone for %d: %v", id, err)
		}
	}
}

func (f *fixture) seedAd(t *testing.T, owner int64, category models.Category, status models.AdStatus, price string) models.Ad {
	t.Helper()
	if _, err := f.users.GetByID(context.Background(), owner); err != nil {
		f.seedUser(t, owner, "seller", "")
	}
	ad, err := f.ads.Create(context.Background(), models.Ad{
		OwnerID:     owner,
		Category:    category,
		PhotoID:     "photo-" + price,
		Price:       price,
		Description: "описание для " + price,
		Dorm:        3,
		Spot:        "у входа",
		Status:      status,
	})
	if err != nil {
		t.Fatalf("seed ad: %v", err)
	}
	return ad
}

func (f *fixture) handle(t *testing.T, ev Event) {
	t.Helper()
	if ev.ChatID == 0 {
		ev.ChatID = ev.UserID
	}
	if err := f.router.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("handle event %+v: %v", ev, err)
	}
}

func (f *fixture) countAds(t *testing.T) int {
	t.Helper()
	var n int
	if err := f.conn.QueryRow(`SELECT COUNT(*) FROM ads`).Scan(&n); err != nil {
		t.Fatalf("count ads: %v", err)
	}
	return n
}

func (f *fixture) step(userID int64) step {
	sess := f.router.sessions.get(userID)
	if sess == nil {
		return stepNone
	}
	return sess.Step
}

func wantContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Fatalf("message %q does not contain %q", got, want)
	}
}
