package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dormmarket/market-bot/internal/db"
	"github.com/dormmarket/market-bot/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestUserTouchCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(newTestDB(t))

	if err := users.Touch(ctx, 42, "alice"); err != nil {
		t.Fatal(err)
	}
	user, err := users.GetByID(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "alice" || user.Phone != "" {
		t.Fatalf("user = %+v", user)
	}

	// A later touch refreshes the handle but keeps the phone.
	if err := users.SetPhone(ctx, 42, "+7900"); err != nil {
		t.Fatal(err)
	}
	if err := users.Touch(ctx, 42, "alice_renamed"); err != nil {
		t.Fatal(err)
	}
	user, err = users.GetByID(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "alice_renamed" || user.Phone != "+7900" {
		t.Fatalf("user after re-touch = %+v", user)
	}
}

func TestSetPhoneUnknownUser(t *testing.T) {
	users := NewUserRepository(newTestDB(t))
	if err := users.SetPhone(context.Background(), 999, "+7900"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListIDs(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(newTestDB(t))
	for _, id := range []int64{3, 1, 2} {
		if err := users.Touch(ctx, id, ""); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := users.ListIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Fatalf("ids = %v", ids)
	}
}

func seedAd(t *testing.T, conn *sql.DB, owner int64, category models.Category, status models.AdStatus) models.Ad {
	t.Helper()
	if err := NewUserRepository(conn).Touch(context.Background(), owner, "seller"); err != nil {
		t.Fatal(err)
	}
	ad, err := NewAdRepository(conn).Create(context.Background(), models.Ad{
		OwnerID:     owner,
		Category:    category,
		PhotoID:     "photo",
		Price:       "100",
		Description: "пельмени",
		Dorm:        3,
		Spot:        "у входа",
		Status:      status,
	})
	if err != nil {
		t.Fatal(err)
	}
	return ad
}

func TestAdCreateAndGet(t *testing.T) {
	conn := newTestDB(t)
	ads := NewAdRepository(conn)
	created := seedAd(t, conn, 7, models.CategoryFood, models.StatusPending)

	got, err := ads.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.OwnerID != 7 || got.Price != "100" || got.Status != models.StatusPending || got.Dorm != 3 {
		t.Fatalf("ad = %+v", got)
	}

	if _, err := ads.GetByID(context.Background(), created.ID+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApprovedOrderingNewestFirst(t *testing.T) {
	conn := newTestDB(t)
	ads := NewAdRepository(conn)
	first := seedAd(t, conn, 7, models.CategoryFood, models.StatusApproved)
	second := seedAd(t, conn, 7, models.CategoryFood, models.StatusApproved)
	seedAd(t, conn, 7, models.CategoryItem, models.StatusApproved)
	seedAd(t, conn, 7, models.CategoryFood, models.StatusPending)

	list, err := ads.ListApproved(context.Background(), models.CategoryFood)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	// Equal timestamps resolve by id descending.
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("order = [%d %d], want [%d %d]", list[0].ID, list[1].ID, second.ID, first.ID)
	}
}

func TestApproveIsTerminal(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	ads := NewAdRepository(conn)
	ad := seedAd(t, conn, 7, models.CategoryFood, models.StatusPending)

	if err := ads.Approve(ctx, ad.ID); err != nil {
		t.Fatal(err)
	}
	if err := ads.Approve(ctx, ad.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second approve err = %v, want ErrNotFound", err)
	}
	if err := ads.Reject(ctx, ad.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reject after approve err = %v, want ErrNotFound", err)
	}
}

func TestRejectDeletesRow(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	ads := NewAdRepository(conn)
	ad := seedAd(t, conn, 7, models.CategoryFood, models.StatusPending)

	if err := ads.Reject(ctx, ad.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := ads.GetByID(ctx, ad.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rejected ad still readable, err = %v", err)
	}
	if err := ads.Reject(ctx, ad.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second reject err = %v, want ErrNotFound", err)
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	ads := NewAdRepository(conn)
	ad := seedAd(t, conn, 7, models.CategoryFood, models.StatusApproved)

	if err := ads.Delete(ctx, ad.ID, 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete err = %v, want ErrNotFound", err)
	}
	if err := ads.Delete(ctx, ad.ID, 7); err != nil {
		t.Fatal(err)
	}

	// Zero owner bypasses the check (admin path).
	other := seedAd(t, conn, 7, models.CategoryFood, models.StatusApproved)
	if err := ads.Delete(ctx, other.ID, 0); err != nil {
		t.Fatal(err)
	}
}

func TestMarkViewedIdempotentPerViewer(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	ads := NewAdRepository(conn)
	ad := seedAd(t, conn, 7, models.CategoryFood, models.StatusApproved)

	first, err := ads.MarkViewed(ctx, ad.ID, 100)
	if err != nil || !first {
		t.Fatalf("first view: first=%v err=%v", first, err)
	}
	for i := 0; i < 3; i++ {
		again, err := ads.MarkViewed(ctx, ad.ID, 100)
		if err != nil || again {
			t.Fatalf("repeat view: first=%v err=%v", again, err)
		}
	}
	if first, err = ads.MarkViewed(ctx, ad.ID, 101); err != nil || !first {
		t.Fatalf("second viewer: first=%v err=%v", first, err)
	}

	got, err := ads.GetByID(ctx, ad.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Views != 2 {
		t.Fatalf("views = %d, want 2", got.Views)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	settings := NewSettingsRepository(newTestDB(t))

	if _, err := settings.Get(ctx, "maintenance"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing key err = %v, want ErrNotFound", err)
	}
	if err := settings.Set(ctx, "maintenance", "on"); err != nil {
		t.Fatal(err)
	}
	value, err := settings.Get(ctx, "maintenance")
	if err != nil || value != "on" {
		t.Fatalf("value=%q err=%v", value, err)
	}
	if err := settings.Set(ctx, "maintenance", "off"); err != nil {
		t.Fatal(err)
	}
	if value, _ = settings.Get(ctx, "maintenance"); value != "off" {
		t.Fatalf("value = %q, want off", value)
	}
}
