package market

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dormmarket/market-bot/internal/models"
)

func TestInterestConnectsBothSides(t *testing.T) {
	f := newFixture(t, Config{WrapNavigation: true})
	f.seedUser(t, sellerID, "seller", "+79001112233")
	f.seedUser(t, viewerID, "buyer", "+79004445566")
	ad := f.seedAd(t, sellerID, models.CategoryFood, models.StatusApproved, "150")

	f.handle(t, Event{
		UserID:   viewerID,
		Username: "buyer",
		Command:  CmdInterest,
		Arg:      fmt.Sprintf("%d:food", ad.ID),
	})

	// The viewer sees the pickup location and the seller's handle.
	var viewerReply sent
	for _, msg := range f.transport.Sent {
		if msg.ChatID == viewerID && msg.PhotoID == "" {
			viewerReply = msg
			break
		}
	}
	wantContains(t, viewerReply.Text, "Общага 3")
	wantContains(t, viewerReply.Text, "у входа")
	wantContains(t, viewerReply.Text, "@seller")

	// The seller learns who is interested.
	sellerNotice := f.transport.last(t, sellerID)
	wantContains(t, sellerNotice.Text, "интересуются")
	wantContains(t, sellerNotice.Text, "@buyer")

	// The handler auto-advances the viewer's feed afterwards.
	last := f.transport.last(t, viewerID)
	if last.PhotoID == "" {
		t.Fatal("no feed render after interest")
	}
}

func TestInterestPhoneHiddenByDefault(t *testing.T) {
	f := newFixture(t, Config{ShowSellerPhone: false})
	f.seedUser(t, sellerID, "seller", "+79001112233")
	f.seedUser(t, viewerID, "buyer", "")
	ad := f.seedAd(t, sellerID, models.CategoryFood, models.StatusApproved, "150")

	f.handle(t, Event{UserID: viewerID, Command: CmdInterest, Arg: fmt.Sprintf("%d", ad.ID)})

	for _, msg := range f.transport.Sent {
		if msg.ChatID == viewerID && strings.Contains(msg.Text, "+79001112233") {
			t.Fatalf("seller phone leaked to viewer: %q", msg.Text)
		}
	}
}

func TestInterestPhoneShownWhenPolicyAllows(t *testing.T) {
	f := newFixture(t, Config{ShowSellerPhone: true})
	f.seedUser(t, sellerID, "seller", "+79001112233")
	f.seedUser(t, viewerID, "buyer", "")
	ad := f.seedAd(t, sellerID, models.CategoryFood, models.StatusApproved, "150")

	f.handle(t, Event{UserID: viewerID, Command: CmdInterest, Arg: fmt.Sprintf("%d", ad.ID)})

	found := false
	for _, msg := range f.transport.Sent {
		if msg.ChatID == viewerID && strings.Contains(msg.Text, "+79001112233") {
			found = true
		}
	}
	if !found {
		t.Fatal("policy allows the phone but it was not shown")
	}
}

func TestInterestHiddenContact(t *testing.T) {
	f := newFixture(t, Config{})
	f.seedUser(t, sellerID, "", "+79001112233") // no handle, phone hidden by policy
	f.seedUser(t, viewerID, "buyer", "")
	ad := f.seedAd(t, sellerID, models.CategoryFood, models.StatusApproved, "150")

	f.handle(t, Event{UserID: viewerID, Command: CmdInterest, Arg: fmt.Sprintf("%d", ad.ID)})

	wantContains(t, f.transport.last(t, viewerID).Text, "контакт скрыт")
}

func TestInterestSellerUnreachable(t *testing.T) {
	f := newFixture(t, Config{})
	f.seedUser(t, sellerID, "seller", "+79001112233")
	f.seedUser(t, viewerID, "buyer", "")
	ad := f.seedAd(t, sellerID, models.CategoryFood, models.StatusApproved, "150")

	// The seller has blocked the bot; the viewer must be unaffected.
	f.transport.FailFor[sellerID] = true
	f.handle(t, Event{UserID: viewerID, Command: CmdInterest, Arg: fmt.Sprintf("%d", ad.ID)})

	wantContains(t, f.transport.last(t, viewerID).Text, "Общага 3")
	if f.transport.countFor(sellerID) != 0 {
		t.Fatal("unreachable seller somehow received a message")
	}
}

func TestInterestInVanishedAd(t *testing.T) {
	f := newFixture(t, Config{})
	f.seedUser(t, viewerID, "buyer", "")

	f.handle(t, Event{UserID: viewerID, Command: CmdInterest, Arg: "424242"})

	wantContains(t, f.transport.last(t, viewerID).Text, "не найдено")
}
