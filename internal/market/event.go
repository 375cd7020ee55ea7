package market

import "context"

// Command is the tagged routing enum produced by the transport adapter.
// The core never matches on button labels or raw command strings; the
// adapter owns that mapping.
type Command int

const (
	CmdNone Command = iota
	CmdStart
	CmdCancel
	CmdNewAd    // Arg: category, empty until chosen
	CmdBrowse   // Arg: category
	CmdNext     // Arg: category
	CmdPrev     // Arg: category
	CmdInterest // Arg: ad id
	CmdMyAds
	CmdDeleteAd // Arg: ad id
	CmdProfile
	CmdModerate
	CmdModNext
	CmdApprove // Arg: ad id
	CmdReject  // Arg: ad id
	CmdMaintenance
	CmdBroadcast // Arg: broadcast text
)

// Event is a normalized inbound chat event: one message or button press
// from one sender.
type Event struct {
	UserID   int64
	ChatID   int64
	Username string
	Command  Command
	Arg      string
	Text     string
	PhotoID  string // largest photo variant, empty if none
	Phone    string // shared contact, empty if none
}

// ButtonsKind selects which fixed button set accompanies an outbound
// message. The adapter renders each kind as a concrete keyboard.
type ButtonsKind int

const (
	ButtonsNone ButtonsKind = iota
	ButtonsMainMenu
	ButtonsContact
	ButtonsCancel
	ButtonsCategory
	ButtonsBrowse   // prev / interest / next, payloads carry AdID and Arg
	ButtonsModerate // approve / reject / next, payloads carry AdID
	ButtonsOwnAd    // delete, payload carries AdID
)

// Buttons describes the button set for one outbound message.
type Buttons struct {
	Kind ButtonsKind
	AdID int64
	Arg  string // category for browse navigation payloads
}

// Transport is the outbound side of the chat platform. Implementations
// must be safe for interleaved use from multiple handlers.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, buttons Buttons) error
	SendPhoto(ctx context.Context, chatID int64, photoID, caption string, buttons Buttons) error
}
