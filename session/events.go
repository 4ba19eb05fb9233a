package session

// Inbound events from the messaging gateway, as tagged variants. The
// dispatch table in machine.go is keyed by phase and event kind.

type eventKind int

const (
	kindText eventKind = iota
	kindAsset
	kindSelection
)

type Event interface {
	User() int64
	kind() eventKind
}

// TextEvent is free text typed by the user.
type TextEvent struct {
	UserId int64
	Text   string
}

func (e TextEvent) User() int64     { return e.UserId }
func (e TextEvent) kind() eventKind { return kindText }

// AssetEvent carries the bytes of an uploaded reference photo.
type AssetEvent struct {
	UserId int64
	Data   []byte
}

func (e AssetEvent) User() int64     { return e.UserId }
func (e AssetEvent) kind() eventKind { return kindAsset }

// SelectionEvent is a button press, carrying its callback token.
type SelectionEvent struct {
	UserId int64
	Token  string
}

func (e SelectionEvent) User() int64     { return e.UserId }
func (e SelectionEvent) kind() eventKind { return kindSelection }

// Control tokens understood by the machine. Scene preset tokens
// ("scene:...") are owned by the resolver registry.
const (
	TokenUpload = "upload"
	TokenDone   = "done"
	TokenReset  = "reset"
	TokenStyles = "styles"

	stylePrefix = "style:"
)
