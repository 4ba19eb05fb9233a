package core

import (
	"context"
	"time"
)

// Reply is what the gateway delivers back to the user: plain text,
// or an image locator with a caption.
type Reply struct {
	Text     string
	ImageURL string
	Caption  string
}

// PresetButton is one entry of the scene-preset registry, used by the
// gateway to render selection keyboards. The core owns the tokens, the
// gateway owns the markup.
type PresetButton struct {
	Token string
	Label string
}

type PhotoService interface {
	OnText(ctx context.Context, userId int64, text string) Reply
	OnPhoto(ctx context.Context, userId int64, photo []byte) Reply
	OnSelect(ctx context.Context, userId int64, token string) Reply
	ScenePresets() []PresetButton
	Styles() []PresetButton
	GrantEntitlement(userId int64, d time.Duration) error
	Close() error
}
