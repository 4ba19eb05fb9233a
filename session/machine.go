package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"Mira/ai"
	"Mira/core"
	"Mira/holder"
	"Mira/lib/sl"
	"Mira/quota"
	"Mira/scene"
	"Mira/storage"
)

// Generation is the orchestrator as the machine sees it.
type Generation interface {
	Generate(ctx context.Context, userId int64, rawScene, style string) (*ai.Result, error)
}

type dispatchKey struct {
	phase storage.Phase
	kind  eventKind
}

type handlerFunc func(ctx context.Context, s *storage.UserSession, ev Event) core.Reply

// Machine routes each inbound event to the right component based on the
// user's current phase. It is long-lived and holds no per-request state:
// sessions are read from and written to the keyed store on every event.
// Events of one user are serialized by a per-user lock, different users
// proceed concurrently.
type Machine struct {
	conf      *core.Config
	log       *slog.Logger
	sessions  storage.SessionStorage
	refs      *holder.ReferenceManager
	generator Generation
	resolver  *scene.Resolver
	ledger    *quota.Ledger
	locks     sync.Map // userId -> *sync.Mutex
	dispatch  map[dispatchKey]handlerFunc
}

func NewMachine(conf *core.Config, log *slog.Logger, sessions storage.SessionStorage, refs *holder.ReferenceManager, generator Generation, resolver *scene.Resolver, ledger *quota.Ledger) *Machine {
	m := &Machine{
		conf:      conf,
		log:       log.With(sl.Module("session")),
		sessions:  sessions,
		refs:      refs,
		generator: generator,
		resolver:  resolver,
		ledger:    ledger,
	}

	// State x event-kind transition table. Selections share one handler,
	// "reset" in particular is legal from every phase.
	m.dispatch = map[dispatchKey]handlerFunc{
		{storage.PhaseIdle, kindText}:              m.handleSceneText,
		{storage.PhaseAwaitingScene, kindText}:     m.handleAwaitedSceneText,
		{storage.PhaseSelectingStyle, kindText}:    m.handleStyleText,
		{storage.PhaseAwaitingReference, kindText}: m.handleReferenceText,

		{storage.PhaseIdle, kindAsset}:              m.handleStrayAsset,
		{storage.PhaseAwaitingScene, kindAsset}:     m.handleStrayAsset,
		{storage.PhaseSelectingStyle, kindAsset}:    m.handleStrayAsset,
		{storage.PhaseAwaitingReference, kindAsset}: m.handleReferenceAsset,

		{storage.PhaseIdle, kindSelection}:              m.handleSelection,
		{storage.PhaseAwaitingScene, kindSelection}:     m.handleSelection,
		{storage.PhaseSelectingStyle, kindSelection}:    m.handleSelection,
		{storage.PhaseAwaitingReference, kindSelection}: m.handleSelection,
	}
	return m
}

func (m *Machine) userLock(userId int64) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(userId, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// loadSession lazily creates a default Idle session on first interaction.
func (m *Machine) loadSession(userId int64) *storage.UserSession {
	session, err := m.sessions.GetSession(userId)
	if err != nil {
		m.log.Error("getting session", slog.Int64("user", userId), sl.Err(err))
	}
	if session == nil {
		session = &storage.UserSession{
			UserId: userId,
			Phase:  storage.PhaseIdle,
			Style:  ai.DefaultStyle,
		}
	}
	if session.Style == "" {
		session.Style = ai.DefaultStyle
	}
	return session
}

// mutate reloads the session, applies fn and persists the result. Handlers
// go through it for phase/style changes so that reference-list updates made
// by the manager mid-event are never clobbered by a stale snapshot.
func (m *Machine) mutate(userId int64, fn func(*storage.UserSession)) *storage.UserSession {
	session := m.loadSession(userId)
	fn(session)
	if err := m.sessions.PutSession(session); err != nil {
		m.log.Error("saving session", slog.Int64("user", userId), sl.Err(err))
	}
	return session
}

func (m *Machine) handle(ctx context.Context, ev Event) core.Reply {
	mu := m.userLock(ev.User())
	mu.Lock()
	defer mu.Unlock()

	session := m.loadSession(ev.User())
	handler, ok := m.dispatch[dispatchKey{session.Phase, ev.kind()}]
	if !ok {
		return core.Reply{Text: msgUnknown}
	}
	return handler(ctx, session, ev)
}

// --- text events ---

func (m *Machine) handleSceneText(ctx context.Context, s *storage.UserSession, ev Event) core.Reply {
	text := strings.TrimSpace(ev.(TextEvent).Text)
	if text == "" {
		return core.Reply{Text: msgEmptyScene}
	}
	return m.generate(ctx, s, text)
}

// The awaited scene input returns the phase to Idle before the
// orchestrator runs; the generation itself causes no transition.
func (m *Machine) handleAwaitedSceneText(ctx context.Context, s *storage.UserSession, ev Event) core.Reply {
	text := strings.TrimSpace(ev.(TextEvent).Text)
	if text == "" {
		return core.Reply{Text: msgEmptyScene}
	}
	s = m.mutate(s.UserId, func(cur *storage.UserSession) {
		cur.Phase = storage.PhaseIdle
	})
	return m.generate(ctx, s, text)
}

func (m *Machine) handleStyleText(_ context.Context, s *storage.UserSession, ev Event) core.Reply {
	style := strings.TrimSpace(ev.(TextEvent).Text)
	if style == "" {
		return core.Reply{Text: msgChooseStyle}
	}
	return m.applyStyle(s.UserId, style)
}

func (m *Machine) handleReferenceText(_ context.Context, _ *storage.UserSession, _ Event) core.Reply {
	return core.Reply{Text: msgAwaitingPhoto}
}

// --- asset events ---

func (m *Machine) handleReferenceAsset(_ context.Context, s *storage.UserSession, ev Event) core.Reply {
	data := ev.(AssetEvent).Data

	if _, err := m.refs.AddAsset(s.UserId, data); err != nil {
		if errors.Is(err, holder.ErrCapacityExceeded) {
			return core.Reply{Text: fmt.Sprintf(msgCapacity, m.conf.MaxReferences)}
		}
		m.log.Error("storing reference", slog.Int64("user", s.UserId), sl.Err(err))
		return core.Reply{Text: msgInternal}
	}

	count := len(m.refs.ListAssets(s.UserId))
	if count >= m.conf.MaxReferences {
		m.mutate(s.UserId, func(cur *storage.UserSession) {
			cur.Phase = storage.PhaseIdle
		})
		return core.Reply{Text: msgPhotosComplete}
	}
	return core.Reply{Text: fmt.Sprintf(msgPhotoAccepted, count, m.conf.MaxReferences)}
}

func (m *Machine) handleStrayAsset(_ context.Context, _ *storage.UserSession, _ Event) core.Reply {
	return core.Reply{Text: msgStrayPhoto}
}

// --- selection events ---

func (m *Machine) handleSelection(ctx context.Context, s *storage.UserSession, ev Event) core.Reply {
	token := ev.(SelectionEvent).Token

	switch {
	case token == TokenReset:
		m.refs.ClearAssets(s.UserId)
		m.mutate(s.UserId, func(cur *storage.UserSession) {
			cur.Phase = storage.PhaseIdle
		})
		return core.Reply{Text: msgPhotosReset}

	case token == TokenUpload:
		// Changing the reference starts a fresh set.
		m.refs.ClearAssets(s.UserId)
		m.mutate(s.UserId, func(cur *storage.UserSession) {
			cur.Phase = storage.PhaseAwaitingReference
		})
		return core.Reply{Text: fmt.Sprintf(msgSendPhotos, m.conf.MaxReferences)}

	case token == TokenDone:
		if s.Phase != storage.PhaseAwaitingReference {
			return core.Reply{Text: msgUnknown}
		}
		if len(m.refs.ListAssets(s.UserId)) == 0 {
			return core.Reply{Text: msgNeedOnePhoto}
		}
		m.mutate(s.UserId, func(cur *storage.UserSession) {
			cur.Phase = storage.PhaseIdle
		})
		return core.Reply{Text: msgPhotosComplete}

	case token == TokenStyles:
		m.mutate(s.UserId, func(cur *storage.UserSession) {
			cur.Phase = storage.PhaseSelectingStyle
		})
		return core.Reply{Text: msgChooseStyle}

	case strings.HasPrefix(token, stylePrefix):
		return m.applyStyle(s.UserId, strings.TrimPrefix(token, stylePrefix))

	default:
		// Anything else is scene input: preset tokens resolve to their
		// configured descriptions, the rest falls through the resolver.
		if s.Phase == storage.PhaseAwaitingReference {
			return core.Reply{Text: msgAwaitingPhoto}
		}
		return m.generate(ctx, s, token)
	}
}

func (m *Machine) applyStyle(userId int64, style string) core.Reply {
	m.mutate(userId, func(cur *storage.UserSession) {
		cur.Style = style
		cur.Phase = storage.PhaseAwaitingScene
	})
	label, ok := styleLabels[style]
	if !ok {
		label = style
	}
	return core.Reply{Text: fmt.Sprintf(msgStyleChosen, label)}
}

func (m *Machine) generate(ctx context.Context, s *storage.UserSession, rawScene string) core.Reply {
	result, err := m.generator.Generate(ctx, s.UserId, rawScene, s.Style)
	if err != nil {
		return m.failureReply(s.UserId, err)
	}
	return core.Reply{
		ImageURL: result.ImageURL,
		Caption:  fmt.Sprintf(msgDoneCaption, result.Elapsed.Seconds()),
	}
}

func (m *Machine) failureReply(userId int64, err error) core.Reply {
	var failure *ai.Failure
	if !errors.As(err, &failure) {
		m.log.Error("generation failed", slog.Int64("user", userId), sl.Err(err))
		return core.Reply{Text: msgInternal}
	}

	m.log.With(
		slog.Int64("user", userId),
		slog.String("kind", string(failure.Kind)),
		sl.Preview(failure.Detail, 120),
	).Info("generation rejected")

	switch failure.Kind {
	case ai.FailNoReference:
		return core.Reply{Text: msgNoReference}
	case ai.FailQuotaExceeded:
		return core.Reply{Text: msgQuotaOver}
	case ai.FailBadResponse:
		return core.Reply{Text: msgBadResponse}
	case ai.FailProvider:
		return core.Reply{Text: fmt.Sprintf(msgProviderErr, failure.Detail)}
	default:
		return core.Reply{Text: msgInternal}
	}
}

// --- core.PhotoService ---

func (m *Machine) OnText(ctx context.Context, userId int64, text string) core.Reply {
	return m.handle(ctx, TextEvent{UserId: userId, Text: text})
}

func (m *Machine) OnPhoto(ctx context.Context, userId int64, photo []byte) core.Reply {
	return m.handle(ctx, AssetEvent{UserId: userId, Data: photo})
}

func (m *Machine) OnSelect(ctx context.Context, userId int64, token string) core.Reply {
	return m.handle(ctx, SelectionEvent{UserId: userId, Token: token})
}

func (m *Machine) ScenePresets() []core.PresetButton {
	return m.resolver.Presets()
}

func (m *Machine) Styles() []core.PresetButton {
	names := ai.StyleNames()
	buttons := make([]core.PresetButton, 0, len(names))
	for _, name := range names {
		label, ok := styleLabels[name]
		if !ok {
			label = name
		}
		buttons = append(buttons, core.PresetButton{Token: stylePrefix + name, Label: label})
	}
	return buttons
}

// GrantEntitlement is the trusted-operator override, wired to the admin
// command in the gateway.
func (m *Machine) GrantEntitlement(userId int64, d time.Duration) error {
	return m.ledger.GrantEntitlement(userId, d)
}

func (m *Machine) Close() error {
	return m.sessions.Close()
}
