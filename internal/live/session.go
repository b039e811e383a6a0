package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/collage/internal/canvas"
	"github.com/inamate/collage/internal/config"
	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/history"
	"github.com/inamate/collage/internal/premium"
	"github.com/inamate/collage/internal/session"
)

// ErrAnonymous is returned when an anonymous session tries to save.
var ErrAnonymous = errors.New("sign in to save collages")

// Saver persists the collage captured by a session.
type Saver interface {
	Save(ctx context.Context, c document.Collage, ownerID string) (document.Collage, error)
}

// Session is one editing session bound to a connection. It decodes client
// messages into editor calls and reports what changed through out. A Session
// is driven by a single goroutine.
type Session struct {
	id        string
	userID    string
	anonymous bool
	editor    *session.Editor
	gate      *premium.Gate
	saver     Saver
	collageID string
	out       func(*Message)
	seq       int64
	log       *slog.Logger
}

// SessionOptions describe who is editing what.
type SessionOptions struct {
	ID        string
	UserID    string
	Anonymous bool
	Pro       bool
	Template  document.Template
	// Collage, when set, is loaded into the editor and overwritten on save.
	Collage *document.Collage
	Saver   Saver
	Engine  config.Engine
	Width   float64
}

func NewSession(opts SessionOptions, out func(*Message)) *Session {
	s := &Session{
		id:        opts.ID,
		userID:    opts.UserID,
		anonymous: opts.Anonymous,
		saver:     opts.Saver,
		out:       out,
		log:       slog.Default().With("session", opts.ID, "user", opts.UserID),
	}
	s.gate = premium.NewGate(opts.Pro, func(featureID string) {
		s.emit(TypeUpgradeRequired, UpgradePayload{FeatureID: featureID})
	})
	s.editor = session.NewEditor(opts.Engine, opts.Template,
		session.WithGate(s.gate),
		session.WithLogger(s.log),
		session.WithCanvasWidth(opts.Width),
		session.WithPhotoPicker(canvas.PhotoPickerFunc(func(frameID string) {
			s.emit(TypePhotoRequest, FramePayload{FrameID: frameID})
		})),
		session.WithTransformListener(func(id string, t document.TransformState) {
			s.emit(TypeTransformUpdate, TransformPayload{ItemID: id, Transform: t})
		}),
		session.WithSelectionListener(
			func(sel canvas.Selection) { s.emit(TypeSelection, SelectionPayload{ID: sel.ID, Kind: sel.Kind}) },
			func() { s.emit(TypeSelection, SelectionPayload{}) },
		),
	)
	if opts.Collage != nil {
		s.collageID = opts.Collage.ID
		if err := s.editor.Load(*opts.Collage); err != nil {
			s.log.Warn("saved collage partially loaded", "collage", s.collageID, "error", err)
		}
	}
	return s
}

func (s *Session) Editor() *session.Editor { return s.editor }
func (s *Session) CollageID() string       { return s.collageID }

// Start sends the greeting and the first frame.
func (s *Session) Start() {
	c := s.editor.Canvas()
	size := c.Size()
	s.emit(TypeWelcome, WelcomePayload{
		SessionID: s.id,
		UserID:    s.userID,
		Pro:       s.gate.IsPro(),
		CollageID: s.collageID,
		Template:  c.Template(),
		Width:     size.Width,
		Height:    size.Height,
	})
	s.history("load", nil)
	s.render()
}

// Handle applies one client message. Failures are reported to the client as
// error messages; the session carries on.
func (s *Session) Handle(ctx context.Context, msg *Message) {
	if err := s.dispatch(ctx, msg); err != nil {
		s.log.Debug("request failed", "type", msg.Type, "error", err)
		s.emit(TypeError, ErrorPayload{Message: err.Error(), Request: msg.Type})
	}
}

func (s *Session) dispatch(ctx context.Context, msg *Message) error {
	e := s.editor
	switch msg.Type {
	case TypeTouch:
		var p TouchPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		prev := s.presentID()
		if err := e.HandleTouch(p.ItemID, p.TouchEvent); err != nil {
			return err
		}
		s.committed(prev)
		s.render()

	case TypeTap:
		var p TapPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		e.Tap(p.X, p.Y)
		s.render()

	case TypeFrameTap:
		var p FramePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if _, err := e.TapFrame(p.FrameID); err != nil {
			return err
		}
		s.render()

	case TypeDoubleTap:
		var p ItemPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if err := e.DoubleTap(p.ItemID); err != nil {
			return err
		}

	case TypeTick:
		var p TickPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		prev := s.presentID()
		if e.Tick(time.Duration(p.DT * float64(time.Millisecond))) {
			s.committed(prev)
			s.render()
		}

	case TypeStickerAdd:
		var p StickerAddPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if p.ContentRef == "" {
			return errors.New("contentRef is required")
		}
		if p.IsPremium && !s.gate.RequestFeatureAccess(premium.FeaturePremiumStickers) {
			return fmt.Errorf("%s requires pro", premium.FeaturePremiumStickers)
		}
		if _, err := e.AddSticker(p.ContentRef, p.IsPremium); err != nil {
			return err
		}
		s.edited()

	case TypeTextAdd:
		var p TextAddPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if _, err := e.AddText(p.Content, p.Style); err != nil {
			return err
		}
		s.edited()

	case TypeItemRemove:
		var p ItemPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if err := e.RemoveItem(p.ItemID); err != nil {
			return err
		}
		s.edited()

	case TypePhotoAssign:
		var p PhotoAssignPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if p.URI == "" {
			return errors.New("uri is required")
		}
		if err := e.AssignPhoto(p.FrameID, p.URI); err != nil {
			return err
		}
		s.edited()

	case TypePhotoRemove:
		var p FramePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if err := e.RemovePhoto(p.FrameID); err != nil {
			return err
		}
		s.edited()

	case TypeTextStyle:
		var p TextStylePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if err := e.SetTextStyle(p.ItemID, p.Style); err != nil {
			return err
		}
		s.edited()

	case TypeUndo:
		if a, ok := e.Undo(); ok {
			s.history("undo", a)
			s.render()
		}

	case TypeRedo:
		if a, ok := e.Redo(); ok {
			s.history("redo", a)
			s.render()
		}

	case TypeSave:
		return s.save(ctx)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// save captures the collage once no gesture or reset is in flight and hands
// it to the saver.
func (s *Session) save(ctx context.Context) error {
	if s.anonymous {
		return ErrAnonymous
	}
	if s.saver == nil {
		return errors.New("saving is not available")
	}
	s.editor.RequestCapture(func(col document.Collage) {
		col.ID = s.collageID
		saved, err := s.saver.Save(ctx, col, s.userID)
		if err != nil {
			s.log.Warn("save collage failed", "error", err)
			s.emit(TypeError, ErrorPayload{Message: err.Error(), Request: TypeSave})
			return
		}
		s.collageID = saved.ID
		s.log.Info("collage saved", "collage", saved.ID)
		s.emit(TypeSaved, SavedPayload{Collage: saved})
	})
	return nil
}

func (s *Session) presentID() string {
	if a, ok := s.editor.History().Present(); ok {
		return a.Info().ID
	}
	return ""
}

// committed reports a history push made by a gesture or a settled reset.
func (s *Session) committed(prevID string) {
	if s.presentID() != prevID {
		s.edited()
	}
}

func (s *Session) edited() {
	a, _ := s.editor.History().Present()
	s.history("push", a)
	s.render()
}

func (s *Session) history(op string, a history.Action) {
	p := HistoryPayload{Op: op, Summary: s.editor.History().Summary()}
	if a != nil {
		env, err := history.Encode(a)
		if err != nil {
			s.log.Error("encode action", "error", err)
		} else {
			p.Action = &env
		}
	}
	s.emit(TypeHistory, p)
}

func (s *Session) render() {
	s.emit(TypeRender, RenderPayload{Commands: json.RawMessage(s.editor.Render())})
}

func (s *Session) emit(typ string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("marshal payload", "type", typ, "error", err)
		return
	}
	s.seq++
	s.out(&Message{Type: typ, Seq: s.seq, Payload: data})
}

func decode(msg *Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", msg.Type, err)
	}
	return nil
}
