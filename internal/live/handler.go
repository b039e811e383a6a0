package live

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/inamate/collage/internal/auth"
	"github.com/inamate/collage/internal/collage"
	"github.com/inamate/collage/internal/config"
	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/premium"
)

// Authenticator resolves the token passed on the websocket URL.
type Authenticator interface {
	ValidateToken(token string) (string, error)
	GetUser(ctx context.Context, userID string) (*auth.User, error)
}

// Collages loads and saves collages on behalf of a user.
type Collages interface {
	Saver
	Get(ctx context.Context, collageID, userID string) (document.Collage, error)
}

// Handler upgrades GET /ws/edit to an editing session.
type Handler struct {
	hub      *Hub
	auth     Authenticator
	collages Collages
	engine   config.Engine
	origins  []string
}

// NewHandler creates the websocket endpoint. allowedOrigins are full origins
// such as http://localhost:8081.
func NewHandler(hub *Hub, authn Authenticator, collages Collages, engine config.Engine, allowedOrigins []string) *Handler {
	return &Handler{
		hub:      hub,
		auth:     authn,
		collages: collages,
		engine:   engine,
		origins:  originPatterns(allowedOrigins),
	}
}

// originPatterns turns origins into the host patterns websocket.Accept
// matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

// ServeWS handles GET /ws/edit?template=...&token=...[&collage=...][&width=...].
// Without a token the session is anonymous: it can edit but not save.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := SessionOptions{
		ID:     uuid.New().String(),
		Saver:  h.collages,
		Engine: h.engine,
	}

	if token, ok := auth.TokenFromRequest(r); ok {
		userID, err := h.auth.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		user, err := h.auth.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				http.Error(w, "user not found", http.StatusUnauthorized)
				return
			}
			slog.Error("get user", "error", err, "user", userID)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		opts.UserID = user.ID
		opts.Pro = user.Pro
	} else {
		opts.UserID = "anon-" + uuid.New().String()[:8]
		opts.Anonymous = true
	}

	if id := q.Get("collage"); id != "" {
		if opts.Anonymous {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		col, err := h.collages.Get(r.Context(), id, opts.UserID)
		switch {
		case errors.Is(err, collage.ErrNotFound):
			http.Error(w, "collage not found", http.StatusNotFound)
			return
		case errors.Is(err, collage.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		case err != nil:
			slog.Error("load collage", "error", err, "collage", id)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		opts.Collage = &col
		q.Set("template", col.TemplateID)
	}

	tmpl, ok := document.TemplateByID(q.Get("template"))
	if !ok {
		http.Error(w, "unknown template", http.StatusBadRequest)
		return
	}
	if tmpl.IsPremium && !premium.NewGate(opts.Pro, nil).CanAccess(premium.FeaturePremiumTemplates) {
		http.Error(w, "upgrade required", http.StatusPaymentRequired)
		return
	}
	opts.Template = tmpl

	if v := q.Get("width"); v != "" {
		width, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(width) || math.IsInf(width, 0) || width <= 0 {
			http.Error(w, "invalid width", http.StatusBadRequest)
			return
		}
		opts.Width = width
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, opts.UserID, opts.ID)
	sess := client.Attach(opts)
	h.hub.Register(client)
	sess.Start()

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
