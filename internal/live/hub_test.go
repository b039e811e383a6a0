package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/collage/internal/auth"
	"github.com/inamate/collage/internal/collage"
	"github.com/inamate/collage/internal/config"
	"github.com/inamate/collage/internal/store"
)

func drain(c *Client) []*Message {
	var out []*Message
	for data := range c.send {
		var m Message
		if err := json.Unmarshal(data, &m); err == nil {
			out = append(out, &m)
		}
	}
	return out
}

func TestHubSupersedesPreviousSession(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	first := NewClient(h, nil, "user_1", "conn-1")
	h.Register(first)
	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, time.Millisecond)

	second := NewClient(h, nil, "user_1", "conn-2")
	h.Register(second)
	require.Eventually(t, func() bool {
		c, ok := h.Client("user_1")
		return ok && c == second
	}, time.Second, time.Millisecond)

	msgs := drain(first)
	require.Len(t, msgs, 1)
	assert.Equal(t, TypeError, msgs[0].Type)

	// A late unregister of the superseded client leaves the new one alone.
	h.Unregister(first)
	other := NewClient(h, nil, "user_2", "conn-3")
	h.Register(other)
	require.Eventually(t, func() bool { return h.Count() == 2 }, time.Second, time.Millisecond)

	h.Unregister(second)
	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, time.Millisecond)
	second.Send(&Message{Type: TypeRender})
	assert.Empty(t, drain(second))
}

func TestHubStopClosesSessions(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := NewClient(h, nil, "user_1", "conn-1")
	h.Register(c)
	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, time.Millisecond)

	h.Stop()
	h.Stop()
	assert.Empty(t, drain(c))
	require.Eventually(t, func() bool { return h.Count() == 0 }, time.Second, time.Millisecond)

	late := NewClient(h, nil, "user_2", "conn-2")
	h.Register(late)
	assert.Empty(t, drain(late))
	h.Unregister(late)
}

type fakeAuth struct {
	users map[string]*auth.User
}

func (f fakeAuth) ValidateToken(token string) (string, error) {
	if _, ok := f.users[token]; !ok {
		return "", assert.AnError
	}
	return token, nil
}

func (f fakeAuth) GetUser(_ context.Context, id string) (*auth.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func newServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	mem := store.NewMemory()
	_, err := mem.CreateUser(context.Background(), store.User{ID: "user_1", Email: "ann@example.com"})
	require.NoError(t, err)

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	authn := fakeAuth{users: map[string]*auth.User{"user_1": {ID: "user_1", Email: "ann@example.com"}}}
	h := NewHandler(hub, authn, collage.NewService(mem, mem), config.DefaultEngine(), []string{"http://localhost:8081"})

	r := mux.NewRouter()
	r.HandleFunc("/ws/edit", h.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string) *Message {
	t.Helper()
	for {
		var m Message
		require.NoError(t, wsjson.Read(ctx, conn, &m))
		if m.Type == typ {
			return &m
		}
	}
}

func TestServeWSEditAndSave(t *testing.T) {
	srv, hub := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/edit?template=grid-2x2&token=user_1&width=400"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var w WelcomePayload
	require.NoError(t, json.Unmarshal(readUntil(t, ctx, conn, TypeWelcome).Payload, &w))
	assert.Equal(t, "user_1", w.UserID)
	assert.Equal(t, 400.0, w.Width)
	readUntil(t, ctx, conn, TypeRender)
	assert.Equal(t, 1, hub.Count())

	payload, _ := json.Marshal(PhotoAssignPayload{FrameID: "f1", URI: "/photos/a.jpg"})
	require.NoError(t, wsjson.Write(ctx, conn, Message{Type: TypePhotoAssign, Payload: payload}))
	readUntil(t, ctx, conn, TypeHistory)

	require.NoError(t, wsjson.Write(ctx, conn, Message{Type: TypeSave}))
	var saved SavedPayload
	require.NoError(t, json.Unmarshal(readUntil(t, ctx, conn, TypeSaved).Payload, &saved))
	assert.True(t, strings.HasPrefix(saved.Collage.ID, "collage_"))
	assert.Equal(t, "user_1", saved.Collage.OwnerID)
	uri, ok := saved.Collage.PhotoURI("f1")
	require.True(t, ok)
	assert.Equal(t, "/photos/a.jpg", uri)

	// Reopen the saved collage.
	conn2, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/edit?token=user_1&collage="+saved.Collage.ID, nil)
	require.NoError(t, err)
	defer conn2.Close(websocket.StatusNormalClosure, "")
	require.NoError(t, json.Unmarshal(readUntil(t, ctx, conn2, TypeWelcome).Payload, &w))
	assert.Equal(t, saved.Collage.ID, w.CollageID)

	// The first connection was superseded.
	readUntil(t, ctx, conn, TypeError)
}

func TestServeWSRejects(t *testing.T) {
	srv, _ := newServer(t)
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/edit"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"unknown template", "?template=nope", http.StatusBadRequest},
		{"bad token", "?template=grid-2x2&token=user_9", http.StatusUnauthorized},
		{"premium template", "?template=artistic-mosaic&token=user_1", http.StatusPaymentRequired},
		{"anonymous collage", "?collage=collage_x", http.StatusUnauthorized},
		{"missing collage", "?token=user_1&collage=collage_x", http.StatusNotFound},
		{"bad width", "?template=grid-2x2&width=-3", http.StatusBadRequest},
		{"nan width", "?template=grid-2x2&width=NaN", http.StatusBadRequest},
		{"infinite width", "?template=grid-2x2&width=%2BInf", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.Dial(ctx, base+tt.query, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAnonymousSession(t *testing.T) {
	srv, _ := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/edit?template=minimal-single", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var w WelcomePayload
	require.NoError(t, json.Unmarshal(readUntil(t, ctx, conn, TypeWelcome).Payload, &w))
	assert.True(t, strings.HasPrefix(w.UserID, "anon-"))
	assert.False(t, w.Pro)

	require.NoError(t, wsjson.Write(ctx, conn, Message{Type: TypeSave}))
	var e ErrorPayload
	require.NoError(t, json.Unmarshal(readUntil(t, ctx, conn, TypeError).Payload, &e))
	assert.Equal(t, ErrAnonymous.Error(), e.Message)
}

func TestOriginPatterns(t *testing.T) {
	assert.Equal(t, []string{"localhost:8081", "example.com", "*.example.org"},
		originPatterns([]string{"http://localhost:8081", " https://example.com ", "", "*.example.org"}))
}
