package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"

	"github.com/LemmyAI/arenasync/internal/catalog"
	"github.com/LemmyAI/arenasync/internal/game"
	"github.com/LemmyAI/arenasync/internal/profile"
	"github.com/LemmyAI/arenasync/internal/protocol"
	"github.com/LemmyAI/arenasync/internal/room"
	"github.com/LemmyAI/arenasync/internal/server"
)

func TestMockTransport_QueuedStates(t *testing.T) {
	mock := NewMockTransport()
	ctx := context.Background()

	if _, changed, err := mock.FetchState(ctx, "s1", nil); changed || err != nil {
		t.Fatalf("expected no change from empty queue, got %v %v", changed, err)
	}

	mock.QueueState(&protocol.StateResponse{SessionID: "s1", Version: 4})
	since := uint64(3)
	st, changed, err := mock.FetchState(ctx, "s1", &since)
	if err != nil || !changed || st.Version != 4 {
		t.Fatalf("expected queued state, got %+v %v %v", st, changed, err)
	}
	since = 99
	polls := mock.Polls()
	if len(polls) != 2 || polls[0] != nil || *polls[1] != 3 {
		t.Errorf("unexpected recorded polls %v", polls)
	}
}

func TestMockTransport_Failures(t *testing.T) {
	mock := NewMockTransport()
	ctx := context.Background()
	boom := errors.New("boom")

	mock.FailInputs(boom)
	if err := mock.SubmitInput(ctx, protocol.SubmitInputRequest{PlayerID: "p1", Sequence: 1}); err != boom {
		t.Errorf("expected boom, got %v", err)
	}
	if sent := mock.SentInputs(); len(sent) != 1 || sent[0].Sequence != 1 {
		t.Errorf("expected the attempt to be recorded, got %+v", sent)
	}

	mock.FailPolls(boom)
	if _, _, err := mock.FetchState(ctx, "s1", nil); err != boom {
		t.Errorf("expected boom, got %v", err)
	}

	mock.Clear()
	if len(mock.SentInputs()) != 0 || len(mock.Polls()) != 0 {
		t.Error("expected Clear to drop recorded calls")
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *game.Engine) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := game.DefaultConfig()
	cfg.RepopulateDelay = 0
	mock := clock.NewMock()
	engine := game.NewEngine(cfg, game.NewSessionStore(), game.NewInputRouter(),
		game.WithLogger(logger), game.WithClock(mock))
	srv := server.New(server.Deps{
		Engine:   engine,
		Rooms:    room.NewRegistry(room.DefaultConfig(), mock),
		Profiles: profile.NewMemoryStore(),
		Catalog:  catalog.NewProvider(cfg, nil, time.Minute, logger),
		Logger:   logger,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, engine
}

func TestHTTPTransport_RoundTrip(t *testing.T) {
	for _, media := range []string{protocol.MediaJSON, protocol.MediaMsgpack, protocol.MediaProtobuf} {
		t.Run(media, func(t *testing.T) {
			ts, engine := newTestServer(t)
			cfg := DefaultConfig()
			cfg.BaseURL = ts.URL + "/"
			cfg.MediaType = media
			tr := NewHTTPTransport(cfg)
			defer tr.Close()
			ctx := context.Background()

			joined, err := tr.Join(ctx, "arena", protocol.JoinRequest{PlayerID: "p1", Name: "Alice"})
			if err != nil {
				t.Fatalf("Join failed: %v", err)
			}
			if joined.PlayerID != "p1" || joined.Speed != 4 {
				t.Errorf("unexpected join response %+v", joined)
			}

			if err := tr.SubmitInput(ctx, protocol.SubmitInputRequest{
				PlayerID: "p1", SessionID: "arena", MoveX: 1, Sequence: 1,
			}); err != nil {
				t.Fatalf("SubmitInput failed: %v", err)
			}
			engine.Step()

			st, changed, err := tr.FetchState(ctx, "arena", nil)
			if err != nil || !changed {
				t.Fatalf("FetchState failed: %v %v", changed, err)
			}
			if len(st.Players) != 1 || st.Players[0].Sequence != 1 || st.Players[0].X <= 0 {
				t.Errorf("unexpected state %+v", st.Players)
			}

			since := st.Version
			if st, changed, err := tr.FetchState(ctx, "arena", &since); err != nil || changed || st != nil {
				t.Errorf("expected no change, got %v %v %v", st, changed, err)
			}

			if err := tr.Leave(ctx, "arena", "p1"); err != nil {
				t.Errorf("Leave failed: %v", err)
			}
		})
	}
}

func TestHTTPTransport_Errors(t *testing.T) {
	ts, _ := newTestServer(t)
	cfg := DefaultConfig()
	cfg.BaseURL = ts.URL
	tr := NewHTTPTransport(cfg)
	ctx := context.Background()

	if _, _, err := tr.FetchState(ctx, "missing", nil); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	_, err := tr.Join(ctx, "arena", protocol.JoinRequest{Name: ""})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest || se.Message == "" {
		t.Errorf("expected 400 StatusError with message, got %v", err)
	}
}

func TestHTTPTransport_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer slow.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = slow.URL
	cfg.RequestTimeout = 20 * time.Millisecond
	tr := NewHTTPTransport(cfg)

	start := time.Now()
	if _, _, err := tr.FetchState(context.Background(), "arena", nil); err == nil {
		t.Error("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("timeout not applied, took %v", elapsed)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MediaType != protocol.MediaMsgpack {
		t.Errorf("expected msgpack polls by default, got %s", cfg.MediaType)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", cfg.RequestTimeout)
	}
}
