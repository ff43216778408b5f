// Command client is a headless bot that joins a session, wanders around
// and reports what it sees.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LemmyAI/arenasync/internal/client"
	"github.com/LemmyAI/arenasync/internal/game"
	"github.com/LemmyAI/arenasync/internal/transport"
)

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "server base URL")
	sessionID := flag.String("session", "lobby", "session to join")
	playerName := flag.String("name", "TestPlayer", "player name")
	playerID := flag.String("player", "", "player id (server generated when empty)")
	media := flag.String("media", "application/msgpack", "state encoding")
	inputRate := flag.Int("rate", 20, "inputs per second")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	tcfg := transport.DefaultConfig()
	tcfg.BaseURL = *serverURL
	tcfg.MediaType = *media
	tr := transport.NewHTTPTransport(tcfg)
	defer tr.Close()

	cfg := client.DefaultSessionConfig()
	cfg.SessionID = *sessionID
	cfg.PlayerID = *playerID
	cfg.Name = *playerName
	sess := client.NewSession(tr, cfg, logger, nil)

	logger.Info("🎮 Connecting", zap.String("url", *serverURL), zap.String("session", *sessionID), zap.String("name", *playerName))
	if err := sess.Join(ctx); err != nil {
		logger.Fatal("Join failed", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.Run(gctx) })
	g.Go(func() error { return wander(gctx, sess, *inputRate, logger) })
	if err := g.Wait(); err != nil {
		logger.Error("Bot stopped", zap.Error(err))
	}

	leaveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sess.Leave(leaveCtx); err != nil {
		logger.Warn("Leave failed", zap.Error(err))
	}
	logger.Info("👋 Bye!")
}

// wander sends inputs at rate per second, turning every couple of seconds
// and shooting now and then.
func wander(ctx context.Context, sess *client.Session, rate int, logger *zap.Logger) error {
	if rate <= 0 {
		rate = 20
	}
	dt := 1 / float64(rate)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()
	report := time.NewTicker(time.Second)
	defer report.Stop()

	heading := rand.Float64() * 2 * math.Pi
	turnIn := 0.0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-report.C:
			pos := sess.Frame(0)
			st := sess.State()
			var version uint64
			var players, enemies int
			if st != nil {
				version, players, enemies = st.Version, len(st.Players), len(st.Enemies)
			}
			logger.Info("📍 Status",
				zap.Float64("x", pos.X), zap.Float64("y", pos.Y),
				zap.Uint64("version", version), zap.Int("players", players),
				zap.Int("enemies", enemies), zap.Int("remotes", len(sess.Remotes())))
		case <-ticker.C:
			turnIn -= dt
			if turnIn <= 0 {
				heading = rand.Float64() * 2 * math.Pi
				turnIn = 1 + rand.Float64()*2
			}
			move := game.Vec2{X: math.Cos(heading), Y: math.Sin(heading)}
			sess.SendInput(ctx, client.Input{
				Move:   move,
				Aim:    move,
				Attack: rand.IntN(10) == 0,
				Shoot:  rand.IntN(20) == 0,
			}, dt)
			sess.Frame(dt)
		}
	}
}
