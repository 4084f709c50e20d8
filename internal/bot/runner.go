package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/library/work"
	"github.com/yola1107/fadu/transport/websocket"
)

type Config struct {
	Endpoint string // e.g. ws://127.0.0.1:3102/ws
	RoomID   string
	Players  int
	Rounds   int
	CallAt   int
	ThinkMin time.Duration
	ThinkMax time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint: "ws://127.0.0.1:3102/ws",
		Players:  3,
		Rounds:   3,
		CallAt:   12,
		ThinkMin: 200 * time.Millisecond,
		ThinkMax: 800 * time.Millisecond,
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("endpoint is empty")
	case c.Players < 2:
		return fmt.Errorf("players must be at least 2, got %d", c.Players)
	case c.Rounds < 1:
		return fmt.Errorf("rounds must be at least 1, got %d", c.Rounds)
	case c.ThinkMax < c.ThinkMin:
		return fmt.Errorf("think max %v below min %v", c.ThinkMax, c.ThinkMin)
	}
	return nil
}

// Run seats cfg.Players bots in one room, starts the game from the first seat and waits for game_over.
func Run(ctx context.Context, cfg *Config) (*v1.GameOver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	roomID := cfg.RoomID
	if roomID == "" {
		id, err := gonanoid.New(10)
		if err != nil {
			return nil, err
		}
		roomID = id
	}

	ws := work.NewStore(cfg.Players*2, 10*time.Millisecond)
	if err := ws.Start(); err != nil {
		return nil, err
	}
	defer ws.Stop()

	agents := make([]*Agent, 0, cfg.Players)
	for i := 0; i < cfg.Players; i++ {
		a := NewAgent(fmt.Sprintf("bot-%d", i+1), cfg, ws)
		c, err := websocket.NewClient(ctx,
			websocket.WithEndpoint(strings.TrimRight(cfg.Endpoint, "/")+"/"+roomID+"/"+a.ID()),
			websocket.WithMessageHandler(a.OnMessage),
			websocket.WithRetryPolicy(500*time.Millisecond, 5*time.Second, 3),
		)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", a.ID(), err)
		}
		defer c.Close()
		a.SetClient(c)

		if err := a.WaitWelcome(ctx); err != nil {
			return nil, fmt.Errorf("%s not seated: %w", a.ID(), err)
		}
		agents = append(agents, a)
	}
	log.Infof("bots seated. room=%s players=%d", roomID, len(agents))

	if err := agents[0].send(v1.NewStart(cfg.Players, cfg.Rounds)); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range agents {
		g.Go(func() error { return a.Wait(gctx) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return agents[0].Result(), nil
}
