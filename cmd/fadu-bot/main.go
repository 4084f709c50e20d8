package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/yola1107/fadu/internal/bot"
	"github.com/yola1107/fadu/library/log/zap"
	zconf "github.com/yola1107/fadu/library/log/zap/conf"
)

const Name = "fadu-bot"

var (
	cfg      = bot.DefaultConfig()
	games    int
	timeout  time.Duration
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:          Name,
	Short:        "Seat bots in a Fadu room and play it to the end",
	Long:         "Connects --players bots to one room, starts the game from the first seat and plays until game_over.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&cfg.Endpoint, "addr", cfg.Endpoint, "websocket endpoint including the path prefix")
	f.StringVar(&cfg.RoomID, "room", "", "room id, random when empty")
	f.IntVarP(&cfg.Players, "players", "n", cfg.Players, "number of bots")
	f.IntVarP(&cfg.Rounds, "rounds", "r", cfg.Rounds, "rounds per game")
	f.IntVar(&cfg.CallAt, "call-at", cfg.CallAt, "call once the hand value is at most this")
	f.DurationVar(&cfg.ThinkMin, "think-min", cfg.ThinkMin, "minimum delay before acting")
	f.DurationVar(&cfg.ThinkMax, "think-max", cfg.ThinkMax, "maximum delay before acting")
	f.IntVarP(&games, "games", "g", 1, "games to play one after another")
	f.DurationVar(&timeout, "timeout", 5*time.Minute, "give up on a game after this long")
	f.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if cfg.RoomID != "" && games > 1 {
		return fmt.Errorf("--room can only host one game, drop it to play %d games", games)
	}

	logger, err := zap.NewLogger(zconf.DefaultConfig(zconf.WithAppName(Name), zconf.WithLevel(logLevel)))
	if err != nil {
		return err
	}
	defer logger.Close()
	log.SetLogger(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for i := 1; i <= games; i++ {
		gctx, cancel := context.WithTimeout(ctx, timeout)
		over, err := bot.Run(gctx, cfg)
		cancel()
		if err != nil {
			return fmt.Errorf("game %d: %w", i, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "game %d: winners=%v scores=%v\n", i, over.Winners, over.Scores)
	}
	return nil
}
