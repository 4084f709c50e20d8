package main

import (
	"flag"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/yola1107/fadu/internal/biz"
	"github.com/yola1107/fadu/internal/conf"
	"github.com/yola1107/fadu/library/log/zap"
	"github.com/yola1107/fadu/transport/websocket"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = conf.Name
	// Version is the version of the compiled software.
	Version = conf.Version
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/config.yaml", "config path, eg: -conf config.yaml")
}

type application struct {
	*kratos.App
	uc *biz.Usecase
}

func newApp(logger log.Logger, uc *biz.Usecase, hs *http.Server, ws *websocket.Server) *application {
	return &application{
		App: kratos.New(
			kratos.ID(id),
			kratos.Name(Name),
			kratos.Version(Version),
			kratos.Metadata(map[string]string{}),
			kratos.Logger(logger),
			kratos.Server(
				hs,
				ws,
			),
		),
		uc: uc,
	}
}

func main() {
	flag.Parse()

	c, bc, err := conf.LoadConfig(flagconf)
	if err != nil {
		panic(err)
	}
	defer c.Close()

	logger, err := zap.NewLogger(bc.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Close()
	log.SetLogger(logger)

	app, cleanup, err := wireApp(bc.Server, bc.Data, bc.Room, bc.Work, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := conf.WatchConfig(c, bc, func(key string, val any) {
		switch key {
		case conf.KeyLogLevel:
			logger.SetLevel(val.(string))
		default:
			app.uc.OnConfigChange(key, val)
		}
	}); err != nil {
		log.Warnf("config watch disabled: %v", err)
	}

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
