package conf

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	zconf "github.com/yola1107/fadu/library/log/zap/conf"
)

const (
	Name    = "fadu"
	Version = "v0.1.0"
)

// Duration decodes from a Go duration string ("3s") or a number of seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var secs float64
		if err := json.Unmarshal(b, &secs); err != nil {
			return fmt.Errorf("invalid duration %s", b)
		}
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Bootstrap struct {
	Server *Server       `json:"server"`
	Room   *Room         `json:"room"`
	Data   *Data         `json:"data"`
	Log    *zconf.Logger `json:"log"`
	Work   *Work         `json:"work"`
}

type Server struct {
	Websocket *Websocket `json:"websocket"`
	Http      *Http      `json:"http"`
}

type Websocket struct {
	Addr         string   `json:"addr"`
	PathPrefix   string   `json:"path_prefix"`
	ReadDeadline Duration `json:"read_deadline"`
	PingInterval Duration `json:"ping_interval"`
	WriteTimeout Duration `json:"write_timeout"`
	SendChanSize int      `json:"send_chan_size"`
	MaxConn      int32    `json:"max_conn"`
	RateLimit    float64  `json:"rate_limit"`
	RateBurst    int      `json:"rate_burst"`
	AllowOrigins []string `json:"allow_origins"`
	CertFile     string   `json:"cert_file"`
	KeyFile      string   `json:"key_file"`
}

type Http struct {
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

type Scoring struct {
	LowestHandPoints int `json:"lowest_hand_points"`
	CallBonus        int `json:"call_bonus"`
}

type LogCache struct {
	Open bool   `json:"open"`
	Dir  string `json:"dir"`
}

type Room struct {
	MinPlayers    int       `json:"min_players"`
	MaxPlayers    int       `json:"max_players"`
	HandSize      int       `json:"hand_size"`
	Shards        int       `json:"shards"`
	IdleGrace     Duration  `json:"idle_grace"`
	RoundEndDelay Duration  `json:"round_end_delay"`
	Scoring       *Scoring  `json:"scoring"`
	LogCache      *LogCache `json:"log_cache"`
}

type Redis struct {
	Addr        string   `json:"addr"`
	Password    string   `json:"password"`
	DB          int      `json:"db"`
	KeyPrefix   string   `json:"key_prefix"`
	DialTimeout Duration `json:"dial_timeout"`
	ResultTTL   Duration `json:"result_ttl"`
}

// Rabbitmq publishes game results as events. Disabled when Host is empty.
type Rabbitmq struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	VHost        string `json:"vhost"`
	Exchange     string `json:"exchange"`
	ExchangeType string `json:"exchange_type"`
	RoutingKey   string `json:"routing_key"`
}

type Data struct {
	Redis    *Redis    `json:"redis"`
	Rabbitmq *Rabbitmq `json:"rabbitmq"`
}

type Work struct {
	PoolSize int      `json:"pool_size"`
	Tick     Duration `json:"tick"`
}

func DefaultRoom() *Room {
	return &Room{
		MinPlayers:    2,
		MaxPlayers:    6,
		HandSize:      5,
		Shards:        16,
		IdleGrace:     Duration(60 * time.Second),
		RoundEndDelay: Duration(3 * time.Second),
		Scoring:       &Scoring{LowestHandPoints: 1, CallBonus: 1},
		LogCache:      &LogCache{Open: false, Dir: "./logs/rooms"},
	}
}

// DefaultBootstrap is the configuration used for any key the file leaves out.
func DefaultBootstrap() *Bootstrap {
	return &Bootstrap{
		Server: &Server{
			Websocket: &Websocket{
				Addr:         ":3102",
				PathPrefix:   "/ws",
				ReadDeadline: Duration(60 * time.Second),
				PingInterval: Duration(15 * time.Second),
				WriteTimeout: Duration(10 * time.Second),
				SendChanSize: 128,
				MaxConn:      10000,
				RateLimit:    20,
				RateBurst:    40,
			},
			Http: &Http{Addr: ":3101", Timeout: Duration(5 * time.Second)},
		},
		Room: DefaultRoom(),
		Data: &Data{
			Redis: &Redis{
				KeyPrefix:   Name,
				DialTimeout: Duration(3 * time.Second),
				ResultTTL:   Duration(7 * 24 * time.Hour),
			},
			Rabbitmq: &Rabbitmq{
				Port:         "5672",
				VHost:        "/",
				Exchange:     Name,
				ExchangeType: "topic",
				RoutingKey:   "game.result",
			},
		},
		Log:  zconf.DefaultConfig(zconf.WithAppName(Name)),
		Work: &Work{PoolSize: 256, Tick: Duration(100 * time.Millisecond)},
	}
}

// Validate checks the settings the engine relies on.
func (c *Room) Validate() error {
	switch {
	case c.MinPlayers < 2:
		return fmt.Errorf("room.min_players must be at least 2, got %d", c.MinPlayers)
	case c.MaxPlayers < c.MinPlayers:
		return fmt.Errorf("room.max_players %d below min_players %d", c.MaxPlayers, c.MinPlayers)
	case c.HandSize < 1:
		return fmt.Errorf("room.hand_size must be positive, got %d", c.HandSize)
	case c.MaxPlayers*c.HandSize+1 > 52:
		return fmt.Errorf("room.max_players %d with hand_size %d does not fit one deck", c.MaxPlayers, c.HandSize)
	case c.Shards < 1:
		return fmt.Errorf("room.shards must be positive, got %d", c.Shards)
	case c.Scoring == nil:
		return fmt.Errorf("room.scoring missing")
	}
	return c.Scoring.Validate()
}

func (c *Scoring) Validate() error {
	if c.LowestHandPoints < 0 || c.CallBonus < 0 {
		return fmt.Errorf("scoring points must not be negative: %+v", *c)
	}
	return nil
}

func (c *Bootstrap) Validate() error {
	if c.Server == nil || c.Server.Websocket == nil || c.Server.Http == nil {
		return fmt.Errorf("server section incomplete")
	}
	if c.Room == nil {
		return fmt.Errorf("room section missing")
	}
	if c.Log == nil {
		return fmt.Errorf("log section missing")
	}
	return c.Room.Validate()
}
