package conf

import (
	"fmt"
	"reflect"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	_ "github.com/go-kratos/kratos/v2/encoding/yaml"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/fadu/library/ext"
)

const (
	KeyRoomScoring = "room.scoring"
	KeyLogLevel    = "log.level"
)

// LoadConfig reads path over the defaults and validates the result.
func LoadConfig(path string) (config.Config, *Bootstrap, error) {
	c := config.New(
		config.WithSource(
			file.NewSource(path),
		),
	)
	if err := c.Load(); err != nil {
		return nil, nil, fmt.Errorf("load config %q: %w", path, err)
	}

	bc := DefaultBootstrap()
	if err := c.Scan(bc); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("scan config: %w", err)
	}
	if err := bc.Validate(); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("bootstrap config invalid: %w", err)
	}
	return c, bc, nil
}

// Subscriber receives the new value of a watched key after it has been copied into the live config.
type Subscriber func(key string, val any)

// WatchConfig observes the hot reloadable keys: room scoring and the log level.
func WatchConfig(c config.Config, bc *Bootstrap, sub Subscriber) error {
	if err := c.Watch(KeyRoomScoring, observer(KeyRoomScoring, bc.Room.Scoring, sub)); err != nil {
		return fmt.Errorf("watch %q failed: %w", KeyRoomScoring, err)
	}
	if err := c.Watch(KeyLogLevel, func(key string, val config.Value) {
		level, err := val.String()
		if err != nil {
			log.Errorf("[config] read failed: key=%q, err=%v", key, err)
			return
		}
		if level == bc.Log.Level {
			return
		}
		log.Warnf("[config] [%q] updated: %s -> %s", key, bc.Log.Level, level)
		bc.Log.Level = level
		sub(key, level)
	}); err != nil {
		return fmt.Errorf("watch %q failed: %w", KeyLogLevel, err)
	}
	return nil
}

func observer(key string, target any, sub Subscriber) config.Observer {
	return func(_ string, val config.Value) {
		typ := reflect.TypeOf(target)
		if typ.Kind() != reflect.Pointer {
			log.Errorf("[config] %q target must be a pointer", key)
			return
		}

		newVal := reflect.New(typ.Elem()).Interface()
		if err := val.Scan(newVal); err != nil {
			log.Errorf("[config] scan failed: key=%q, err=%v", key, err)
			return
		}
		if v, ok := newVal.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				log.Errorf("[config] validation failed: key=%q, err=%v", key, err)
				return
			}
		}

		_, diff, err := ext.DiffLog(target, newVal)
		if err != nil {
			log.Errorf("[config] diff failed: key=%q, err=%v", key, err)
			return
		}
		if len(diff) == 0 {
			return
		}
		log.Warnf("[config] [%q] updated:\n%s", key, diff)
		if err := ext.DeepCopy(target, newVal); err != nil {
			log.Errorf("[config] update failed: key=%q, err=%v", key, err)
			return
		}
		sub(key, newVal)
	}
}
