package xgo

import (
	"runtime/debug"

	"github.com/go-kratos/kratos/v2/log"
)

// RecoverFromError must be deferred. It logs the panic with its stack and hands it to cb.
func RecoverFromError(cb func(e any)) {
	if e := recover(); e != nil {
		log.Errorf("Recover => %v\n%s\n", e, debug.Stack())
		if cb != nil {
			cb(e)
		}
	}
}

// SafeGo runs f in a new goroutine, swallowing any panic.
func SafeGo(f func()) {
	go func() {
		defer RecoverFromError(nil)
		f()
	}()
}
