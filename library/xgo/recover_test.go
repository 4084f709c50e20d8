package xgo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverFromError(t *testing.T) {
	var got any
	func() {
		defer RecoverFromError(func(e any) { got = e })
		panic("boom")
	}()
	assert.Equal(t, "boom", got)
}

func TestSafeGo(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	SafeGo(func() {
		defer wg.Done()
		panic("ignored")
	})
	wg.Wait()
}
