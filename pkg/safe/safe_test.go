package safe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	assert.NoError(t, Run("test", func() {}))

	err := Run("witness", func() { panic("boom") })
	assert.EqualError(t, err, "witness: panic: boom")
}

func TestGo(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	Go("test", func() {
		defer wg.Done()
		panic("boom")
	})
	wg.Wait()
}
