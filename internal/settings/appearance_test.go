package settings

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("dark")
	require.NoError(t, err)
	assert.Equal(t, ModeDark, m)

	_, err = ParseMode("sepia")
	assert.Error(t, err)
}

func TestToggle(t *testing.T) {
	a := NewAppearance(ModeLight)

	assert.Equal(t, ModeDark, a.Toggle())
	assert.Equal(t, ModeDark, a.Mode())
	assert.Equal(t, ModeLight, a.Toggle())
}

func TestConcurrentToggle(t *testing.T) {
	a := NewAppearance(ModeLight)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Toggle()
		}()
	}
	wg.Wait()

	// even number of toggles lands back where it started
	assert.Equal(t, ModeLight, a.Mode())
}
