package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/investor-scout/internal/config"
)

func TestPickUserAgentEmptyPool(t *testing.T) {
	t.Parallel()

	m := NewManager(config.BrowserConfig{})
	assert.Equal(t, "", m.pickUserAgent())
}

func TestPickUserAgentFromPool(t *testing.T) {
	t.Parallel()

	pool := []string{"agent-a", "agent-b", "agent-c"}
	m := NewManager(config.BrowserConfig{UserAgents: pool})

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ua := m.pickUserAgent()
		assert.Contains(t, pool, ua)
		seen[ua] = true
	}
	// With 100 draws from a pool of 3 every agent should appear.
	assert.Len(t, seen, 3)
}

func TestCloseBeforeStart(t *testing.T) {
	t.Parallel()

	m := NewManager(config.BrowserConfig{Headless: true})
	require.NoError(t, m.Close())
	// Close is idempotent.
	require.NoError(t, m.Close())
}

func TestRenderAfterClose(t *testing.T) {
	t.Parallel()

	m := NewManager(config.BrowserConfig{Headless: true})
	require.NoError(t, m.Close())

	m.mu.Lock()
	err := m.ensure()
	m.mu.Unlock()
	assert.Error(t, err)
}
