package authority

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrohub/macrosync/pkg/errors"
)

func TestOrderPriorities(t *testing.T) {
	order := New("govstats", "cme-calendar", "tradingfloor")

	assert.Greater(t, order.Priority("govstats"), order.Priority("cme-calendar"))
	assert.Greater(t, order.Priority("cme-calendar"), order.Priority("tradingfloor"))

	// Unknown sources rank below every configured one.
	assert.Equal(t, 0, order.Priority("scraped-blog"))
	assert.Greater(t, order.Priority("tradingfloor"), order.Priority("scraped-blog"))

	assert.True(t, order.Known("govstats"))
	assert.False(t, order.Known("scraped-blog"))
	assert.Equal(t, []string{"govstats", "cme-calendar", "tradingfloor"}, order.Names())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "priority.yaml")
	content := "sources:\n  - govstats\n  - tradingfloor\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	order, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"govstats", "tradingfloor"}, order.Names())
	assert.Greater(t, order.Priority("govstats"), order.Priority("tradingfloor"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestLoadEmptySourceList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "priority.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: []\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
