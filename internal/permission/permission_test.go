package permission

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestList(t *testing.T, content string) (*AllowList, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usuarios_permitidos.txt")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	logger := zerolog.Nop()
	return NewAllowList(path, &logger), path
}

func TestLoadNormalizesUsers(t *testing.T) {
	list, _ := newTestList(t, "  Joao.Silva \r\n\nMARIA\n")

	require.NoError(t, list.Load())
	assert.Equal(t, 2, list.Len())
	assert.True(t, list.Allowed("JOAO.SILVA"))
	assert.True(t, list.Allowed("maria"))
	assert.False(t, list.Allowed("pedro"))
	assert.False(t, list.Allowed(""))
}

func TestLoadMissingFileAllowsNobody(t *testing.T) {
	list, _ := newTestList(t, "")

	assert.Error(t, list.Load())
	assert.False(t, list.Allowed("maria"))
}

func TestWatcherReloadsOnChange(t *testing.T) {
	list, path := newTestList(t, "maria\n")

	require.NoError(t, list.Start(context.Background()))
	defer list.Stop()
	require.True(t, list.Allowed("maria"))

	require.NoError(t, os.WriteFile(path, []byte("pedro\n"), 0o644))

	assert.Eventually(t, func() bool {
		return list.Allowed("pedro") && !list.Allowed("maria")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	list, _ := newTestList(t, "maria\n")

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, list.Start(ctx))
	cancel()
	list.Stop()
}
