package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcherFiresAfterDebounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))

	var fired atomic.Int32
	w, err := New(path, 20*time.Millisecond, func() { fired.Add(1) }, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// 窗口内的连续写入只触发一次回调
	require.NoError(t, os.WriteFile(path, []byte("<html>1</html>"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("<html>2</html>"), 0o644))

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, 3*time.Second, 10*time.Millisecond)

	// 窗口过后不再追加触发
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))

	var fired atomic.Int32
	w, err := New(path, 10*time.Millisecond, func() { fired.Add(1) }, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.html"), []byte("x"), 0o644))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
