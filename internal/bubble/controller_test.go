package bubble

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerdneilsfield/go-vocab-annotator/internal/config"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/vocabulary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// eventLog 记录展示回调的顺序
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) record(kind, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, kind+":"+id)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func newHoverController(cfg config.TriggerConfig, store vocabulary.Store) (*Controller, *eventLog) {
	log := &eventLog{}
	c := NewController(cfg, store, Callbacks{
		OnShow: func(id string) { log.record("show", id) },
		OnHide: func(id string) { log.record("hide", id) },
	}, zap.NewNop())
	return c, log
}

func hoverConfig() config.TriggerConfig {
	return config.TriggerConfig{
		Event:       "hover",
		ShowDelayMs: 10,
		HideDelayMs: 10,
	}
}

func TestHoverShowAfterDelay(t *testing.T) {
	c, log := newHoverController(hoverConfig(), nil)

	c.PointerEnter("w1", nil)
	assert.Equal(t, StatePendingShow, c.StateOf("w1"))

	assert.Eventually(t, func() bool {
		return c.StateOf("w1") == StateVisible
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"show:w1"}, log.snapshot())
}

func TestHoverLeaveBeforeDelayCancelsShow(t *testing.T) {
	cfg := hoverConfig()
	cfg.ShowDelayMs = 50
	c, log := newHoverController(cfg, nil)

	c.PointerEnter("w1", nil)
	c.PointerLeave("w1")
	assert.Equal(t, StateIdle, c.StateOf("w1"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, StateIdle, c.StateOf("w1"))
	assert.Empty(t, log.snapshot(), "a cancelled bubble never shows")
}

func TestHoverHideAfterDelayAndReenter(t *testing.T) {
	cfg := hoverConfig()
	cfg.HideDelayMs = 50
	c, log := newHoverController(cfg, nil)

	c.PointerEnter("w1", nil)
	require.Eventually(t, func() bool {
		return c.StateOf("w1") == StateVisible
	}, time.Second, time.Millisecond)

	// 离开后在窗口内回来，气泡不收
	c.PointerLeave("w1")
	assert.Equal(t, StatePendingHide, c.StateOf("w1"))
	c.PointerEnter("w1", nil)
	assert.Equal(t, StateVisible, c.StateOf("w1"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, StateVisible, c.StateOf("w1"))

	// 真正离开
	c.PointerLeave("w1")
	assert.Eventually(t, func() bool {
		return c.StateOf("w1") == StateIdle
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"show:w1", "hide:w1"}, log.snapshot())
}

func TestHoverRequiresModifier(t *testing.T) {
	cfg := hoverConfig()
	cfg.Modifier = "alt"
	c, _ := newHoverController(cfg, nil)

	c.PointerEnter("w1", nil)
	assert.Equal(t, StateIdle, c.StateOf("w1"), "no modifier, no bubble")

	c.PointerEnter("w1", Modifiers{ModifierAlt: true})
	assert.Equal(t, StatePendingShow, c.StateOf("w1"))
}

func TestSingleBubbleMode(t *testing.T) {
	c, log := newHoverController(hoverConfig(), nil)

	c.PointerEnter("w1", nil)
	require.Eventually(t, func() bool {
		return c.StateOf("w1") == StateVisible
	}, time.Second, time.Millisecond)

	c.PointerEnter("w2", nil)
	require.Eventually(t, func() bool {
		return c.StateOf("w2") == StateVisible
	}, time.Second, time.Millisecond)

	assert.Equal(t, StateIdle, c.StateOf("w1"), "old bubble collapses when a new one shows")
	assert.Equal(t, []string{"show:w1", "hide:w1", "show:w2"}, log.snapshot())
}

func TestMultiBubbleMode(t *testing.T) {
	cfg := hoverConfig()
	cfg.MultiBubble = true
	c, _ := newHoverController(cfg, nil)

	c.PointerEnter("w1", nil)
	c.PointerEnter("w2", nil)
	assert.Eventually(t, func() bool {
		return c.StateOf("w1") == StateVisible && c.StateOf("w2") == StateVisible
	}, time.Second, time.Millisecond)
}

func TestPinnedBubbleIgnoresLeave(t *testing.T) {
	c, log := newHoverController(hoverConfig(), nil)

	c.PointerEnter("w1", nil)
	require.Eventually(t, func() bool {
		return c.StateOf("w1") == StateVisible
	}, time.Second, time.Millisecond)

	c.Pin("w1")
	c.PointerLeave("w1")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateVisible, c.StateOf("w1"), "pinned bubble survives pointer leave")

	c.Dismiss("w1")
	assert.Equal(t, StateIdle, c.StateOf("w1"))
	assert.Equal(t, []string{"show:w1", "hide:w1"}, log.snapshot())
}

func TestClickTriggerToggles(t *testing.T) {
	cfg := config.TriggerConfig{Event: "click"}
	c, log := newHoverController(cfg, nil)

	// 悬停事件在点击触发模式下无效
	c.PointerEnter("w1", nil)
	assert.Equal(t, StateIdle, c.StateOf("w1"))

	c.Activate("click", "w1", nil)
	assert.Equal(t, StateVisible, c.StateOf("w1"))

	c.Activate("click", "w1", nil)
	assert.Equal(t, StateIdle, c.StateOf("w1"))
	assert.Equal(t, []string{"show:w1", "hide:w1"}, log.snapshot())
}

func TestMarkLearning(t *testing.T) {
	store, err := vocabulary.Open(t.TempDir() + "/vocab.db")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	entry := &vocabulary.Entry{Word: "cat", Translation: "猫", Category: vocabulary.CategoryWantToLearn}
	require.NoError(t, store.Add(ctx, entry))

	c, _ := newHoverController(hoverConfig(), store)
	require.NoError(t, c.MarkLearning(ctx, entry.ID))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, vocabulary.CategoryLearning, entries[0].Category)
}

func TestLookup(t *testing.T) {
	store, err := vocabulary.Open(t.TempDir() + "/vocab.db")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	entry := &vocabulary.Entry{Word: "cat", Translation: "猫"}
	require.NoError(t, store.Add(ctx, entry))

	c, _ := newHoverController(hoverConfig(), store)
	got, err := c.Lookup(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat", got.Word)

	_, err = c.Lookup(ctx, "missing")
	assert.Error(t, err)
}

func TestMarkLearningWithoutStore(t *testing.T) {
	c, _ := newHoverController(hoverConfig(), nil)
	err := c.MarkLearning(context.Background(), "w1")
	assert.ErrorIs(t, err, vocabulary.ErrNoStore)
}
