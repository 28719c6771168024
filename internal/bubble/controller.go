package bubble

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nerdneilsfield/go-vocab-annotator/internal/config"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/vocabulary"
	"go.uber.org/zap"
)

// State 一个气泡的生命周期状态
type State string

const (
	StateIdle        State = "idle"
	StatePendingShow State = "pending-show"
	StateVisible     State = "visible"
	StatePendingHide State = "pending-hide"
)

// Modifier 触发事件要求同时按下的修饰键
type Modifier string

const (
	ModifierNone  Modifier = ""
	ModifierAlt   Modifier = "alt"
	ModifierCtrl  Modifier = "ctrl"
	ModifierShift Modifier = "shift"
	ModifierMeta  Modifier = "meta"
)

// Modifiers 事件发生时按下的修饰键集合
type Modifiers map[Modifier]bool

// Has 检查某个修饰键是否按下；要求为空时恒真
func (m Modifiers) Has(mod Modifier) bool {
	if mod == ModifierNone {
		return true
	}
	return m[mod]
}

// Callbacks 气泡的展示回调，由渲染层实现
type Callbacks struct {
	OnShow func(entryID string)
	OnHide func(entryID string)
}

// bubbleState 单个标注的气泡状态和挂起的定时器
type bubbleState struct {
	state     State
	pinned    bool
	showTimer *time.Timer
	hideTimer *time.Timer
}

// Controller 气泡状态机。每个标注词各有一个状态；单气泡模式下
// 新气泡出现时旧气泡立即收起。悬停触发经过显示延迟防误触，
// 离开后经过隐藏延迟防抖，点击钉住的气泡只能显式关闭。
type Controller struct {
	cfg    config.TriggerConfig
	store  vocabulary.Store
	cbs    Callbacks
	logger *zap.Logger

	mu      sync.Mutex
	bubbles map[string]*bubbleState
}

// NewController 创建气泡控制器。store 可以为 nil（只读页面场景），
// 此时 MarkLearning 不可用。
func NewController(cfg config.TriggerConfig, store vocabulary.Store, cbs Callbacks, logger *zap.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		store:   store,
		cbs:     cbs,
		logger:  logger,
		bubbles: make(map[string]*bubbleState),
	}
}

// StateOf 查询某个标注的气泡状态
func (c *Controller) StateOf(entryID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.bubbles[entryID]; ok {
		return b.state
	}
	return StateIdle
}

// PointerEnter 指针进入标注词。只在悬停触发模式下有意义。
func (c *Controller) PointerEnter(entryID string, mods Modifiers) {
	if !strings.EqualFold(c.cfg.Event, "hover") {
		return
	}
	if !mods.Has(Modifier(strings.ToLower(c.cfg.Modifier))) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bubble(entryID)

	switch b.state {
	case StateIdle:
		b.state = StatePendingShow
		b.showTimer = time.AfterFunc(c.showDelay(), func() {
			c.showAfterDelay(entryID)
		})
	case StatePendingHide:
		// 回到气泡上，取消收起
		c.stopHideTimer(b)
		b.state = StateVisible
	}
}

// PointerLeave 指针离开标注词（或气泡本身）
func (c *Controller) PointerLeave(entryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bubble(entryID)

	switch b.state {
	case StatePendingShow:
		c.stopShowTimer(b)
		b.state = StateIdle
	case StateVisible:
		if b.pinned {
			return
		}
		b.state = StatePendingHide
		b.hideTimer = time.AfterFunc(c.hideDelay(), func() {
			c.hideAfterDelay(entryID)
		})
	}
}

// Activate 非悬停触发（click/dblclick/contextmenu）：匹配配置的
// 事件类型时立即开合气泡
func (c *Controller) Activate(event, entryID string, mods Modifiers) {
	if !strings.EqualFold(c.cfg.Event, event) {
		return
	}
	if !mods.Has(Modifier(strings.ToLower(c.cfg.Modifier))) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bubble(entryID)

	switch b.state {
	case StateIdle, StatePendingShow:
		c.stopShowTimer(b)
		c.showLocked(entryID, b)
	case StateVisible, StatePendingHide:
		c.stopHideTimer(b)
		c.hideLocked(entryID, b)
	}
}

// Pin 钉住可见的气泡，之后指针离开不再触发收起
func (c *Controller) Pin(entryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bubble(entryID)

	switch b.state {
	case StateVisible:
		b.pinned = true
	case StatePendingHide:
		c.stopHideTimer(b)
		b.state = StateVisible
		b.pinned = true
	}
}

// Dismiss 显式关闭气泡，钉住的也关
func (c *Controller) Dismiss(entryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bubble(entryID)

	c.stopShowTimer(b)
	c.stopHideTimer(b)
	switch b.state {
	case StateVisible, StatePendingHide:
		c.hideLocked(entryID, b)
	default:
		b.state = StateIdle
	}
	b.pinned = false
}

// DismissAll 关闭所有气泡
func (c *Controller) DismissAll() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.bubbles))
	for id := range c.bubbles {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.Dismiss(id)
	}
}

// Lookup 根据标注元素携带的词条 ID 回查词条，供气泡渲染释义
func (c *Controller) Lookup(ctx context.Context, entryID string) (*vocabulary.Entry, error) {
	if c.store == nil {
		return nil, vocabulary.ErrNoStore
	}
	return c.store.Get(ctx, entryID)
}

// MarkLearning 把气泡对应的词条提升为正在学分类
func (c *Controller) MarkLearning(ctx context.Context, entryID string) error {
	if c.store == nil {
		return vocabulary.ErrNoStore
	}
	if err := c.store.Promote(ctx, entryID, vocabulary.CategoryLearning); err != nil {
		return err
	}
	c.logger.Info("entry promoted to learning", zap.String("entry", entryID))
	return nil
}

// bubble 取（或建）一个标注的气泡状态，调用方必须持锁
func (c *Controller) bubble(entryID string) *bubbleState {
	b, ok := c.bubbles[entryID]
	if !ok {
		b = &bubbleState{state: StateIdle}
		c.bubbles[entryID] = b
	}
	return b
}

// showAfterDelay 显示延迟到期，状态没被中途打断才真正显示
func (c *Controller) showAfterDelay(entryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bubble(entryID)
	if b.state != StatePendingShow {
		return
	}
	b.showTimer = nil
	c.showLocked(entryID, b)
}

// hideAfterDelay 隐藏延迟到期
func (c *Controller) hideAfterDelay(entryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bubble(entryID)
	if b.state != StatePendingHide {
		return
	}
	b.hideTimer = nil
	c.hideLocked(entryID, b)
}

// showLocked 切到可见态；单气泡模式下先收起其它气泡
func (c *Controller) showLocked(entryID string, b *bubbleState) {
	if !c.cfg.MultiBubble {
		for id, other := range c.bubbles {
			if id == entryID {
				continue
			}
			switch other.state {
			case StateVisible, StatePendingHide:
				c.stopHideTimer(other)
				c.hideLocked(id, other)
			case StatePendingShow:
				c.stopShowTimer(other)
				other.state = StateIdle
			}
		}
	}

	b.state = StateVisible
	if c.cbs.OnShow != nil {
		c.cbs.OnShow(entryID)
	}
}

// hideLocked 切回空闲态
func (c *Controller) hideLocked(entryID string, b *bubbleState) {
	b.state = StateIdle
	b.pinned = false
	if c.cbs.OnHide != nil {
		c.cbs.OnHide(entryID)
	}
}

func (c *Controller) stopShowTimer(b *bubbleState) {
	if b.showTimer != nil {
		b.showTimer.Stop()
		b.showTimer = nil
	}
}

func (c *Controller) stopHideTimer(b *bubbleState) {
	if b.hideTimer != nil {
		b.hideTimer.Stop()
		b.hideTimer = nil
	}
}

func (c *Controller) showDelay() time.Duration {
	return time.Duration(c.cfg.ShowDelayMs) * time.Millisecond
}

func (c *Controller) hideDelay() time.Duration {
	return time.Duration(c.cfg.HideDelayMs) * time.Millisecond
}
