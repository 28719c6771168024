package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nerdneilsfield/go-vocab-annotator/internal/page"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/translation"
	"go.uber.org/zap"
)

// Config 调度参数
type Config struct {
	// MaxBatchBlocks 缓冲区达到该块数立即派发
	MaxBatchBlocks int

	// MaxBatchChars 缓冲区累计字符达到该值立即派发
	MaxBatchChars int

	// MinBlockChars 少于该字符数的块直接拒绝
	MinBlockChars int

	// FlushDelay 缓冲区静默该时长后派发不满的批次
	FlushDelay time.Duration

	// RequestInterval 相邻两次翻译请求起点的最小间隔
	RequestInterval time.Duration

	// Script 块文本必须包含的源语言文字系统
	Script page.Script

	// SourceLanguage 页面语言
	SourceLanguage string

	// TargetLanguage 翻译目标语言
	TargetLanguage string
}

// DefaultConfig 返回默认调度参数
func DefaultConfig() Config {
	return Config{
		MaxBatchBlocks:  8,
		MaxBatchChars:   4000,
		MinBlockChars:   2,
		FlushDelay:      500 * time.Millisecond,
		RequestInterval: 1500 * time.Millisecond,
		Script:          page.ScriptHan,
		SourceLanguage:  "zh",
		TargetLanguage:  "en",
	}
}

// ApplyFunc 批次翻译成功后对每个块调用一次。
// translated 是该块按位置分到的译文，可能为空字符串。
// 回调在调度器的派发协程上执行。
type ApplyFunc func(block *page.Block, translated string)

// FailFunc 批次派发失败（或限流等待被取消）时调用一次，
// 接收方负责给整批块打错误标记。与 ApplyFunc 一样在派发协程上执行：
// 会话传入经会话锁串行化的回调，错误路径的属性写入才不会和
// 扫描侧的属性读取并发碰同一棵树。
type FailFunc func(blocks []*page.Block)

// Scheduler 把扫描产出的块攒成批次，逐批串行发给翻译引擎。
// Add 在调用方协程上执行，派发在单个后台协程上执行；
// 同一时刻最多只有一个请求在途。
type Scheduler struct {
	cfg        Config
	pg         *page.Page
	translator translation.Translator
	apply      ApplyFunc
	fail       FailFunc
	logger     *zap.Logger
	ctx        context.Context

	mu          sync.Mutex
	cond        *sync.Cond
	buffer      []*page.Block
	bufferChars int
	queue       []*Batch
	running     bool
	aborted     bool
	flushTimer  *time.Timer

	// lastDispatch 只在派发协程上读写
	lastDispatch time.Time
}

// New 创建调度器。translator 为 nil 表示没有启用引擎：
// 块仍会入队打 pending 标记，但派发循环会直接中止。
// fail 为 nil 时调度器直接在页面上打错误标记，只适合没有并发
// 扫描的单协程场景；会话必须传入自己的串行化回调。
func New(ctx context.Context, cfg Config, pg *page.Page, translator translation.Translator, apply ApplyFunc, fail FailFunc, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		cfg:        cfg,
		pg:         pg,
		translator: translator,
		apply:      apply,
		fail:       fail,
		logger:     logger,
		ctx:        ctx,
	}
	if s.fail == nil {
		s.fail = func(blocks []*page.Block) {
			for _, blk := range blocks {
				pg.Mark(blk.Element, page.StatusError)
			}
		}
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Add 尝试接受一个块。接受即打 pending 标记并进入缓冲区；
// 被拒绝的块不留任何痕迹，下次重扫还会再见到它。
func (s *Scheduler) Add(b *page.Block) bool {
	if b == nil || b.Element == nil {
		return false
	}
	if s.pg.Marked(b.Element) {
		return false
	}
	if strings.TrimSpace(b.Text) == "" {
		return false
	}
	chars := b.CharCount()
	if chars < s.cfg.MinBlockChars {
		return false
	}
	if !page.ContainsScript(b.Text, s.cfg.Script) {
		return false
	}

	s.pg.Mark(b.Element, page.StatusPending)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = append(s.buffer, b)
	s.bufferChars += chars
	if len(s.buffer) >= s.cfg.MaxBatchBlocks || s.bufferChars >= s.cfg.MaxBatchChars {
		s.flushLocked()
	} else {
		s.restartFlushTimerLocked()
	}
	return true
}

// Flush 立刻把缓冲区封成批次入队（缓冲区为空时无事发生）
func (s *Scheduler) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

// Stats 返回当前缓冲块数和排队批次数
func (s *Scheduler) Stats() (buffered, queued int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer), len(s.queue)
}

// Wait 阻塞到所有已接受的块处理完毕。进入时先冲刷缓冲区，
// 不等防抖窗口。没有启用引擎时返回 ErrNoEngine，队列原样保留。
func (s *Scheduler) Wait(ctx context.Context) error {
	s.Flush()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// 持锁广播，避免唤醒落在检查和挂起之间的窗口里
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		case <-done:
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.aborted {
			return translation.ErrNoEngine
		}
		if len(s.buffer) == 0 && len(s.queue) == 0 && !s.running {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cond.Wait()
	}
}

// flushLocked 调用方必须持有 s.mu
func (s *Scheduler) flushLocked() {
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
	if len(s.buffer) == 0 {
		return
	}

	batch := newBatch(s.buffer, s.bufferChars)
	s.buffer = nil
	s.bufferChars = 0
	s.queue = append(s.queue, batch)
	s.logger.Debug("batch queued",
		zap.String("batch", batch.ID),
		zap.Int("blocks", len(batch.Blocks)),
		zap.Int("chars", batch.Chars))

	if !s.running && !s.aborted {
		s.running = true
		go s.loop()
	}
}

// restartFlushTimerLocked 调用方必须持有 s.mu
func (s *Scheduler) restartFlushTimerLocked() {
	if s.cfg.FlushDelay <= 0 {
		s.flushLocked()
		return
	}
	if s.flushTimer != nil {
		s.flushTimer.Stop()
	}
	s.flushTimer = time.AfterFunc(s.cfg.FlushDelay, s.Flush)
}

// loop 派发协程：逐批出队、限流、请求、回填。
// 任何一批失败只影响这一批，循环继续处理后面的批次。
func (s *Scheduler) loop() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		if s.translator == nil {
			queued := len(s.queue)
			s.running = false
			s.aborted = true
			s.cond.Broadcast()
			s.mu.Unlock()
			s.logger.Error("no translation engine enabled, dispatch aborted",
				zap.Int("queuedBatches", queued))
			return
		}
		batch := s.queue[0]
		s.queue = s.queue[1:]
		batch.State = BatchInFlight
		s.mu.Unlock()

		if err := s.throttle(); err != nil {
			s.fail(batch.Blocks)
			batch.State = BatchCompleted
			continue
		}
		s.dispatch(batch)
		batch.State = BatchCompleted
	}
}

// throttle 保证相邻请求起点间隔不小于 RequestInterval
func (s *Scheduler) throttle() error {
	if !s.lastDispatch.IsZero() {
		if wait := s.cfg.RequestInterval - time.Since(s.lastDispatch); wait > 0 {
			select {
			case <-time.After(wait):
			case <-s.ctx.Done():
				return s.ctx.Err()
			}
		}
	}
	s.lastDispatch = time.Now()
	return nil
}

// dispatch 翻译一个批次并把译文按位置回填到各块
func (s *Scheduler) dispatch(batch *Batch) {
	s.logger.Debug("dispatching batch",
		zap.String("batch", batch.ID),
		zap.Int("blocks", len(batch.Blocks)))

	resp, err := s.translator.Translate(s.ctx, &translation.Request{
		Text:           batch.Combined(),
		SourceLanguage: s.cfg.SourceLanguage,
		TargetLanguage: s.cfg.TargetLanguage,
	})
	if err != nil {
		s.logger.Warn("batch translation failed",
			zap.String("batch", batch.ID),
			zap.Int("blocks", len(batch.Blocks)),
			zap.Error(err))
		s.fail(batch.Blocks)
		return
	}

	parts := translation.SplitParts(resp.Text, len(batch.Blocks))
	for i, blk := range batch.Blocks {
		s.apply(blk, parts[i])
	}
}
