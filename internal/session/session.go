package session

import (
	"context"
	"sync"

	"github.com/nerdneilsfield/go-vocab-annotator/internal/config"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/matcher"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/page"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/scheduler"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/vocabulary"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/translation"
	"go.uber.org/zap"
)

// Session 一个页面的标注会话：扫描、调度、匹配、标注串成一条流水线。
// 词汇表在会话创建时快照，之后词库的改动不影响本次会话。
// 扫描和标注都要改同一棵树，用会话锁串行化：Rescan 在调用方协程
// 上执行，译文回填在调度器的派发协程上执行。
type Session struct {
	cfg     *config.Config
	logger  *zap.Logger
	pg      *page.Page
	entries []*vocabulary.Entry
	sched   *scheduler.Scheduler
	opts    matcher.Options
	script  page.Script

	mu sync.Mutex
}

// New 创建会话。translator 为 nil 表示没有启用引擎，扫描照常，
// 派发会中止。analyzer 为 nil 时验证阶段只做字面和词形比对。
func New(ctx context.Context, cfg *config.Config, pg *page.Page, entries []*vocabulary.Entry,
	translator translation.Translator, analyzer matcher.BaseFormAnalyzer, logger *zap.Logger) *Session {

	script := page.Script(cfg.SourceScript)
	if cfg.SourceScript == "" {
		script = page.ScriptForLanguage(cfg.SourceLang)
	}

	s := &Session{
		cfg:     cfg,
		logger:  logger,
		pg:      pg,
		entries: entries,
		script:  script,
		opts: matcher.Options{
			Morphology:     cfg.Match.Morphology,
			Fuzzy:          cfg.Match.Fuzzy,
			FuzzyThreshold: cfg.Match.FuzzyThreshold,
			Analyzer:       analyzer,
		},
	}

	s.sched = scheduler.New(ctx, scheduler.Config{
		MaxBatchBlocks:  cfg.Scheduler.MaxBatchBlocks,
		MaxBatchChars:   cfg.Scheduler.MaxBatchChars,
		MinBlockChars:   cfg.Scheduler.MinBlockChars,
		FlushDelay:      cfg.Scheduler.FlushDelay(),
		RequestInterval: cfg.Scheduler.RequestInterval(),
		Script:          script,
		SourceLanguage:  cfg.SourceLang,
		TargetLanguage:  cfg.TargetLang,
	}, pg, translator, s.apply, s.failBlocks, logger)

	return s
}

// Page 返回会话绑定的页面
func (s *Session) Page() *page.Page {
	return s.pg
}

// Rescan 重新扫描页面并把新发现的块交给调度器。
// 已处理过的块被扫描器跳过，所以重扫天然幂等。
// 返回本轮被调度器接受的块数。
func (s *Session) Rescan() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	scanner := page.NewScanner(s.pg, page.ScanOptions{
		MainContent: s.cfg.MainContent,
		Script:      s.script,
	}, s.logger)

	blocks := scanner.Scan()
	accepted := 0
	for _, b := range blocks {
		if s.sched.Add(b) {
			accepted++
		}
	}

	s.logger.Info("page scanned",
		zap.Int("blocks", len(blocks)),
		zap.Int("accepted", accepted))
	return accepted
}

// Run 扫描一轮并等待所有批次处理完毕
func (s *Session) Run(ctx context.Context) error {
	s.Rescan()
	return s.sched.Wait(ctx)
}

// Wait 等待已接受的块全部处理完毕
func (s *Session) Wait(ctx context.Context) error {
	return s.sched.Wait(ctx)
}

// failBlocks 批次失败的打标也走会话锁：错误路径在派发协程上
// 写节点属性，不串行化会和并发重扫的属性读取撞在同一棵树上
func (s *Session) failBlocks(blocks []*page.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, blk := range blocks {
		s.pg.Mark(blk.Element, page.StatusError)
	}
}

// apply 译文回填：验证、定位、标注。在派发协程上执行。
func (s *Session) apply(block *page.Block, translated string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Bilingual && translated != "" {
		page.InsertBilingual(block.Element, translated)
	}

	candidates := matcher.VerifyCandidates(s.entries, translated, s.opts)
	if len(candidates) == 0 {
		s.pg.Mark(block.Element, page.StatusNoMatch)
		return
	}

	matches := matcher.FindMatchesFuzzy(block.Text, candidates, s.opts)
	if len(matches) == 0 {
		// 词条在译文里出现了，却没能落回原文
		s.pg.Mark(block.Element, page.StatusFuzzyFail)
		s.logger.Debug("verified entries could not be located in source",
			zap.Int("candidates", len(candidates)))
		return
	}

	for _, node := range page.TextNodes(block.Element) {
		page.Annotate(node, matches)
	}
	s.pg.Mark(block.Element, page.StatusTranslated)
	s.logger.Debug("block annotated",
		zap.Int("matches", len(matches)),
		zap.Int("candidates", len(candidates)))
}
