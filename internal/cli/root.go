package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/config"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/logger"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/matcher"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/morphology"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/page"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/session"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/vocabulary"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/watcher"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers/factory"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/translation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// 命令行标志变量
	cfgFile      string
	engineName   string
	sourceLang   string
	targetLang   string
	vocabPath    string
	bilingual    bool
	mainContent  bool
	readerMode   bool // 用可读性抽取替代启发式正文定位
	watchMode    bool // 监视输入文件，改动后自动重跑
	dryRun       bool // 只扫描不翻译，打印将要处理的块
	debugMode    bool
	snippetWidth int
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vocab-annotator [flags] input.html [output.html]",
		Short: "网页双语词汇标注工具",
		Long: `网页双语词汇标注工具：扫描 HTML 页面里的可翻译文本块，
分批送给翻译引擎，在译文里验证词汇表中正在学习的词，
再把对应的原文片段包上标注元素，供交互层展示气泡释义。

支持的翻译引擎:
  - openai: OpenAI 兼容的聊天模型接口
  - google: Google Translate v2
  - raw:    原样返回（调试用，不发网络请求）`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewLogger(debugMode)
			defer func() {
				_ = log.Sync()
			}()

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			applyFlagOverrides(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			input := args[0]
			output := ""
			if len(args) > 1 {
				output = args[1]
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if watchMode {
				return runWatch(ctx, cfg, log, input, output)
			}
			return runOnce(ctx, cfg, log, input, output)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径 (默认搜索 .vocab-annotator.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "输出调试日志")

	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "", "启用的翻译引擎名称")
	rootCmd.Flags().StringVarP(&sourceLang, "source", "s", "", "页面语言 (如 zh-CN)")
	rootCmd.Flags().StringVarP(&targetLang, "target", "t", "", "翻译目标语言 (如 en)")
	rootCmd.Flags().StringVar(&vocabPath, "vocab", "", "词汇库路径")
	rootCmd.Flags().BoolVar(&bilingual, "bilingual", false, "在原文块下插入译文块")
	rootCmd.Flags().BoolVar(&mainContent, "main-content", false, "只扫描正文区域")
	rootCmd.Flags().BoolVar(&readerMode, "reader-mode", false, "先做可读性抽取再扫描")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "监视输入文件并自动重跑")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "只扫描不翻译")
	rootCmd.Flags().IntVar(&snippetWidth, "snippet-width", 40, "预演表格里文本摘要的最大字符数")

	rootCmd.AddCommand(NewVocabCommand())
	rootCmd.AddCommand(NewEnginesCommand())

	return rootCmd
}

// applyFlagOverrides 命令行标志覆盖配置文件
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if engineName != "" {
		cfg.ActiveEngine = engineName
	}
	if sourceLang != "" {
		cfg.SourceLang = sourceLang
	}
	if targetLang != "" {
		cfg.TargetLang = targetLang
	}
	if vocabPath != "" {
		cfg.VocabPath = vocabPath
	}
	if cmd.Flags().Changed("bilingual") {
		cfg.Bilingual = bilingual
	}
	if cmd.Flags().Changed("main-content") {
		cfg.MainContent = mainContent
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = debugMode
	}
}

// runOnce 完整跑一遍：加载页面、扫描、翻译、标注、写出
func runOnce(ctx context.Context, cfg *config.Config, log *zap.Logger, input, output string) error {
	pg, err := loadPage(input, readerMode)
	if err != nil {
		return err
	}

	if dryRun {
		return printScanTable(cfg, log, pg)
	}

	store, err := vocabulary.Open(cfg.VocabPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	entries, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Warn("vocabulary is empty, nothing will be annotated",
			zap.String("vocab", cfg.VocabPath))
	}

	translator, err := factory.Build(cfg, log)
	if err != nil {
		return err
	}

	sess := session.New(ctx, cfg, pg, entries, translator, buildAnalyzer(cfg, log), log)
	if err := sess.Run(ctx); err != nil {
		if errors.Is(err, translation.ErrNoEngine) {
			log.Error("no translation engine enabled, blocks left pending",
				zap.String("hint", "set active_engine in config or pass --engine"))
		}
		return err
	}

	return writeOutput(pg, output)
}

// runWatch 监视输入文件，每次改动后重新跑一遍流水线。
// 输出文件里带着扫描状态属性，把输出喂回输入也不会重复处理。
func runWatch(ctx context.Context, cfg *config.Config, log *zap.Logger, input, output string) error {
	if output == "" {
		return fmt.Errorf("watch mode requires an output file")
	}
	if input == "-" {
		return fmt.Errorf("watch mode cannot follow standard input")
	}

	rerun := func() {
		if err := runOnce(ctx, cfg, log, input, output); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("annotation run failed", zap.Error(err))
		}
	}

	rerun()

	w, err := watcher.New(input, 500*time.Millisecond, rerun, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Close()
	}()

	log.Info("watching for changes",
		zap.String("input", input),
		zap.String("output", output))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadPage 读取并解析输入页面，可选先做可读性抽取。"-" 表示标准输入。
func loadPage(path string, reader bool) (*page.Page, error) {
	var f *os.File
	if path == "-" {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
	}

	if !reader {
		return page.Parse(f)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	article, err := readability.FromReader(f, &url.URL{Scheme: "file", Path: abs})
	if err != nil {
		return nil, fmt.Errorf("readability extraction failed: %w", err)
	}
	return page.Parse(strings.NewReader(article.Content))
}

// printScanTable 预演模式：打印扫描结果表格后退出
func printScanTable(cfg *config.Config, log *zap.Logger, pg *page.Page) error {
	script := page.Script(cfg.SourceScript)
	if cfg.SourceScript == "" {
		script = page.ScriptForLanguage(cfg.SourceLang)
	}

	blocks := page.NewScanner(pg, page.ScanOptions{
		MainContent: cfg.MainContent,
		Script:      script,
	}, log).Scan()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Chars", "Text"})
	totalChars := 0
	for i, b := range blocks {
		t.AppendRow(table.Row{i + 1, b.CharCount(), snippet(b.Text, snippetWidth)})
		totalChars += b.CharCount()
	}
	t.AppendFooter(table.Row{"", totalChars, fmt.Sprintf("%d blocks", len(blocks))})
	t.Render()
	return nil
}

// buildAnalyzer 学习目标是日语时加载形态分析器
func buildAnalyzer(cfg *config.Config, log *zap.Logger) matcher.BaseFormAnalyzer {
	if !cfg.Match.Morphology || !strings.HasPrefix(strings.ToLower(cfg.TargetLang), "ja") {
		return nil
	}
	analyzer, err := morphology.NewAnalyzer()
	if err != nil {
		log.Warn("failed to load morphological analyzer, falling back to literal matching",
			zap.Error(err))
		return nil
	}
	return analyzer
}

// writeOutput 序列化页面到输出文件，未指定时写到标准输出
func writeOutput(pg *page.Page, output string) error {
	rendered, err := pg.HTML()
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	if output == "" {
		fmt.Println(rendered)
		return nil
	}
	return os.WriteFile(output, []byte(rendered), 0o644)
}

// snippet 截断到给定字符数
func snippet(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}
