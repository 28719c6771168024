package main

import (
	"os"

	"github.com/nerdneilsfield/go-vocab-annotator/internal/cli"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/logger"
	"go.uber.org/zap"
)

// 由 -ldflags 在构建时注入
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// --debug 只在命令解析后才生效，启动阶段的日志级别用环境变量兜底
	log := logger.NewLogger(os.Getenv("VOCAB_ANNOTATOR_DEBUG") != "")
	defer func() {
		_ = log.Sync()
	}()

	rootCmd := cli.NewRootCommand(version, commit, buildDate)
	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
