package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/config"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers/factory"
	"github.com/spf13/cobra"
)

// NewEnginesCommand 创建 engines 命令：列出配置里的翻译引擎
// 并验证启用的引擎都能构建出来
func NewEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "列出配置的翻译引擎",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if engineName != "" {
				cfg.ActiveEngine = engineName
			}

			registry, err := factory.BuildAll(cfg)
			if err != nil {
				return fmt.Errorf("engine configuration is broken: %w", err)
			}

			built := registry.List()
			sort.Strings(built)
			buildable := make(map[string]bool, len(built))
			for _, name := range built {
				buildable[name] = true
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Name", "Type", "Model", "Enabled", "Active"})
			for _, e := range cfg.Engines {
				active := ""
				if e.Name == cfg.ActiveEngine {
					active = color.GreenString("✔")
				}
				enabled := ""
				if buildable[e.Name] {
					enabled = "yes"
				}
				t.AppendRow(table.Row{e.Name, e.Type, e.Model, enabled, active})
			}
			t.Render()

			if cfg.ActiveEngine == "" {
				color.Yellow("没有启用的引擎，标注流水线只会扫描不会翻译")
			}
			return nil
		},
	}
}
