package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/matcher"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/vocabulary"
	"github.com/spf13/cobra"
)

var (
	// vocab 子命令的标志
	vocabDBPath      string
	addWord          string
	addTranslation   string
	addInflections   []string
	addCategory      string
	promoteCategory  string
	categoryColorMap = map[vocabulary.Category]*color.Color{
		vocabulary.CategoryKnown:       color.New(color.FgGreen),
		vocabulary.CategoryLearning:    color.New(color.FgYellow),
		vocabulary.CategoryWantToLearn: color.New(color.FgCyan),
	}
)

// NewVocabCommand 创建 vocab 命令及其子命令
func NewVocabCommand() *cobra.Command {
	vocabCmd := &cobra.Command{
		Use:   "vocab",
		Short: "管理词汇库",
		Long: `管理词汇库中的词条。

Examples:
  # 列出所有词条
  vocab-annotator vocab list

  # 添加词条
  vocab-annotator vocab add --word cat --translation 猫

  # 从 TOML 词表批量导入
  vocab-annotator vocab import words.toml

  # 把词条提升为学习中
  vocab-annotator vocab promote <id> --category learning`,
	}

	vocabCmd.PersistentFlags().StringVar(&vocabDBPath, "vocab", "vocab.db", "词汇库路径")

	vocabCmd.AddCommand(newVocabListCommand())
	vocabCmd.AddCommand(newVocabAddCommand())
	vocabCmd.AddCommand(newVocabImportCommand())
	vocabCmd.AddCommand(newVocabPromoteCommand())
	vocabCmd.AddCommand(newVocabDeleteCommand())

	return vocabCmd
}

func newVocabListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出所有词条",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := vocabulary.Open(vocabDBPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("词汇库是空的")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"ID", "Word", "Translation", "Inflections", "Category"})
			for _, e := range entries {
				t.AppendRow(table.Row{
					shortID(e.ID),
					e.Word,
					e.Translation,
					strings.Join(e.Inflections, ", "),
					colorCategory(e.Category),
				})
			}
			t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d entries", len(entries))})
			t.Render()
			return nil
		},
	}
}

func newVocabAddCommand() *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "添加词条",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addWord == "" || addTranslation == "" {
				return fmt.Errorf("both --word and --translation are required")
			}

			store, err := vocabulary.Open(vocabDBPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			entry := &vocabulary.Entry{
				Word:        addWord,
				Translation: addTranslation,
				Inflections: addInflections,
				Category:    vocabulary.Category(addCategory),
			}
			if addCategory == "" {
				entry.Category = vocabulary.CategoryWantToLearn
			}
			if err := store.Add(cmd.Context(), entry); err != nil {
				return err
			}

			color.Green("已添加: %s → %s (%s)", entry.Word, entry.Translation, entry.ID)
			return nil
		},
	}

	addCmd.Flags().StringVar(&addWord, "word", "", "学习目标语言的词（出现在译文里）")
	addCmd.Flags().StringVar(&addTranslation, "translation", "", "页面语言的对应写法（在原文里标注）")
	addCmd.Flags().StringSliceVar(&addInflections, "inflections", nil, "词形变化，逗号分隔")
	addCmd.Flags().StringVar(&addCategory, "category", "", "分类: known / want_to_learn / learning")
	return addCmd
}

func newVocabImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import word_list.toml",
		Short: "从 TOML 词表批量导入",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := vocabulary.LoadWordList(args[0])
			if err != nil {
				return err
			}
			resolveSenses(list)

			store, err := vocabulary.Open(vocabDBPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			imported, err := vocabulary.Import(cmd.Context(), store, list)
			if err != nil {
				return fmt.Errorf("imported %d entries before failing: %w", imported, err)
			}

			color.Green("已导入 %d 个词条 (%s → %s)", imported, list.SourceLang, list.TargetLang)
			return nil
		},
	}
}

func newVocabPromoteCommand() *cobra.Command {
	promoteCmd := &cobra.Command{
		Use:   "promote entry_id",
		Short: "变更词条分类",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := vocabulary.Open(vocabDBPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			category := vocabulary.Category(promoteCategory)
			if err := store.Promote(cmd.Context(), args[0], category); err != nil {
				return err
			}

			color.Green("已变更 %s → %s", shortID(args[0]), category)
			return nil
		},
	}

	promoteCmd.Flags().StringVar(&promoteCategory, "category", string(vocabulary.CategoryLearning),
		"目标分类: known / want_to_learn / learning")
	return promoteCmd
}

func newVocabDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete entry_id",
		Short: "删除词条",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := vocabulary.Open(vocabDBPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			color.Yellow("已删除 %s", shortID(args[0]))
			return nil
		},
	}
}

// resolveSenses 词表条目列出多个释义时，按偏好串挑一个最相似的
// 作为 Translation；没写偏好时用词头本身。已有 Translation 的条目不动。
func resolveSenses(list *vocabulary.WordList) {
	for i := range list.Words {
		item := &list.Words[i]
		if item.Translation != "" || len(item.Senses) == 0 {
			continue
		}
		preference := item.Preference
		if preference == "" {
			preference = item.Word
		}
		if idx, _ := matcher.BestSense(item.Senses, preference); idx >= 0 {
			item.Translation = item.Senses[idx]
		}
	}
}

// shortID UUID 太长，表格里只展示前 8 位
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// colorCategory 按分类着色
func colorCategory(c vocabulary.Category) string {
	if col, ok := categoryColorMap[c]; ok {
		return col.Sprint(string(c))
	}
	return string(c)
}
