package vocabulary

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// WordList TOML 词表文件
type WordList struct {
	SourceLang string     `toml:"source_lang"`
	TargetLang string     `toml:"target_lang"`
	Words      []WordItem `toml:"words"`
}

// WordItem 词表条目。一个词有多个释义时可以不直接给 translation，
// 改为列出 senses 由导入方按 preference 挑选一个。
type WordItem struct {
	Word        string   `toml:"word"`
	Translation string   `toml:"translation"`
	Inflections []string `toml:"inflections"`
	Category    string   `toml:"category"`
	Senses      []string `toml:"senses"`
	Preference  string   `toml:"preference"`
}

// LoadWordList 从 TOML 文件加载词表
func LoadWordList(path string) (*WordList, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("word list file not found: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list file: %w", err)
	}

	list := &WordList{}
	if err := toml.Unmarshal(content, list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal word list: %w", err)
	}
	if len(list.Words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return list, nil
}

// Import 将词表导入词汇库，返回成功导入的条数
func Import(ctx context.Context, store Store, list *WordList) (int, error) {
	imported := 0
	for _, item := range list.Words {
		category := Category(item.Category)
		if item.Category == "" {
			category = CategoryWantToLearn
		}
		entry := &Entry{
			Word:        item.Word,
			Translation: item.Translation,
			Inflections: item.Inflections,
			Category:    category,
		}
		if err := store.Add(ctx, entry); err != nil {
			return imported, fmt.Errorf("failed to import %q: %w", item.Word, err)
		}
		imported++
	}
	return imported, nil
}
