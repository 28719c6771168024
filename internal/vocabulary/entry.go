package vocabulary

import "strings"

// Category 词条分类
type Category string

const (
	// CategoryKnown 已掌握
	CategoryKnown Category = "known"

	// CategoryWantToLearn 想学
	CategoryWantToLearn Category = "want_to_learn"

	// CategoryLearning 学习中
	CategoryLearning Category = "learning"
)

// ValidCategory 检查分类是否合法
func ValidCategory(c Category) bool {
	switch c {
	case CategoryKnown, CategoryWantToLearn, CategoryLearning:
		return true
	}
	return false
}

// Entry 词汇条目。Word 是正在学习的目标语言词（出现在译文里），
// Translation 是它在页面语言中的对应写法（在原文里定位并标注）。
// 扫描流水线只读快照，分类变更通过 Store.Promote 在扫描之间发生。
type Entry struct {
	ID          string   `json:"id"`
	Word        string   `json:"word"`
	Translation string   `json:"translation"`
	Inflections []string `json:"inflections,omitempty"`
	Category    Category `json:"category"`
}

// Surfaces 返回词条所有可能出现在译文中的表层形式（原形 + 词形变化）
func (e *Entry) Surfaces() []string {
	surfaces := make([]string, 0, len(e.Inflections)+1)
	if e.Word != "" {
		surfaces = append(surfaces, e.Word)
	}
	for _, inf := range e.Inflections {
		if strings.TrimSpace(inf) != "" {
			surfaces = append(surfaces, inf)
		}
	}
	return surfaces
}
