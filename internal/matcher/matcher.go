package matcher

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/vocabulary"
)

// Match 一次命中：原文中的一段文字及其来源词条。
// 偏移量和长度都以 rune 计。
type Match struct {
	Start  int
	Length int
	Text   string
	Entry  *vocabulary.Entry
}

// BaseFormAnalyzer 形态分析协作方，把文本还原为词元原形
type BaseFormAnalyzer interface {
	BaseForms(text string) []string
}

// Options 匹配选项
type Options struct {
	// Morphology 是否用词形变化参与验证
	Morphology bool

	// Fuzzy 精确定位失败时是否回退到模糊定位
	Fuzzy bool

	// FuzzyThreshold 模糊定位的最低相似度
	FuzzyThreshold float64

	// Analyzer 可选的形态分析器（如日语），为 nil 时只做字面比对
	Analyzer BaseFormAnalyzer
}

// Verify 验证阶段：词条是否在译文中出现过。
// 只有通过验证的词条才会进入原文定位，避免误报驱动错误的 DOM 修改。
func Verify(entry *vocabulary.Entry, translated string, opts Options) bool {
	if entry == nil || entry.Word == "" || entry.Translation == "" {
		return false
	}
	if translated == "" {
		return false
	}

	lower := strings.ToLower(translated)
	if strings.Contains(lower, strings.ToLower(entry.Word)) {
		return true
	}

	if !opts.Morphology {
		return false
	}

	for _, inflection := range entry.Inflections {
		if inflection == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(inflection)) {
			return true
		}
	}

	if opts.Analyzer != nil {
		for _, base := range opts.Analyzer.BaseForms(translated) {
			if strings.EqualFold(base, entry.Word) {
				return true
			}
		}
	}

	return false
}

// VerifyCandidates 过滤出在译文中出现过的词条，保持输入顺序
func VerifyCandidates(entries []*vocabulary.Entry, translated string, opts Options) []*vocabulary.Entry {
	var candidates []*vocabulary.Entry
	for _, entry := range entries {
		if Verify(entry, translated, opts) {
			candidates = append(candidates, entry)
		}
	}
	return candidates
}

// span 内部候选区间，order 记录词条在输入中的位置用于平局裁决
type span struct {
	start  int
	length int
	text   string
	entry  *vocabulary.Entry
	order  int
}

// FindMatches 定位阶段：在原文中查找各候选词条 Translation 的字面出现，
// 返回按起点排序、互不重叠的命中列表。
// 重叠裁决按区间长度降序先到先得，长匹配永远压过会把它撕碎的短子串。
func FindMatches(source string, candidates []*vocabulary.Entry) []Match {
	if source == "" || len(candidates) == 0 {
		return nil
	}

	runes := []rune(source)
	var spans []span

	for order, entry := range candidates {
		if entry == nil || entry.Translation == "" {
			continue
		}
		needle := []rune(entry.Translation)
		if len(needle) > len(runes) {
			continue
		}
		for start := 0; start+len(needle) <= len(runes); start++ {
			if runeEqual(runes[start:start+len(needle)], needle) {
				spans = append(spans, span{
					start:  start,
					length: len(needle),
					text:   entry.Translation,
					entry:  entry,
					order:  order,
				})
			}
		}
	}

	return resolveOverlaps(spans)
}

// FindMatchesFuzzy 先尝试精确定位；一无所获且启用模糊时，
// 用归一化编辑距离在原文上滑窗，取相似度最高的单个区间。
// 相似度并列时取更靠前的位置，再并列时取先列出的词条。
func FindMatchesFuzzy(source string, candidates []*vocabulary.Entry, opts Options) []Match {
	matches := FindMatches(source, candidates)
	if len(matches) > 0 || !opts.Fuzzy {
		return matches
	}

	threshold := opts.FuzzyThreshold
	if threshold <= 0 {
		threshold = 0.75
	}

	runes := []rune(source)
	best := Match{}
	bestScore := 0.0
	found := false

	for _, entry := range candidates {
		if entry == nil || entry.Translation == "" {
			continue
		}
		needle := []rune(entry.Translation)
		if len(needle) == 0 || len(needle) > len(runes) {
			continue
		}
		for start := 0; start+len(needle) <= len(runes); start++ {
			window := string(runes[start : start+len(needle)])
			score := Similarity(window, entry.Translation)
			if score < threshold {
				continue
			}
			// 并列裁决：更高分 > 更靠前的偏移 > 先列出的词条
			better := !found || score > bestScore ||
				(score == bestScore && start < best.Start)
			if better {
				bestScore = score
				best = Match{
					Start:  start,
					Length: len(needle),
					Text:   window,
					Entry:  entry,
				}
				found = true
			}
		}
	}

	if !found {
		return nil
	}
	return []Match{best}
}

// Similarity 归一化相似度：1 - 编辑距离/较长者的长度
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	max := la
	if lb > max {
		max = lb
	}
	if max == 0 {
		return 1.0
	}
	distance := fuzzy.LevenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(max)
}

// BestSense 在同一词头的多个释义中选出与偏好串最相似的一个。
// 并列时取先列出的释义（确定性裁决）。找不到时返回 -1。
func BestSense(senses []string, preference string) (int, float64) {
	bestIndex := -1
	bestScore := 0.0

	for i, sense := range senses {
		if sense == "" {
			continue
		}
		score := Similarity(sense, preference)
		if bestIndex == -1 || score > bestScore {
			bestIndex = i
			bestScore = score
		}
	}

	return bestIndex, bestScore
}

// resolveOverlaps 重叠裁决：长度降序、起点升序、输入顺序升序排序后，
// 依次接受与已接受区间不重叠者；结果按起点升序返回
func resolveOverlaps(spans []span) []Match {
	if len(spans) == 0 {
		return nil
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].length != spans[j].length {
			return spans[i].length > spans[j].length
		}
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].order < spans[j].order
	})

	var accepted []span
	for _, candidate := range spans {
		overlaps := false
		for _, existing := range accepted {
			if candidate.start < existing.start+existing.length &&
				existing.start < candidate.start+candidate.length {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, candidate)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].start < accepted[j].start
	})

	matches := make([]Match, 0, len(accepted))
	for _, s := range accepted {
		matches = append(matches, Match{
			Start:  s.start,
			Length: s.length,
			Text:   s.text,
			Entry:  s.entry,
		})
	}
	return matches
}

func runeEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
