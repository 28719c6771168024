package translation

import (
	"regexp"
	"strings"
)

// PartBreak 批量翻译的分隔标记。多个文本块在一次请求中用它连接，
// 响应再按它切回。标记本身不包含任何自然语言，避免被翻译引擎改写，
// 也不会与正常页面内容冲突。
const PartBreak = "@@PART_BREAK@@"

// partBreakPattern 容忍分隔标记前后被引擎加入或吞掉的空白
var partBreakPattern = regexp.MustCompile(`\s*@@PART_BREAK@@\s*`)

// JoinParts 将多个文本块连接为一个批量请求文本
func JoinParts(parts []string) string {
	return strings.Join(parts, "\n"+PartBreak+"\n")
}

// SplitParts 将批量响应按分隔标记切回 n 份。
// 响应比预期短时，缺失的部分补空字符串；比预期长时，多余部分被丢弃。
// 块与译文按位置一一对应，这里保证返回值长度恒等于 n。
func SplitParts(combined string, n int) []string {
	if n <= 0 {
		return nil
	}

	parts := partBreakPattern.Split(combined, -1)

	result := make([]string, n)
	for i := 0; i < n; i++ {
		if i < len(parts) {
			result[i] = strings.TrimSpace(parts[i])
		}
	}
	return result
}
