package page

import (
	"strings"
	"unicode"
)

// Script 源语言的文字系统，用来判断一个块是否包含未翻译的源语言文本
type Script string

const (
	ScriptHan      Script = "han"
	ScriptJapanese Script = "japanese" // 汉字或假名
	ScriptHangul   Script = "hangul"
	ScriptLatin    Script = "latin"
	ScriptCyrillic Script = "cyrillic"
)

// ScriptForLanguage 根据语言代码推断文字系统
func ScriptForLanguage(lang string) Script {
	lower := strings.ToLower(lang)
	switch {
	case strings.HasPrefix(lower, "zh"):
		return ScriptHan
	case strings.HasPrefix(lower, "ja"):
		return ScriptJapanese
	case strings.HasPrefix(lower, "ko"):
		return ScriptHangul
	case strings.HasPrefix(lower, "ru"),
		strings.HasPrefix(lower, "uk"),
		strings.HasPrefix(lower, "bg"),
		strings.HasPrefix(lower, "sr"):
		return ScriptCyrillic
	default:
		return ScriptLatin
	}
}

// ContainsScript 文本中是否出现给定文字系统的字符
func ContainsScript(text string, script Script) bool {
	for _, r := range text {
		if isScriptRune(r, script) {
			return true
		}
	}
	return false
}

func isScriptRune(r rune, script Script) bool {
	switch script {
	case ScriptHan:
		return unicode.Is(unicode.Han, r)
	case ScriptJapanese:
		return unicode.Is(unicode.Han, r) ||
			unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r)
	case ScriptHangul:
		return unicode.Is(unicode.Hangul, r)
	case ScriptCyrillic:
		return unicode.Is(unicode.Cyrillic, r)
	case ScriptLatin:
		return unicode.Is(unicode.Latin, r)
	default:
		return unicode.IsLetter(r)
	}
}
