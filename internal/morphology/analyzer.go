package morphology

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Analyzer 日语形态分析器。学习目标是日语时，译文里的词经常以
// 活用形出现（行った/行きます），词表里只存原形（行く）；
// 这里把译文切分成词元并还原原形，供验证阶段比对。
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer 创建分析器
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// BaseForms 返回文本中所有词元的原形。
// IPA 词典的特征列：第 6 列是原形（Lemma），缺失时用表层形式。
func (a *Analyzer) BaseForms(text string) []string {
	tokens := a.t.Tokenize(text)
	var result []string

	for _, token := range tokens {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		base := token.Surface
		features := token.Features()
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		result = append(result, base)
	}

	return result
}
