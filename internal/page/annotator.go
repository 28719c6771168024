package page

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nerdneilsfield/go-vocab-annotator/internal/matcher"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Annotate 用匹配结果重写一个文本节点：把命中的文字换成标注元素，
// 未命中的文字原样保留（包括空白）。这是整个系统里唯一允许修改
// 页面内容的入口。已在标注或译文容器内的节点不做任何处理。
func Annotate(textNode *html.Node, matches []matcher.Match) {
	if textNode == nil || textNode.Type != html.TextNode || textNode.Parent == nil {
		return
	}
	if len(matches) == 0 {
		return
	}
	if InsideInjected(textNode) {
		return
	}

	pattern, byText := buildPattern(matches)
	if pattern == nil {
		return
	}

	data := textNode.Data
	indexes := pattern.FindAllStringIndex(data, -1)
	if len(indexes) == 0 {
		return
	}

	parent := textNode.Parent
	prev := 0
	for _, idx := range indexes {
		if idx[0] > prev {
			parent.InsertBefore(newText(data[prev:idx[0]]), textNode)
		}
		matched := data[idx[0]:idx[1]]
		parent.InsertBefore(newAnnotation(matched, byText[matched]), textNode)
		prev = idx[1]
	}
	if prev < len(data) {
		parent.InsertBefore(newText(data[prev:]), textNode)
	}

	parent.RemoveChild(textNode)
}

// TextNodes 返回元素下所有可标注的文本节点（跳过注入容器内的）
func TextNodes(element *html.Node) []*html.Node {
	var nodes []*html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			nodes = append(nodes, n)
			return
		}
		if n.Type == html.ElementNode && (isInjected(n) || rejectedTags[strings.ToLower(n.Data)]) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(element)
	return nodes
}

// InsideInjected 节点是否位于本工具注入的容器内
func InsideInjected(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && isInjected(p) {
			return true
		}
	}
	return false
}

// buildPattern 把所有命中的文字构造成一个按长度降序的选择分支正则。
// 长匹配排在前面，保证一个命中的文字不会被另一个命中的子串截胡。
func buildPattern(matches []matcher.Match) (*regexp.Regexp, map[string]matcher.Match) {
	byText := make(map[string]matcher.Match)
	var texts []string
	for _, m := range matches {
		if m.Text == "" {
			continue
		}
		if _, seen := byText[m.Text]; !seen {
			byText[m.Text] = m
			texts = append(texts, m.Text)
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}

	sort.SliceStable(texts, func(i, j int) bool {
		return len([]rune(texts[i])) > len([]rune(texts[j]))
	})

	quoted := make([]string, len(texts))
	for i, t := range texts {
		quoted[i] = regexp.QuoteMeta(t)
	}

	pattern, err := regexp.Compile(strings.Join(quoted, "|"))
	if err != nil {
		return nil, nil
	}
	return pattern, byText
}

// newText 创建纯文本节点
func newText(data string) *html.Node {
	return &html.Node{
		Type: html.TextNode,
		Data: data,
	}
}

// newAnnotation 创建标注元素，携带词条信息供交互层回查
func newAnnotation(matched string, m matcher.Match) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     "span",
		Attr: []html.Attribute{
			{Key: "class", Val: AnnotationClass},
		},
	}
	if m.Entry != nil {
		span.Attr = append(span.Attr,
			html.Attribute{Key: AttrEntryID, Val: m.Entry.ID},
			html.Attribute{Key: AttrCategory, Val: string(m.Entry.Category)},
		)
	}
	span.Attr = append(span.Attr, html.Attribute{Key: AttrOriginal, Val: matched})
	span.AppendChild(newText(matched))
	return span
}
