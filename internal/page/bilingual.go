package page

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// InsertBilingual 在原文块后面插入译文兄弟块。
// 幂等：紧随其后已有译文块时不再插入。
func InsertBilingual(block *html.Node, translated string) {
	if block == nil || block.Parent == nil || translated == "" {
		return
	}

	if next := nextElement(block); next != nil && hasClass(next, BilingualClass) {
		return
	}

	div := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr: []html.Attribute{
			{Key: "class", Val: BilingualClass},
		},
	}
	div.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: translated,
	})

	block.Parent.InsertBefore(div, block.NextSibling)
}

// nextElement 跳过空白文本节点找下一个元素兄弟
func nextElement(n *html.Node) *html.Node {
	for sibling := n.NextSibling; sibling != nil; sibling = sibling.NextSibling {
		if sibling.Type == html.ElementNode {
			return sibling
		}
		if sibling.Type == html.TextNode && len(sibling.Data) > 0 && !isWhitespace(sibling.Data) {
			return nil
		}
	}
	return nil
}

func isWhitespace(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
