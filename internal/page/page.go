package page

import (
	"bytes"
	"io"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// 注入页面的标记。扫描状态写进属性里，这样同一份输出再跑一遍
// （或观察循环触发的重扫）不会重复处理已经动过的块。
const (
	// ScanAttr 块的扫描状态属性
	ScanAttr = "data-va-scanned"

	// AnnotationClass 词汇标注元素的 class
	AnnotationClass = "va-word"

	// BilingualClass 双语译文块的 class
	BilingualClass = "va-bilingual"

	// AttrEntryID 标注元素携带的词条ID
	AttrEntryID = "data-va-id"

	// AttrCategory 标注元素携带的词条分类
	AttrCategory = "data-va-category"

	// AttrOriginal 标注元素携带的原文
	AttrOriginal = "data-va-original"
)

// Status 块的扫描状态
type Status string

const (
	// StatusPending 已被调度器接受，等待翻译
	StatusPending Status = "pending"

	// StatusTranslated 已翻译并完成标注
	StatusTranslated Status = "true"

	// StatusNoMatch 译文中没有出现任何词条
	StatusNoMatch Status = "no-match"

	// StatusFuzzyFail 词条通过了译文验证但在原文中定位失败
	StatusFuzzyFail Status = "fuzzy-fail"

	// StatusError 批次派发失败
	StatusError Status = "error"
)

// Block 扫描发现的叶子块：元素引用加扫描时刻捕获的纯文本
type Block struct {
	Element *html.Node
	Text    string
}

// CharCount 返回捕获文本的字符数
func (b *Block) CharCount() int {
	return len([]rune(b.Text))
}

// Page 一个待标注的 HTML 页面。状态同时记在会话内的边表
// （以节点身份为键）和节点属性上：边表在一次运行中是权威，
// 属性让状态跨运行存活。打标从扫描方和调度器的派发协程两侧
// 发起，所以状态读写要加锁。
type Page struct {
	doc *goquery.Document

	mu     sync.RWMutex
	status map[*html.Node]Status
}

// Parse 解析 HTML 页面
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Page{
		doc:    doc,
		status: make(map[*html.Node]Status),
	}, nil
}

// Document 返回底层 goquery 文档
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// Mark 记录块的扫描状态（边表 + 属性）
func (p *Page) Mark(n *html.Node, s Status) {
	if n == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status[n] = s
	setAttr(n, ScanAttr, string(s))
}

// StatusOf 查询块的扫描状态
func (p *Page) StatusOf(n *html.Node) (Status, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.status[n]; ok {
		return s, true
	}
	if v, ok := getAttr(n, ScanAttr); ok && v != "" {
		return Status(v), true
	}
	return "", false
}

// Marked 块是否已被处理过
func (p *Page) Marked(n *html.Node) bool {
	_, ok := p.StatusOf(n)
	return ok
}

// HTML 序列化整个页面
func (p *Page) HTML() (string, error) {
	root := p.doc.Get(0)
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// getAttr 读取节点属性
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// setAttr 写入（或覆盖）节点属性
func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// hasClass 节点 class 属性是否包含某个 class
func hasClass(n *html.Node, class string) bool {
	v, ok := getAttr(n, "class")
	if !ok {
		return false
	}
	for _, c := range splitClasses(v) {
		if c == class {
			return true
		}
	}
	return false
}

func splitClasses(v string) []string {
	var classes []string
	start := -1
	for i, r := range v {
		if r == ' ' || r == '\t' || r == '\n' {
			if start >= 0 {
				classes = append(classes, v[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		classes = append(classes, v[start:])
	}
	return classes
}
