package page

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// rejectedTags 不承载可读文本的技术性元素，整棵子树跳过
var rejectedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"iframe": true, "frame": true, "frameset": true, "object": true,
	"embed": true, "param": true, "canvas": true, "svg": true, "math": true,
	"audio": true, "video": true, "source": true, "track": true,
	"picture": true, "img": true, "map": true, "area": true,
	"input": true, "textarea": true, "select": true, "option": true,
	"optgroup": true, "button": true, "datalist": true, "meter": true,
	"progress": true, "head": true, "meta": true, "link": true,
	"title": true, "base": true, "br": true, "hr": true, "wbr": true,
}

// blockTags 可接受为翻译单元的块级元素
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "dd": true, "dt": true,
	"td": true, "th": true, "caption": true, "figcaption": true,
	"blockquote": true, "pre": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "section": true, "article": true,
	"aside": true, "header": true, "footer": true, "main": true,
	"nav": true, "summary": true, "legend": true, "address": true,
}

// landmarkTags 正文模式下额外排除的结构性/导航性元素
var landmarkTags = map[string]bool{
	"header": true, "footer": true, "nav": true, "aside": true,
	"menu": true, "dialog": true,
}

// landmarkRoles 正文模式下额外排除的 ARIA 地标角色
var landmarkRoles = map[string]bool{
	"navigation": true, "banner": true, "contentinfo": true,
	"complementary": true, "menu": true, "menubar": true, "dialog": true,
}

// ScanOptions 扫描选项
type ScanOptions struct {
	// MainContent 只扫描正文区域
	MainContent bool

	// Script 源语言文字系统
	Script Script
}

// Scanner 叶子块扫描器。纯读取，不修改页面；标记由调度器
// 在接受块时负责。
type Scanner struct {
	page   *Page
	opts   ScanOptions
	logger *zap.Logger
}

// NewScanner 创建扫描器
func NewScanner(p *Page, opts ScanOptions, logger *zap.Logger) *Scanner {
	return &Scanner{
		page:   p,
		opts:   opts,
		logger: logger,
	}
}

// Scan 按文档顺序返回所有可翻译的叶子块。
// 扫描器从不 panic：畸形节点静默跳过。
func (s *Scanner) Scan() (blocks []*Block) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("scanner recovered from malformed node", zap.Any("panic", r))
		}
	}()

	root := s.root()
	if root == nil {
		return nil
	}

	s.walk(root, &blocks)

	s.logger.Debug("scan finished",
		zap.Int("blocks", len(blocks)),
		zap.Bool("mainContent", s.opts.MainContent))
	return blocks
}

// root 选择扫描根：正文模式优先第一个语义正文容器，否则 body
func (s *Scanner) root() *html.Node {
	doc := s.page.Document()

	if s.opts.MainContent {
		sel := doc.Find("article, main, [role='main']").First()
		if sel.Length() > 0 {
			return sel.Get(0)
		}
	}

	body := doc.Find("body").First()
	if body.Length() > 0 {
		return body.Get(0)
	}
	return doc.Get(0)
}

// walk 深度优先遍历，按过滤规则收集叶子块
func (s *Scanner) walk(n *html.Node, blocks *[]*Block) {
	if n == nil {
		return
	}

	if n.Type == html.ElementNode {
		tag := strings.ToLower(n.Data)

		// 整棵子树排除的情况
		if rejectedTags[tag] {
			return
		}
		if isEditable(n) || isInjected(n) {
			return
		}
		if s.page.Marked(n) {
			return
		}
		if !isRendered(n) {
			return
		}
		if s.opts.MainContent && isLandmark(n, tag) {
			return
		}

		// 只有块级元素才能成为翻译单元；含嵌套块级元素的不是叶子，
		// 继续向下找真正的叶子，避免父子重复扫描
		if blockTags[tag] && !hasNestedBlock(n) {
			text := strings.TrimSpace(textContent(n))
			if text != "" && ContainsScript(text, s.opts.Script) {
				*blocks = append(*blocks, &Block{Element: n, Text: text})
				return
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			s.walk(c, blocks)
		}
	}
}

// isEditable 可编辑区域
func isEditable(n *html.Node) bool {
	v, ok := getAttr(n, "contenteditable")
	return ok && (v == "" || strings.EqualFold(v, "true"))
}

// isInjected 本工具自己注入的元素
func isInjected(n *html.Node) bool {
	return hasClass(n, AnnotationClass) || hasClass(n, BilingualClass)
}

// isRendered 近似的"有布局盒"判断：解析出的静态 HTML 没有布局信息，
// 用 hidden 属性和内联样式近似
func isRendered(n *html.Node) bool {
	if _, hidden := getAttr(n, "hidden"); hidden {
		return false
	}
	if v, ok := getAttr(n, "aria-hidden"); ok && strings.EqualFold(v, "true") {
		return false
	}
	if style, ok := getAttr(n, "style"); ok {
		compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden") {
			return false
		}
	}
	return true
}

// isLandmark 结构性/导航性地标
func isLandmark(n *html.Node, tag string) bool {
	if landmarkTags[tag] {
		return true
	}
	if role, ok := getAttr(n, "role"); ok && landmarkRoles[strings.ToLower(role)] {
		return true
	}
	return false
}

// hasNestedBlock 元素是否包含嵌套的块级元素
func hasNestedBlock(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if blockTags[strings.ToLower(c.Data)] {
				return true
			}
			if hasNestedBlock(c) {
				return true
			}
		}
	}
	return false
}

// textContent 拼接元素下所有文本节点
func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			return
		}
		if node.Type == html.ElementNode && rejectedTags[strings.ToLower(node.Data)] {
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}
