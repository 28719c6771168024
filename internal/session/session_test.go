package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/config"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/page"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/vocabulary"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mapEngine 按原文查表返回译文，查不到的部分原样回显
type mapEngine struct {
	byPart map[string]string
	calls  int
}

func (m *mapEngine) Translate(_ context.Context, req *translation.Request) (*translation.Response, error) {
	m.calls++
	raw := strings.Split(req.Text, translation.PartBreak)
	out := make([]string, len(raw))
	for i, part := range raw {
		part = strings.TrimSpace(part)
		if translated, ok := m.byPart[part]; ok {
			out[i] = translated
		} else {
			out[i] = part
		}
	}
	return &translation.Response{Text: translation.JoinParts(out)}, nil
}

func testSessionConfig() *config.Config {
	cfg := config.Default()
	cfg.SourceLang = "zh-CN"
	cfg.TargetLang = "en"
	cfg.Bilingual = true
	cfg.Scheduler.FlushDelayMs = 10
	cfg.Scheduler.RequestIntervalMs = 1
	return cfg
}

func catEntries() []*vocabulary.Entry {
	return []*vocabulary.Entry{
		{
			ID:          "entry-cat",
			Word:        "cat",
			Translation: "猫",
			Category:    vocabulary.CategoryWantToLearn,
		},
	}
}

func runSession(t *testing.T, cfg *config.Config, source string,
	entries []*vocabulary.Entry, engine translation.Translator) (*Session, error) {
	t.Helper()
	pg, err := page.Parse(strings.NewReader(source))
	require.NoError(t, err)

	s := New(context.Background(), cfg, pg, entries, engine, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s, s.Run(ctx)
}

func TestSessionAnnotatesMatchedBlock(t *testing.T) {
	engine := &mapEngine{byPart: map[string]string{"我 喜欢 猫": "I like cat"}}
	s, err := runSession(t, testSessionConfig(),
		`<html><body><p>我 喜欢 猫</p></body></html>`, catEntries(), engine)
	require.NoError(t, err)

	doc := s.Page().Document()

	span := doc.Find("span." + page.AnnotationClass)
	require.Equal(t, 1, span.Length())
	assert.Equal(t, "猫", span.Text())
	id, _ := span.Attr(page.AttrEntryID)
	assert.Equal(t, "entry-cat", id)

	bilingual := doc.Find("div." + page.BilingualClass)
	require.Equal(t, 1, bilingual.Length())
	assert.Equal(t, "I like cat", bilingual.Text())

	block := doc.Find("p").First().Get(0)
	status, ok := s.Page().StatusOf(block)
	require.True(t, ok)
	assert.Equal(t, page.StatusTranslated, status)
}

func TestSessionMarksNoMatch(t *testing.T) {
	engine := &mapEngine{byPart: map[string]string{"我 喜欢 狗": "I like dogs"}}
	s, err := runSession(t, testSessionConfig(),
		`<html><body><p>我 喜欢 狗</p></body></html>`, catEntries(), engine)
	require.NoError(t, err)

	doc := s.Page().Document()
	assert.Equal(t, 0, doc.Find("span."+page.AnnotationClass).Length())

	block := doc.Find("p").First().Get(0)
	status, ok := s.Page().StatusOf(block)
	require.True(t, ok)
	assert.Equal(t, page.StatusNoMatch, status)
}

func TestSessionMarksFuzzyFail(t *testing.T) {
	// 词条通过译文验证，但它的 Translation 在原文里找不到
	entries := []*vocabulary.Entry{
		{
			ID:          "entry-cat",
			Word:        "cat",
			Translation: "猫咪",
			Category:    vocabulary.CategoryWantToLearn,
		},
	}
	engine := &mapEngine{byPart: map[string]string{"我 喜欢 宠物": "I like my cat"}}
	s, err := runSession(t, testSessionConfig(),
		`<html><body><p>我 喜欢 宠物</p></body></html>`, entries, engine)
	require.NoError(t, err)

	block := s.Page().Document().Find("p").First().Get(0)
	status, ok := s.Page().StatusOf(block)
	require.True(t, ok)
	assert.Equal(t, page.StatusFuzzyFail, status)
}

func TestSessionFuzzyLocatesNearMiss(t *testing.T) {
	// 词条的 Translation 与原文只差一个字，模糊定位要兜住
	entries := []*vocabulary.Entry{
		{
			ID:          "entry-forecast",
			Word:        "weather forecast",
			Translation: "天汽预报",
			Category:    vocabulary.CategoryLearning,
		},
	}
	engine := &mapEngine{byPart: map[string]string{
		"今天的天气预报说会下雨": "today's weather forecast says rain",
	}}
	s, err := runSession(t, testSessionConfig(),
		`<html><body><p>今天的天气预报说会下雨</p></body></html>`, entries, engine)
	require.NoError(t, err)

	span := s.Page().Document().Find("span." + page.AnnotationClass)
	require.Equal(t, 1, span.Length())
	assert.Equal(t, "天气预报", span.Text(), "fuzzy match wraps the page's actual text")
}

// errorEngine 每次请求都失败，可选延迟模拟在途批次
type errorEngine struct {
	delay time.Duration
}

func (e *errorEngine) Translate(_ context.Context, _ *translation.Request) (*translation.Response, error) {
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	return nil, errors.New("upstream unavailable")
}

func TestSessionMarksErrorOnEngineFailure(t *testing.T) {
	s, err := runSession(t, testSessionConfig(),
		`<html><body><p>我 喜欢 猫</p></body></html>`, catEntries(), &errorEngine{})
	require.NoError(t, err, "a failed batch does not fail the run")

	block := s.Page().Document().Find("p").First().Get(0)
	status, ok := s.Page().StatusOf(block)
	require.True(t, ok)
	assert.Equal(t, page.StatusError, status)
	assert.Equal(t, 0, s.Page().Document().Find("span."+page.AnnotationClass).Length())
}

func TestSessionRescanConcurrentWithFailingBatches(t *testing.T) {
	// 在途批次失败打错误标记的同时反复重扫，错误路径必须和
	// 扫描一样走会话锁
	cfg := testSessionConfig()
	cfg.Scheduler.MaxBatchBlocks = 1

	pg, err := page.Parse(strings.NewReader(`<html><body>
		<p>第一段内容</p>
		<p>第二段内容</p>
		<p>第三段内容</p>
	</body></html>`))
	require.NoError(t, err)

	s := New(context.Background(), cfg, pg, catEntries(), &errorEngine{delay: 5 * time.Millisecond}, nil, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			s.Rescan()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))
	<-done
	require.NoError(t, s.Wait(ctx))

	pg.Document().Find("p").Each(func(_ int, sel *goquery.Selection) {
		status, ok := s.Page().StatusOf(sel.Get(0))
		require.True(t, ok)
		assert.Equal(t, page.StatusError, status)
	})
}

func TestSessionWithoutEngine(t *testing.T) {
	s, err := runSession(t, testSessionConfig(),
		`<html><body><p>我 喜欢 猫</p></body></html>`, catEntries(), nil)
	require.ErrorIs(t, err, translation.ErrNoEngine)

	block := s.Page().Document().Find("p").First().Get(0)
	status, ok := s.Page().StatusOf(block)
	require.True(t, ok)
	assert.Equal(t, page.StatusPending, status)
}

func TestSessionRescanIsIdempotent(t *testing.T) {
	engine := &mapEngine{byPart: map[string]string{"我 喜欢 猫": "I like cat"}}
	s, err := runSession(t, testSessionConfig(),
		`<html><body><p>我 喜欢 猫</p></body></html>`, catEntries(), engine)
	require.NoError(t, err)

	firstCalls := engine.calls
	accepted := s.Rescan()
	require.NoError(t, s.Wait(context.Background()))

	assert.Zero(t, accepted, "nothing new to accept on an unchanged page")
	assert.Equal(t, firstCalls, engine.calls, "no extra requests on rescan")
	assert.Equal(t, 1, s.Page().Document().Find("span."+page.AnnotationClass).Length())
}

func TestSessionMultipleBlocks(t *testing.T) {
	entries := append(catEntries(), &vocabulary.Entry{
		ID:          "entry-dog",
		Word:        "dog",
		Translation: "狗",
		Category:    vocabulary.CategoryLearning,
	})
	engine := &mapEngine{byPart: map[string]string{
		"我 喜欢 猫":  "I like cat",
		"他 有 一只 狗": "he has a dog",
		"天气 很好":   "the weather is nice",
	}}

	s, err := runSession(t, testSessionConfig(),
		`<html><body>
			<p>我 喜欢 猫</p>
			<p>他 有 一只 狗</p>
			<p>天气 很好</p>
		</body></html>`, entries, engine)
	require.NoError(t, err)

	doc := s.Page().Document()
	spans := doc.Find("span." + page.AnnotationClass)
	require.Equal(t, 2, spans.Length())

	var statuses []page.Status
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		status, ok := s.Page().StatusOf(sel.Get(0))
		require.True(t, ok)
		statuses = append(statuses, status)
	})
	assert.Equal(t, []page.Status{
		page.StatusTranslated,
		page.StatusTranslated,
		page.StatusNoMatch,
	}, statuses)
}
