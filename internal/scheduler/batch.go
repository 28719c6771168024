package scheduler

import (
	"github.com/google/uuid"
	"github.com/nerdneilsfield/go-vocab-annotator/internal/page"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/translation"
)

// BatchState 批次状态
type BatchState string

const (
	BatchQueued    BatchState = "queued"
	BatchInFlight  BatchState = "in-flight"
	BatchCompleted BatchState = "completed"
)

// Batch 一次翻译请求覆盖的一组文本块。派发后不再拆分；
// 译文按位置对应回各个块。
type Batch struct {
	ID     string
	Blocks []*page.Block
	Chars  int
	State  BatchState
}

// newBatch 从缓冲区创建批次
func newBatch(blocks []*page.Block, chars int) *Batch {
	return &Batch{
		ID:     uuid.NewString(),
		Blocks: blocks,
		Chars:  chars,
		State:  BatchQueued,
	}
}

// Combined 用分隔标记连接所有块的捕获文本
func (b *Batch) Combined() string {
	parts := make([]string, len(b.Blocks))
	for i, blk := range b.Blocks {
		parts[i] = blk.Text
	}
	return translation.JoinParts(parts)
}
