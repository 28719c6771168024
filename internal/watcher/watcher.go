package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher 监视页面文件的改动并在防抖窗口后触发回调。
// 监视的是父目录而不是文件本身：编辑器保存时常用改名替换，
// 直接监视文件会在第一次替换后失联。
type Watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	base     string
	debounce time.Duration
	onChange func()
	logger   *zap.Logger

	timer *time.Timer
}

// New 创建监视器。debounce 内的连续改动合并为一次回调。
func New(path string, debounce time.Duration, onChange func(), logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		fsw:      fsw,
		path:     abs,
		base:     filepath.Base(abs),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Run 处理事件直到 ctx 取消。回调在 Run 的协程上执行。
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimer()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("page file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			fire = w.resetTimer()

		case <-fire:
			fire = nil
			w.onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// Close 停止监视
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.fsw.Close()
}

// relevant 只关心目标文件的内容变化
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != w.base {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}

// resetTimer 重开防抖窗口，返回到期通道
func (w *Watcher) resetTimer() <-chan time.Time {
	w.stopTimer()
	w.timer = time.NewTimer(w.debounce)
	return w.timer.C
}

func (w *Watcher) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
