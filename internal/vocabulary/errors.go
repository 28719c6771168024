package vocabulary

import "errors"

// ErrNoStore 交互层在没有打开词汇库的场景下请求写操作
var ErrNoStore = errors.New("vocabulary store not available")
