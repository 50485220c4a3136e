package client

// SessionControl 是会话暴露给处理器的控制接口。
type SessionControl interface {
	// Abort 要求会话在当前回调返回后中止。
	Abort()
}

// SessionHandler 同步消费会话事件。
//
// 会话在调用期间独占处理器，调用结束后无论成败都归还调用方。
type SessionHandler interface {
	// UploadContent 填充上传缓冲并返回填充的字节数；
	// 返回数小于缓冲长度表示上传内容结束。
	UploadContent(ctl SessionControl, buf []byte) (int, error)

	// Event 处理一个会话事件。返回错误会中止会话，
	// 该错误将成为会话的最终结果。
	Event(ctl SessionControl, ev *SessionEvent) error
}

// BaseHandler 提供 SessionHandler 的默认实现：无上传内容、忽略事件。
//
// 嵌入后只需覆盖关心的方法。
type BaseHandler struct{}

func (BaseHandler) UploadContent(ctl SessionControl, buf []byte) (int, error) {
	return 0, nil
}

func (BaseHandler) Event(ctl SessionControl, ev *SessionEvent) error {
	return nil
}
