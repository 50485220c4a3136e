package client

import (
	"sync"

	"github.com/favbox/wrecv/pkg/transport"
)

// 连接池缓存的句柄上限。
const maxPoolHandles = 20

// ConnectionPool 是跨会话共享的有界传输句柄缓存。
//
// 互斥锁守护的简单句柄袋，不承诺取出顺序，也无公平性要求；
// 并发获取超过容量时退回到新建句柄，从不阻塞等待。
type ConnectionPool struct {
	mu      sync.Mutex
	engine  transport.Engine
	handles []transport.Handle
}

// NewConnectionPool 创建空连接池。
func NewConnectionPool(engine transport.Engine) *ConnectionPool {
	return &ConnectionPool{engine: engine}
}

// Get 取出一个句柄，必要时新建。
//
// 复用的句柄先恢复默认配置再返回。
func (p *ConnectionPool) Get() transport.Handle {
	p.mu.Lock()
	n := len(p.handles)
	if n == 0 {
		p.mu.Unlock()
		return p.engine.NewHandle()
	}
	h := p.handles[n-1]
	p.handles = p.handles[:n-1]
	p.mu.Unlock()

	h.Reset()
	return h
}

// Put 归还句柄；池满时悄悄丢弃并释放。
func (p *ConnectionPool) Put(h transport.Handle) {
	p.mu.Lock()
	if len(p.handles) < maxPoolHandles {
		p.handles = append(p.handles, h)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	_ = h.Close()
}

// Len 返回当前缓存的句柄数量。
func (p *ConnectionPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}
