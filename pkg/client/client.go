// Package client 在外部传输引擎之上驱动单次请求/响应（或 FTP）交换，
// 并把交换过程重新暴露为有序的结构化会话事件流。
package client

import (
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	errs "github.com/favbox/wrecv/pkg/common/errors"
	"github.com/favbox/wrecv/pkg/protocol"
	"github.com/favbox/wrecv/pkg/transport"
	"github.com/favbox/wrecv/pkg/transport/nethttp"
)

// 建立连接的固定超时，配置进底层引擎。
const connectTimeout = 30 * time.Second

// Option 是客户端唯一的配置方法结构体。
type Option struct {
	F func(o *clientOptions)
}

type clientOptions struct {
	engine transport.Engine
}

// WithEngine 替换底层传输引擎，主要用于测试。
func WithEngine(engine transport.Engine) Option {
	return Option{F: func(o *clientOptions) {
		o.engine = engine
	}}
}

// Client 驱动共享连接池与 cookie 存储之上的传输会话。
//
// 每个 Client 持有自己的池与存储，不存在隐藏的全局状态；
// 跨协程并发提交会话是安全的。
type Client struct {
	config *Config
	engine transport.Engine
	pool   *ConnectionPool
	jar    *CookieJar
}

// NewClient 创建客户端。config 为 nil 时使用默认配置。
func NewClient(config *Config, opts ...Option) *Client {
	if config == nil {
		config = NewConfig()
	}

	o := clientOptions{}
	for _, opt := range opts {
		opt.F(&o)
	}
	if o.engine == nil {
		o.engine = nethttp.NewEngine()
	}

	jar := NewDisabledCookieJar()
	if config.HTTPCookies() {
		jar = NewCookieJar()
	}

	return &Client{
		config: config,
		engine: o.engine,
		pool:   NewConnectionPool(o.engine),
		jar:    jar,
	}
}

// Config 返回客户端配置。
func (c *Client) Config() *Config { return c.config }

// CookieJar 返回共享的 cookie 存储。
func (c *Client) CookieJar() *CookieJar { return c.jar }

// Submit 同步执行一次交换：阻塞至完成或失败，事件经 handler 有序送达。
//
// 无论成败，处理器都归还给调用方。处理器返回的错误优先于传输错误
// 成为最终结果；传输错误按结构化类别分类后返回。
func (c *Client) Submit(req *Request, handler SessionHandler) (SessionHandler, error) {
	var mode sessionMode
	switch req.URL().Scheme {
	case "http", "https":
		mode = modeHTTP
	case "ftp":
		mode = modeFTP
	default:
		return handler, errs.NewUnsupportedf("不支持的协议 %q", req.URL().Scheme)
	}
	logx.Debugf("初始化会话 mode=%s url=%s", mode, req.URL())

	handle := c.pool.Get()
	sess := newSession(handler, mode, c.jar, req.URL())

	err := handle.Perform(c.performOptions(req), sess.callbacks())

	// 处理器错误优先于传输错误
	if sess.err != nil {
		err = sess.err
	} else if err != nil {
		err = errs.Classify(err)
	}

	if err == nil {
		c.pool.Put(handle)
	} else {
		_ = handle.Close()
	}

	return handler, err
}

func (c *Client) performOptions(req *Request) *transport.PerformOptions {
	opts := &transport.PerformOptions{
		URL:             req.URL().String(),
		BindAddress:     c.config.BindAddress(),
		TLSVerification: c.config.TLSVerification(),
		HTTP09Allowed:   c.config.HTTP09(),
		ConnectTimeout:  connectTimeout,
		Upload:          req.Upload(),
	}
	if ua := c.config.HTTPUserAgent(); ua != "" {
		opts.UserAgent = ua
	}
	if c.config.HTTPCompression() {
		opts.AcceptEncoding = "gzip"
	}

	// 配置中的默认标头让位于请求中的同名标头
	c.config.HTTPHeaders().Visit(func(name protocol.FieldName, value protocol.FieldValue) {
		if !req.HTTPHeaders().ContainsKey(name.String()) {
			opts.HeaderLines = append(opts.HeaderLines, formatHeaderLine(name, value))
		}
	})
	req.HTTPHeaders().Visit(func(name protocol.FieldName, value protocol.FieldValue) {
		opts.HeaderLines = append(opts.HeaderLines, formatHeaderLine(name, value))
	})

	if c.jar.Enabled() {
		opts.CookieHeader = c.jar.RequestString(req.URL())
	}

	return opts
}

func formatHeaderLine(name protocol.FieldName, value protocol.FieldValue) string {
	return name.String() + ":" + value.String()
}
