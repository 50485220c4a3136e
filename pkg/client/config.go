package client

import (
	"github.com/favbox/wrecv/pkg/protocol"
)

// DefaultUserAgent 是未另行配置时使用的 User-Agent 请求标头值。
const DefaultUserAgent = "Mozilla/5.0 (compatible; not Gecko KHTML AppleWebKit Firefox Chrome Safari) wrecv/0.1"

// Config 是客户端的共享配置。
//
// 通过 NewConfig 创建；设置方法返回自身以便链式调用。
type Config struct {
	bindAddress     string
	httpUserAgent   string
	httpHeaders     protocol.HeaderFields
	http09          bool
	httpCompression bool
	httpCookies     bool
	tlsVerification bool
}

// NewConfig 创建带默认值的配置。
func NewConfig() *Config {
	return &Config{
		bindAddress:     "0.0.0.0",
		httpUserAgent:   DefaultUserAgent,
		tlsVerification: true,
	}
}

// BindAddress 返回出站连接绑定的本地地址。
func (c *Config) BindAddress() string { return c.bindAddress }

// SetBindAddress 设置出站连接绑定的本地地址。
func (c *Config) SetBindAddress(addr string) *Config {
	c.bindAddress = addr
	return c
}

// HTTPUserAgent 返回 User-Agent 标头值。
func (c *Config) HTTPUserAgent() string { return c.httpUserAgent }

// SetHTTPUserAgent 设置 User-Agent 标头值，空串表示不发送。
func (c *Config) SetHTTPUserAgent(userAgent string) *Config {
	c.httpUserAgent = userAgent
	return c
}

// HTTPHeaders 返回所有请求共用的默认标头字段。
func (c *Config) HTTPHeaders() *protocol.HeaderFields { return &c.httpHeaders }

// SetHTTPHeaders 整体替换默认标头字段。
func (c *Config) SetHTTPHeaders(fields protocol.HeaderFields) *Config {
	c.httpHeaders = fields
	return c
}

// HTTP09 返回是否允许 HTTP/0.9 响应。
func (c *Config) HTTP09() bool { return c.http09 }

func (c *Config) SetHTTP09(enabled bool) *Config {
	c.http09 = enabled
	return c
}

// HTTPCompression 返回是否协商压缩编码。
func (c *Config) HTTPCompression() bool { return c.httpCompression }

func (c *Config) SetHTTPCompression(enabled bool) *Config {
	c.httpCompression = enabled
	return c
}

// HTTPCookies 返回是否启用 cookie 存储。
func (c *Config) HTTPCookies() bool { return c.httpCookies }

func (c *Config) SetHTTPCookies(enabled bool) *Config {
	c.httpCookies = enabled
	return c
}

// TLSVerification 返回是否校验对端 TLS 证书。
func (c *Config) TLSVerification() bool { return c.tlsVerification }

func (c *Config) SetTLSVerification(enabled bool) *Config {
	c.tlsVerification = enabled
	return c
}
