// Package transport 定义外部传输引擎的边界。
//
// 引擎负责真正的套接字 I/O、TLS 与协议线格式；本包只约定一次同步
// “执行传输”的调用形态：配置项加五个回调挂钩。回调收到的字节切片
// 是临时缓冲的借用视图，仅在回调期间有效。
package transport

import (
	"errors"
	"net"
	"time"
)

// ErrReadAborted 由 Read 回调返回，向引擎表示上传已被中止。
var ErrReadAborted = errors.New("上传内容回调已中止")

// ErrAborted 表示回调要求引擎停止本次传输。
var ErrAborted = errors.New("传输已被回调中止")

// Engine 创建可复用的传输句柄。
type Engine interface {
	NewHandle() Handle
}

// Handle 是一个可复用的传输句柄。
//
// 句柄不是并发安全的；跨会话复用前必须 Reset 以恢复默认配置。
type Handle interface {
	// Reset 清除已配置的选项，恢复默认值。
	Reset()

	// Perform 同步执行一次传输，期间调用已注册的回调。
	// 回调要求中止时返回 ErrAborted（或 Read 回调给出的错误）。
	Perform(opts *PerformOptions, cbs *Callbacks) error

	// Close 释放句柄占用的连接资源。
	Close() error
}

// DebugKind 区分诊断回调携带的数据种类。
type DebugKind int

const (
	// DebugText 是引擎的自由文本日志行。
	DebugText DebugKind = iota + 1
	// DebugHeaderOut 是已发出的标头字节。
	DebugHeaderOut
	// DebugHeaderIn 是已收到的标头字节。
	DebugHeaderIn
	// DebugDataOut 是已发出的正文字节。
	DebugDataOut
	// DebugDataIn 是已收到的正文字节。
	DebugDataIn
)

// PerformOptions 是单次传输的配置。
type PerformOptions struct {
	// 目标地址。
	URL string

	// 出站连接绑定的本地地址，空串表示不绑定。
	BindAddress string

	// 是否校验对端 TLS 证书。
	TLSVerification bool

	// User-Agent 请求标头值，空串表示不发送。
	UserAgent string

	// 追加的标头行，形如 "Name:value"。
	HeaderLines []string

	// Cookie 请求标头值，空串表示不发送。
	CookieHeader string

	// 是否允许 HTTP/0.9 响应。
	HTTP09Allowed bool

	// Accept-Encoding 协商值，空串交由引擎自行协商。
	AcceptEncoding string

	// 建立连接的超时时间。
	ConnectTimeout time.Duration

	// 是否通过 Read 回调提供上传内容。
	Upload bool
}

// Callbacks 是引擎在传输期间调用的五个挂钩，外加一个结构化的请求前挂钩。
// 未设置的挂钩被引擎跳过。
type Callbacks struct {
	// PreRequest 在连接建立后、请求发出前调用，携带对端地址。
	// 提供该挂钩的引擎不必依赖日志行刮取。
	PreRequest func(remote net.Addr)

	// Debug 携带诊断数据：日志行、原始标头与正文字节。
	Debug func(kind DebugKind, data []byte)

	// Header 携带一行入站标头字节。返回 false 要求引擎停止。
	Header func(line []byte) bool

	// Progress 在每次进度更新时调用。返回 false 要求引擎停止。
	Progress func(downloadTotal, downloadCurrent, uploadTotal, uploadCurrent uint64) bool

	// Read 请求填充上传缓冲并返回填充的字节数；
	// 返回数小于缓冲长度表示上传内容结束。中止时返回 ErrReadAborted。
	Read func(buf []byte) (int, error)

	// Write 携带已剥离协议封装的下载内容，返回已消费的字节数；
	// 返回数不等于 len(data) 要求引擎停止。
	Write func(data []byte) int
}
