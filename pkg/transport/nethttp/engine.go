// Package nethttp 提供基于 net/http 的传输引擎适配器。
//
// 套接字 I/O、TLS 与 HTTP 线格式全部委托给标准库；适配器只负责把
// net/http 与 httptrace 的挂钩转成 transport.Callbacks 的回调形态。
// 已知限制：不支持 FTP 与 HTTP/0.9，相应选项被忽略。
package nethttp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sort"
	"strings"
	"time"

	"github.com/favbox/wrecv/internal/bytesconv"
	"github.com/favbox/wrecv/internal/bytestr"
	"github.com/favbox/wrecv/pkg/transport"
)

const (
	defaultConnectTimeout = 30 * time.Second
	readChunkSize         = 32 * 1024
)

// Engine 创建基于 net/http 的传输句柄。
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) NewHandle() transport.Handle {
	return &Handle{}
}

// 影响连接复用的选项。变更时需要重建 http.Transport。
type connOptions struct {
	bindAddress        string
	tlsVerification    bool
	connectTimeout     time.Duration
	disableCompression bool
}

// Handle 是可复用的 net/http 传输句柄。
//
// http.Transport 在多次 Perform 间保留，以复用空闲连接；
// 连接相关选项变化时透明重建。
type Handle struct {
	tr       *http.Transport
	connOpts connOptions
}

func (h *Handle) Reset() {
	h.connOpts = connOptions{}
}

func (h *Handle) Close() error {
	if h.tr != nil {
		h.tr.CloseIdleConnections()
	}
	return nil
}

func (h *Handle) Perform(opts *transport.PerformOptions, cbs *transport.Callbacks) error {
	req, ul, err := buildRequest(opts, cbs)
	if err != nil {
		return err
	}

	h.ensureTransport(opts)

	var sentHeader []byte
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			remote := info.Conn.RemoteAddr()
			if cbs.PreRequest != nil {
				cbs.PreRequest(remote)
			}
			if cbs.Debug != nil {
				cbs.Debug(transport.DebugText, connectedLine(req.URL.Hostname(), remote))
			}
		},
		WroteHeaderField: func(key string, values []string) {
			for _, v := range values {
				sentHeader = append(sentHeader, key...)
				sentHeader = append(sentHeader, bytestr.StrColonSpace...)
				sentHeader = append(sentHeader, v...)
				sentHeader = append(sentHeader, bytestr.StrCRLF...)
			}
		},
		WroteHeaders: func() {
			if cbs.Debug == nil {
				return
			}
			block := append([]byte(requestLine(req)), sentHeader...)
			block = append(block, bytestr.StrCRLF...)
			cbs.Debug(transport.DebugHeaderOut, block)
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	resp, err := h.tr.RoundTrip(req)
	if err != nil {
		if errors.Is(err, transport.ErrReadAborted) {
			return transport.ErrReadAborted
		}
		return err
	}
	defer resp.Body.Close()

	if !replayHeaderBlock(cbs, resp) {
		return transport.ErrAborted
	}

	return h.readBody(resp, cbs, ul)
}

// 按需重建 http.Transport。
func (h *Handle) ensureTransport(opts *transport.PerformOptions) {
	co := connOptions{
		bindAddress:        opts.BindAddress,
		tlsVerification:    opts.TLSVerification,
		connectTimeout:     opts.ConnectTimeout,
		disableCompression: opts.AcceptEncoding != "",
	}
	if co.connectTimeout <= 0 {
		co.connectTimeout = defaultConnectTimeout
	}
	if h.tr != nil && co == h.connOpts {
		return
	}
	if h.tr != nil {
		h.tr.CloseIdleConnections()
	}

	dialer := &net.Dialer{Timeout: co.connectTimeout}
	if co.bindAddress != "" {
		if ip := net.ParseIP(co.bindAddress); ip != nil && !ip.IsUnspecified() {
			dialer.LocalAddr = &net.TCPAddr{IP: ip}
		}
	}
	h.tr = &http.Transport{
		DialContext:        dialer.DialContext,
		TLSClientConfig:    &tls.Config{InsecureSkipVerify: !co.tlsVerification},
		DisableCompression: co.disableCompression,
		ForceAttemptHTTP2:  false,
	}
	h.connOpts = co
}

func (h *Handle) readBody(resp *http.Response, cbs *transport.Callbacks, ul *uploadReader) error {
	var (
		buf             = make([]byte, readChunkSize)
		downloadCurrent uint64
		downloadTotal   uint64
	)
	if resp.ContentLength > 0 {
		downloadTotal = uint64(resp.ContentLength)
	}

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if cbs.Debug != nil {
				cbs.Debug(transport.DebugDataIn, chunk)
			}
			if cbs.Write != nil {
				if consumed := cbs.Write(chunk); consumed != n {
					return transport.ErrAborted
				}
			}
			downloadCurrent += uint64(n)
			if !progress(cbs, downloadTotal, downloadCurrent, ul) {
				return transport.ErrAborted
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	// 分块响应的挂车字段在正文读尽后可见
	if len(resp.Trailer) > 0 && !replayFields(cbs, resp.Trailer) {
		return transport.ErrAborted
	}
	if !progress(cbs, downloadTotal, downloadCurrent, ul) {
		return transport.ErrAborted
	}
	return nil
}

func progress(cbs *transport.Callbacks, dlTotal, dlNow uint64, ul *uploadReader) bool {
	if cbs.Progress == nil {
		return true
	}
	var ulNow uint64
	if ul != nil {
		ulNow = ul.sent
	}
	return cbs.Progress(dlTotal, dlNow, 0, ulNow)
}

func buildRequest(opts *transport.PerformOptions, cbs *transport.Callbacks) (*http.Request, *uploadReader, error) {
	var (
		method = http.MethodGet
		body   io.Reader
		ul     *uploadReader
	)
	if opts.Upload && cbs.Read != nil {
		method = http.MethodPut
		ul = &uploadReader{read: cbs.Read, debug: cbs.Debug}
		body = ul
	}

	req, err := http.NewRequest(method, opts.URL, body)
	if err != nil {
		return nil, nil, err
	}

	for _, line := range opts.HeaderLines {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimLeft(value, " \t")
		if strings.EqualFold(name, "Host") {
			req.Host = value
			continue
		}
		req.Header.Add(name, value)
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	if opts.CookieHeader != "" {
		req.Header.Set("Cookie", opts.CookieHeader)
	}
	if opts.AcceptEncoding != "" {
		req.Header.Set("Accept-Encoding", opts.AcceptEncoding)
	}
	return req, ul, nil
}

// 把状态行、标头与终止空行逐行回放给 Header 回调。
func replayHeaderBlock(cbs *transport.Callbacks, resp *http.Response) bool {
	if cbs.Header == nil {
		return true
	}
	statusLine := fmt.Sprintf("%s %s\r\n", resp.Proto, resp.Status)
	if !cbs.Header([]byte(statusLine)) {
		return false
	}
	return replayFields(cbs, resp.Header)
}

// 逐行回放一组字段与终止空行。键排序以获得确定的行序。
func replayFields(cbs *transport.Callbacks, fields http.Header) bool {
	if cbs.Header == nil {
		return true
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range fields[k] {
			if !cbs.Header([]byte(k + ": " + v + "\r\n")) {
				return false
			}
		}
	}
	return cbs.Header(bytestr.StrCRLF)
}

func requestLine(req *http.Request) string {
	return fmt.Sprintf("%s %s HTTP/1.1\r\n", req.Method, req.URL.RequestURI())
}

// 引擎连接日志行，措辞与常见传输工具一致，供日志刮取回退使用。
func connectedLine(host string, remote net.Addr) []byte {
	line := append([]byte("Connected to "), host...)
	line = append(line, " ("...)
	if tcp, ok := remote.(*net.TCPAddr); ok {
		line = append(line, tcp.IP.String()...)
		line = append(line, ") port "...)
		line = bytesconv.AppendUint(line, tcp.Port)
	} else {
		ip, port, _ := net.SplitHostPort(remote.String())
		line = append(line, ip...)
		line = append(line, ") port "...)
		line = append(line, port...)
	}
	return append(line, " (#0)\n"...)
}

// 从 Read 回调拉取上传内容；返回数小于缓冲长度表示内容结束。
type uploadReader struct {
	read  func([]byte) (int, error)
	debug func(kind transport.DebugKind, data []byte)
	sent  uint64
	eof   bool
}

func (r *uploadReader) Read(p []byte) (int, error) {
	if r.eof {
		return 0, io.EOF
	}
	n, err := r.read(p)
	if err != nil {
		return 0, err
	}
	if n < len(p) {
		r.eof = true
	}
	if n == 0 {
		return 0, io.EOF
	}
	r.sent += uint64(n)
	if r.debug != nil {
		r.debug(transport.DebugDataOut, p[:n])
	}
	return n, nil
}
