package client

import (
	"net"
	"net/url"
	"regexp"
	"strconv"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/favbox/wrecv/internal/nocopy"
	"github.com/favbox/wrecv/pkg/common/escape"
	errs "github.com/favbox/wrecv/pkg/common/errors"
	"github.com/favbox/wrecv/pkg/protocol"
	"github.com/favbox/wrecv/pkg/transport"
)

// 诊断日志预览的字节上限。
const debugPreviewLen = 100

type sessionMode int

const (
	modeHTTP sessionMode = iota
	modeFTP
)

func (m sessionMode) String() string {
	if m == modeFTP {
		return "ftp"
	}
	return "http"
}

// 回调状态机的状态。仅 HTTP 态发生转移；FTP 走单一非定界态。
type callbackState int

const (
	stateAwaitRequest callbackState = iota
	stateAwaitResponse
	stateAwaitTrailer
	stateFinished
	stateRaw
)

type sessionControl struct {
	aborted bool
}

func (c *sessionControl) Abort() {
	c.aborted = true
}

// session 把一次传输期间的回调调用转换为有序的会话事件流。
//
// 传输期间独占可变状态，只通过不逃逸出本次调用的函数引用暴露给引擎。
type session struct {
	noCopy nocopy.NoCopy //lint:ignore U1000 禁止拷贝

	handler SessionHandler
	control sessionControl
	mode    sessionMode
	state   callbackState

	jar        *CookieJar
	requestURL *url.URL

	// 首个被捕获的错误，会话的最终结果
	err error

	connected bool
	sendBuf   []byte
	recvBuf   []byte
}

func newSession(handler SessionHandler, mode sessionMode, jar *CookieJar, u *url.URL) *session {
	state := stateAwaitRequest
	if mode == modeFTP {
		state = stateRaw
	}
	return &session{
		handler:    handler,
		mode:       mode,
		state:      state,
		jar:        jar,
		requestURL: u,
	}
}

// callbacks 把会话包成引擎回调。函数引用不得超出本次 Perform 调用存活。
func (s *session) callbacks() *transport.Callbacks {
	return &transport.Callbacks{
		PreRequest: s.onPreRequest,
		Debug:      s.onDebug,
		Header:     s.onReceiveHeader,
		Progress:   s.onProgress,
		Read:       s.onRead,
		Write:      s.onWrite,
	}
}

// 保留首个错误并转为中止信号。
func (s *session) capture(err error) {
	if s.err == nil {
		s.err = err
	}
	s.control.Abort()
}

func (s *session) emit(ev *SessionEvent) {
	if err := s.handler.Event(&s.control, ev); err != nil {
		s.capture(errs.NewHandler(err))
	}
}

// 结构化的请求前挂钩，连接地址权威可信。
func (s *session) onPreRequest(remote net.Addr) {
	s.emitConnected(remote)
}

func (s *session) emitConnected(remote net.Addr) {
	if s.connected {
		return
	}
	s.connected = true
	logx.Debugf("会话已连接 remote=%s", remote)
	s.emit(&SessionEvent{Kind: EventConnected, Remote: remote})
}

func (s *session) onDebug(kind transport.DebugKind, data []byte) {
	logx.Debugf("引擎诊断 kind=%d data=%q", kind, escape.Preview(data, debugPreviewLen))

	switch kind {
	case transport.DebugText:
		s.scrapeConnectLine(data)
	case transport.DebugHeaderOut:
		s.onSendHeader(data)
	case transport.DebugDataOut:
		s.emit(&SessionEvent{Kind: EventBodySent, Data: data})
	case transport.DebugDataIn:
		s.emit(&SessionEvent{Kind: EventBodyReceived, Data: data})
	case transport.DebugHeaderIn:
		// 入站标头以 Header 回调为准
	}
}

// 从已知措辞的连接日志行中提取对端地址。
// 尽力而为：措辞不符时静默跳过，提供 PreRequest 挂钩的引擎无需依赖这里。
var connectLinePattern = regexp.MustCompile(`Connected to .+ \(([^)\s]+)\) port (\d+)`)

func (s *session) scrapeConnectLine(data []byte) {
	m := connectLinePattern.FindSubmatch(data)
	if m == nil {
		return
	}
	ip := net.ParseIP(string(m[1]))
	if ip == nil {
		return
	}
	port, err := strconv.Atoi(string(m[2]))
	if err != nil || port <= 0 || port > 65535 {
		return
	}
	s.emitConnected(&net.TCPAddr{IP: ip, Port: port})
}

func (s *session) onSendHeader(data []byte) {
	s.emit(&SessionEvent{Kind: EventHeaderSent, Data: data})

	if s.state != stateAwaitRequest {
		return
	}
	s.sendBuf = append(s.sendBuf, data...)

	boundary, ok := protocol.ScanHeaderBoundary(s.sendBuf)
	if !ok {
		return
	}
	block := s.sendBuf[:boundary]
	header, err := protocol.ParseRequestHeader(block)
	if err != nil {
		s.capture(err)
		return
	}
	logx.Debugf("请求头已解析 method=%s uri=%s", header.Method, header.URI)

	s.emit(&SessionEvent{Kind: EventRequest, Data: block, Request: header})
	s.sendBuf = s.sendBuf[:0]
	s.state = stateAwaitResponse
}

func (s *session) onReceiveHeader(line []byte) bool {
	s.emit(&SessionEvent{Kind: EventHeaderReceived, Data: line})

	switch s.state {
	case stateAwaitResponse:
		s.recvBuf = append(s.recvBuf, line...)
		boundary, ok := protocol.ScanHeaderBoundary(s.recvBuf)
		if !ok {
			break
		}
		block := s.recvBuf[:boundary]
		header, err := protocol.ParseResponseHeader(block)
		if err != nil {
			s.capture(err)
			break
		}
		logx.Debugf("响应头已解析 status=%d reason=%s", header.StatusCode, header.ReasonPhrase)

		if s.jar != nil && s.jar.Enabled() && s.requestURL != nil {
			s.jar.ParseFromResponse(s.requestURL, &header.Fields)
		}

		s.emit(&SessionEvent{Kind: EventResponse, Data: block, Response: header})
		// 已消费的响应块不参与挂车定界
		s.recvBuf = s.recvBuf[:0]
		s.state = stateAwaitTrailer

	case stateAwaitTrailer:
		s.recvBuf = append(s.recvBuf, line...)
		boundary, ok := protocol.ScanHeaderBoundary(s.recvBuf)
		if !ok {
			break
		}
		block := s.recvBuf[:boundary]
		trailer, err := protocol.ParseResponseTrailer(block)
		if err != nil {
			s.capture(err)
			break
		}

		s.emit(&SessionEvent{Kind: EventTrailer, Data: block, Trailer: trailer})
		s.recvBuf = s.recvBuf[:0]
		s.state = stateFinished
	}

	return !s.control.aborted
}

func (s *session) onProgress(downloadTotal, downloadCurrent, uploadTotal, uploadCurrent uint64) bool {
	s.emit(&SessionEvent{
		Kind: EventProgress,
		Progress: Progress{
			DownloadTotal:   downloadTotal,
			DownloadCurrent: downloadCurrent,
			UploadTotal:     uploadTotal,
			UploadCurrent:   uploadCurrent,
		},
	})
	return !s.control.aborted
}

// 上传内容回调。中止必须以读中止信号告知引擎，而非悄悄返回零。
func (s *session) onRead(buf []byte) (int, error) {
	n, err := s.handler.UploadContent(&s.control, buf)
	if err != nil {
		s.capture(errs.NewHandler(err))
		return 0, transport.ErrReadAborted
	}

	s.emit(&SessionEvent{Kind: EventContentSent, Data: buf[:n]})

	if s.control.aborted {
		return 0, transport.ErrReadAborted
	}
	return n, nil
}

// 下载内容回调。中止时上报消费零字节，示意引擎停止。
func (s *session) onWrite(data []byte) int {
	s.emit(&SessionEvent{Kind: EventContentReceived, Data: data})

	if s.control.aborted {
		return 0
	}
	return len(data)
}
