package client

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/favbox/wrecv/pkg/common/errors"
	"github.com/favbox/wrecv/pkg/common/test/mock"
	"github.com/favbox/wrecv/pkg/protocol"
	"github.com/favbox/wrecv/pkg/transport"
)

// recordingHandler 记录事件序列，并可在指定事件上中止或报错。
type recordingHandler struct {
	BaseHandler

	kinds   []EventKind
	content []byte

	remote       net.Addr
	request      *protocol.RequestHeader
	requestData  []byte
	response     *protocol.ResponseHeader
	responseData []byte
	trailer      *protocol.ResponseTrailer

	abortOn EventKind
	failOn  EventKind
	failErr error

	upload []byte
}

func (h *recordingHandler) Event(ctl SessionControl, ev *SessionEvent) error {
	h.kinds = append(h.kinds, ev.Kind)
	switch ev.Kind {
	case EventConnected:
		h.remote = ev.Remote
	case EventRequest:
		h.request = ev.Request
		h.requestData = append([]byte(nil), ev.Data...)
	case EventResponse:
		h.response = ev.Response
		h.responseData = append([]byte(nil), ev.Data...)
	case EventTrailer:
		h.trailer = ev.Trailer
	case EventContentReceived:
		h.content = append(h.content, ev.Data...)
	}

	if h.abortOn != 0 && ev.Kind == h.abortOn {
		ctl.Abort()
	}
	if h.failOn != 0 && ev.Kind == h.failOn {
		return h.failErr
	}
	return nil
}

func (h *recordingHandler) UploadContent(ctl SessionControl, buf []byte) (int, error) {
	n := copy(buf, h.upload)
	h.upload = h.upload[n:]
	return n, nil
}

func (h *recordingHandler) countKind(kind EventKind) int {
	n := 0
	for _, k := range h.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

var testRemote = &net.TCPAddr{IP: net.IPv4(192, 0, 2, 10), Port: 80}

// scriptHTTPExchange 回放一次典型交换：连接、发头、回头、正文、可选挂车、进度。
func scriptHTTPExchange(respBlock, body, trailerBlock []byte) mock.PerformFunc {
	return func(opts *transport.PerformOptions, cbs *transport.Callbacks) error {
		cbs.PreRequest(testRemote)
		cbs.Debug(transport.DebugHeaderOut, []byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"))

		for _, line := range mock.SplitLines(respBlock) {
			if !cbs.Header(line) {
				return transport.ErrAborted
			}
		}
		if len(body) > 0 {
			cbs.Debug(transport.DebugDataIn, body)
			if cbs.Write(body) != len(body) {
				return transport.ErrAborted
			}
		}
		for _, line := range mock.SplitLines(trailerBlock) {
			if !cbs.Header(line) {
				return transport.ErrAborted
			}
		}
		if !cbs.Progress(uint64(len(body)), uint64(len(body)), 0, 0) {
			return transport.ErrAborted
		}
		return nil
	}
}

var okResponse = []byte("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\n")

func TestSubmitEventOrdering(t *testing.T) {
	engine := mock.NewEngine(scriptHTTPExchange(okResponse, []byte("hello"), nil))
	c := NewClient(nil, WithEngine(engine))

	h := &recordingHandler{}
	returned, err := c.Submit(NewRequest(mustParseURL(t, "http://example.com/")), h)
	require.NoError(t, err)
	assert.Same(t, SessionHandler(h), returned)

	assert.Equal(t, []EventKind{
		EventConnected,
		EventHeaderSent,
		EventRequest,
		EventHeaderReceived,
		EventHeaderReceived,
		EventHeaderReceived,
		EventResponse,
		EventBodyReceived,
		EventContentReceived,
		EventProgress,
	}, h.kinds)

	assert.Equal(t, "192.0.2.10:80", h.remote.String())
	require.NotNil(t, h.request)
	assert.Equal(t, "GET", h.request.Method)
	assert.Equal(t, "/", h.request.URI)
	require.NotNil(t, h.response)
	assert.Equal(t, 200, h.response.StatusCode)
	assert.Equal(t, []byte("hello"), h.content)

	// 解析事件携带完整标头块，而非最后一段字节
	assert.Equal(t, []byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"), h.requestData)
	assert.Equal(t, okResponse, h.responseData)
}

func TestSubmitTrailer(t *testing.T) {
	trailerBlock := []byte("X-Checksum: abc\r\n\r\n")
	engine := mock.NewEngine(scriptHTTPExchange(okResponse, []byte("body"), trailerBlock))
	c := NewClient(nil, WithEngine(engine))

	h := &recordingHandler{}
	_, err := c.Submit(NewRequest(mustParseURL(t, "http://example.com/")), h)
	require.NoError(t, err)

	require.NotNil(t, h.trailer)
	v, ok := h.trailer.Fields.Get("x-checksum")
	assert.True(t, ok)
	assert.Equal(t, "abc", v.String())
	assert.Equal(t, 1, h.countKind(EventTrailer))
}

func TestSubmitHandlerErrorPropagation(t *testing.T) {
	engine := mock.NewEngine(scriptHTTPExchange(okResponse, []byte("hello"), nil))
	c := NewClient(nil, WithEngine(engine))

	cause := errors.New("处理器拒绝继续")
	h := &recordingHandler{failOn: EventResponse, failErr: cause}
	returned, err := c.Submit(NewRequest(mustParseURL(t, "http://example.com/")), h)

	// 处理器错误原样可达，且优先于传输的中止错误
	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errs.IsType(err, errs.ErrorTypeHandler))
	assert.Same(t, SessionHandler(h), returned)

	// 中止后不再有内容事件
	assert.Equal(t, 0, h.countKind(EventContentReceived))
}

func TestSubmitAbortStopsWrite(t *testing.T) {
	engine := mock.NewEngine(scriptHTTPExchange(okResponse, []byte("hello"), nil))
	c := NewClient(nil, WithEngine(engine))

	h := &recordingHandler{abortOn: EventBodyReceived}
	_, err := c.Submit(NewRequest(mustParseURL(t, "http://example.com/")), h)

	// 无处理器错误的中止仍以错误结束
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeOther))
}

func TestSubmitUpload(t *testing.T) {
	engine := mock.NewEngine(func(opts *transport.PerformOptions, cbs *transport.Callbacks) error {
		if !opts.Upload {
			return errors.New("期望上传模式")
		}
		cbs.PreRequest(testRemote)
		cbs.Debug(transport.DebugHeaderOut, []byte("PUT /up HTTP/1.1\r\nHost: example.com\r\n\r\n"))

		buf := make([]byte, 4)
		for {
			n, err := cbs.Read(buf)
			if err != nil {
				return err
			}
			cbs.Debug(transport.DebugDataOut, buf[:n])
			// 短读表示上传内容结束
			if n < len(buf) {
				break
			}
		}
		for _, line := range mock.SplitLines(okResponse) {
			if !cbs.Header(line) {
				return transport.ErrAborted
			}
		}
		return nil
	})
	c := NewClient(nil, WithEngine(engine))

	h := &recordingHandler{upload: []byte("payload")}
	req := NewRequest(mustParseURL(t, "http://example.com/up")).SetUpload(true)
	_, err := c.Submit(req, h)
	require.NoError(t, err)

	assert.Equal(t, 2, h.countKind(EventContentSent))
	assert.Equal(t, 2, h.countKind(EventBodySent))
	require.NotNil(t, h.request)
	assert.Equal(t, "PUT", h.request.Method)
}

func TestSubmitUploadHandlerError(t *testing.T) {
	engine := mock.NewEngine(func(opts *transport.PerformOptions, cbs *transport.Callbacks) error {
		if _, err := cbs.Read(make([]byte, 4)); err != nil {
			return err
		}
		return nil
	})
	c := NewClient(nil, WithEngine(engine))

	cause := errors.New("上传内容不可用")
	h := &failingUploadHandler{err: cause}
	req := NewRequest(mustParseURL(t, "http://example.com/up")).SetUpload(true)
	_, err := c.Submit(req, h)

	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errs.IsType(err, errs.ErrorTypeHandler))
}

type failingUploadHandler struct {
	BaseHandler
	err error
}

func (h *failingUploadHandler) UploadContent(ctl SessionControl, buf []byte) (int, error) {
	return 0, h.err
}

func TestSubmitFTPModeSkipsParsing(t *testing.T) {
	engine := mock.NewEngine(func(opts *transport.PerformOptions, cbs *transport.Callbacks) error {
		cbs.PreRequest(testRemote)
		// FTP 引擎同样经由标头与正文挂钩上报控制信道与数据
		cbs.Debug(transport.DebugHeaderOut, []byte("USER anonymous\r\n\r\n"))
		if !cbs.Header([]byte("220 welcome\r\n")) {
			return transport.ErrAborted
		}
		if !cbs.Header([]byte("\r\n")) {
			return transport.ErrAborted
		}
		data := []byte("file contents")
		cbs.Debug(transport.DebugDataIn, data)
		if cbs.Write(data) != len(data) {
			return transport.ErrAborted
		}
		return nil
	})
	c := NewClient(nil, WithEngine(engine))

	h := &recordingHandler{}
	_, err := c.Submit(NewRequest(mustParseURL(t, "ftp://example.com/file")), h)
	require.NoError(t, err)

	// 非定界模式：原始事件照发，但从不尝试解析
	assert.Equal(t, 0, h.countKind(EventRequest))
	assert.Equal(t, 0, h.countKind(EventResponse))
	assert.Equal(t, 1, h.countKind(EventHeaderSent))
	assert.Equal(t, 2, h.countKind(EventHeaderReceived))
	assert.Equal(t, []byte("file contents"), h.content)
}

func TestSubmitConnectLineScrape(t *testing.T) {
	engine := mock.NewEngine(func(opts *transport.PerformOptions, cbs *transport.Callbacks) error {
		// 只提供日志行，不提供结构化的请求前挂钩
		cbs.Debug(transport.DebugText, []byte("* Connected to example.com (192.0.2.7) port 8080 (#0)"))
		return nil
	})
	c := NewClient(nil, WithEngine(engine))

	h := &recordingHandler{}
	_, err := c.Submit(NewRequest(mustParseURL(t, "http://example.com/")), h)
	require.NoError(t, err)

	assert.Equal(t, 1, h.countKind(EventConnected))
	require.NotNil(t, h.remote)
	assert.Equal(t, "192.0.2.7:8080", h.remote.String())
}

func TestSubmitConnectLineIgnoresNoise(t *testing.T) {
	engine := mock.NewEngine(func(opts *transport.PerformOptions, cbs *transport.Callbacks) error {
		cbs.Debug(transport.DebugText, []byte("* Trying 192.0.2.7..."))
		cbs.Debug(transport.DebugText, []byte("* Connected to example.com (not-an-ip) port 80"))
		cbs.Debug(transport.DebugText, []byte("* Connected to example.com (192.0.2.7) port 99999"))
		return nil
	})
	c := NewClient(nil, WithEngine(engine))

	h := &recordingHandler{}
	_, err := c.Submit(NewRequest(mustParseURL(t, "http://example.com/")), h)
	require.NoError(t, err)
	assert.Equal(t, 0, h.countKind(EventConnected))
}

func TestSubmitConnectedDeduplicated(t *testing.T) {
	engine := mock.NewEngine(func(opts *transport.PerformOptions, cbs *transport.Callbacks) error {
		cbs.PreRequest(testRemote)
		cbs.Debug(transport.DebugText, []byte("* Connected to example.com (192.0.2.10) port 80"))
		return nil
	})
	c := NewClient(nil, WithEngine(engine))

	h := &recordingHandler{}
	_, err := c.Submit(NewRequest(mustParseURL(t, "http://example.com/")), h)
	require.NoError(t, err)
	assert.Equal(t, 1, h.countKind(EventConnected))
}

func TestSubmitMalformedResponse(t *testing.T) {
	engine := mock.NewEngine(func(opts *transport.PerformOptions, cbs *transport.Callbacks) error {
		// 请求头先行，使会话进入等待响应态
		cbs.Debug(transport.DebugHeaderOut, []byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"))
		for _, line := range mock.SplitLines([]byte("ICY 200 OK\r\n\r\n")) {
			if !cbs.Header(line) {
				return transport.ErrAborted
			}
		}
		return nil
	})
	c := NewClient(nil, WithEngine(engine))

	h := &recordingHandler{}
	_, err := c.Submit(NewRequest(mustParseURL(t, "http://example.com/")), h)

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParse))
	assert.Equal(t, 0, h.countKind(EventResponse))
}

func TestSubmitUnsupportedScheme(t *testing.T) {
	engine := newIdleEngine()
	c := NewClient(nil, WithEngine(engine))

	h := &recordingHandler{}
	returned, err := c.Submit(NewRequest(mustParseURL(t, "gopher://example.com/")), h)

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeUnsupported))
	assert.Same(t, SessionHandler(h), returned)
	assert.Equal(t, 0, engine.Created())
}
