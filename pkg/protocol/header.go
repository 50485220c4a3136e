package protocol

import (
	"bytes"

	"github.com/favbox/wrecv/internal/bytesconv"
	"github.com/favbox/wrecv/internal/bytestr"
	errs "github.com/favbox/wrecv/pkg/common/errors"
)

// RequestHeader 表示一次解析得到的完整请求头。
//
// 由单次解析调用完整填充，此后不可变，所有权随事件移交消费方。
type RequestHeader struct {
	Method  string
	URI     string
	Version string
	Fields  HeaderFields
}

// ResponseHeader 表示一次解析得到的完整响应头。
type ResponseHeader struct {
	Version      string
	StatusCode   int
	ReasonPhrase string
	Fields       HeaderFields
}

// ResponseTrailer 表示响应挂车，仅含字段列表。
type ResponseTrailer struct {
	Fields HeaderFields
}

// ParseRequestHeader 将完整的请求头块解析为结构化请求头。
//
// 块未到达空行终止符时报不完整错误；起始行异常时报格式错误。
func ParseRequestHeader(data []byte) (*RequestHeader, error) {
	boundary, ok := ScanHeaderBoundary(data)
	if !ok {
		return nil, errs.NewIncomplete("HTTP 请求头不完整")
	}

	startLine, rest := cutLine(data[:boundary])
	method, after, ok := bytes.Cut(startLine, bytestr.StrSpace)
	if !ok || len(method) == 0 {
		return nil, errs.NewParse("HTTP 请求行缺少方法")
	}
	uri, version, ok := bytes.Cut(after, bytestr.StrSpace)
	if !ok || len(uri) == 0 {
		return nil, errs.NewParse("HTTP 请求行缺少目标")
	}
	if !isHTTPVersion(version) {
		return nil, errs.NewParse("HTTP 请求行协议版本异常")
	}

	h := &RequestHeader{
		Method:  string(method),
		URI:     string(uri),
		Version: string(version),
	}
	if err := parseFieldLines(rest, &h.Fields); err != nil {
		return nil, err
	}
	return h, nil
}

// ParseResponseHeader 将完整的响应头块解析为结构化响应头。
func ParseResponseHeader(data []byte) (*ResponseHeader, error) {
	boundary, ok := ScanHeaderBoundary(data)
	if !ok {
		return nil, errs.NewIncomplete("HTTP 响应头不完整")
	}

	startLine, rest := cutLine(data[:boundary])
	version, after, ok := bytes.Cut(startLine, bytestr.StrSpace)
	if !ok || !isHTTPVersion(version) {
		return nil, errs.NewParse("HTTP 状态行协议版本异常")
	}

	// 原因短语可以为空
	statusBytes, reason, _ := bytes.Cut(after, bytestr.StrSpace)
	status, err := bytesconv.ParseUint(statusBytes)
	if err != nil {
		return nil, errs.NewParse("HTTP 状态码异常")
	}

	h := &ResponseHeader{
		Version:      string(version),
		StatusCode:   status,
		ReasonPhrase: string(reason),
	}
	if err := parseFieldLines(rest, &h.Fields); err != nil {
		return nil, err
	}
	return h, nil
}

// ParseResponseTrailer 将完整的挂车块解析为字段列表。
func ParseResponseTrailer(data []byte) (*ResponseTrailer, error) {
	boundary, ok := ScanHeaderBoundary(data)
	if !ok {
		return nil, errs.NewIncomplete("HTTP 挂车字段不完整")
	}

	t := new(ResponseTrailer)
	if err := parseFieldLines(data[:boundary], &t.Fields); err != nil {
		return nil, err
	}
	return t, nil
}

// 解析空行终止前的字段行。名值字节经“文本或不透明”转换，从不假定 UTF-8。
func parseFieldLines(block []byte, fields *HeaderFields) error {
	for len(block) > 0 {
		line, rest := cutLine(block)
		block = rest
		if len(trimFieldValue(line)) == 0 {
			// 空行（或全空白行）终止
			return nil
		}

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return errs.NewParse("HTTP 标头字段行格式错误")
		}
		name := line[:colon]
		if bytes.IndexByte(name, ' ') >= 0 || bytes.IndexByte(name, '\t') >= 0 {
			return errs.NewParse("HTTP 标头字段名含空白")
		}
		value := trimFieldValue(line[colon+1:])
		fields.AppendBytes(name, value)
	}
	return nil
}

// 切出下一行并去掉行尾的 \r\n。未再出现 \n 时整个剩余部分视为一行。
func cutLine(b []byte) (line, rest []byte) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return trimCR(b), nil
	}
	return trimCR(b[:i]), b[i+1:]
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

func trimFieldValue(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for n := len(b); n > 0 && (b[n-1] == ' ' || b[n-1] == '\t'); n = len(b) {
		b = b[:n-1]
	}
	return b
}

func isHTTPVersion(b []byte) bool {
	return bytes.HasPrefix(b, bytestr.StrHTTP) && len(b) > len(bytestr.StrHTTP)
}
