// Package errors 定义传输会话使用的分类错误模型。
package errors

import (
	"errors"
	"fmt"
)

// ErrorType 是错误类别的位掩码。
type ErrorType uint64

const (
	// ErrorTypeParse 表示标头块起始行格式错误。
	ErrorTypeParse ErrorType = 1 << iota
	// ErrorTypeIncomplete 表示字节流在空行终止符出现前即告结束。
	ErrorTypeIncomplete
	// ErrorTypeHandler 表示事件处理器返回的错误。
	ErrorTypeHandler
	// ErrorTypeConnect 表示底层连接建立失败。
	ErrorTypeConnect
	// ErrorTypeDNS 表示域名解析失败。
	ErrorTypeDNS
	// ErrorTypeTLSVerification 表示 TLS 证书校验失败。
	ErrorTypeTLSVerification
	// ErrorTypeTimeout 表示网络操作超时。
	ErrorTypeTimeout
	// ErrorTypeUnsupported 表示请求了不支持的特性。
	ErrorTypeUnsupported
	// ErrorTypeOther 表示其他或内部错误。
	ErrorTypeOther
	// ErrorTypeAny 匹配任何错误类别。
	ErrorTypeAny ErrorType = 1<<64 - 1
)

// Error 是携带类别与元信息的错误。
type Error struct {
	Err  error
	Type ErrorType
	Meta any
}

var _ error = (*Error)(nil)

// Error 返回错误的消息字符串。
func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsType 返回错误类别是否与 flags 有交集。
func (e *Error) IsType(flags ErrorType) bool {
	return (e.Type & flags) > 0
}

func (e *Error) SetType(flags ErrorType) *Error {
	e.Type = flags
	return e
}

func (e *Error) SetMeta(data any) *Error {
	e.Meta = data
	return e
}

func New(err error, t ErrorType, meta any) *Error {
	return &Error{
		Err:  err,
		Type: t,
		Meta: meta,
	}
}

func Newf(t ErrorType, meta any, format string, v ...any) *Error {
	return New(fmt.Errorf(format, v...), t, meta)
}

// NewParse 创建一个起始行格式错误。
func NewParse(msg string) *Error {
	return New(errors.New(msg), ErrorTypeParse, nil)
}

// NewIncomplete 创建一个标头块截断错误。
func NewIncomplete(msg string) *Error {
	return New(errors.New(msg), ErrorTypeIncomplete, nil)
}

// NewHandler 将处理器返回的错误包装为处理器类别。
func NewHandler(err error) *Error {
	return New(err, ErrorTypeHandler, nil)
}

func NewUnsupportedf(format string, v ...any) *Error {
	return Newf(ErrorTypeUnsupported, nil, format, v...)
}

// IsType 判断任意 err 是否携带 flags 中的类别。
func IsType(err error, flags ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.IsType(flags)
	}
	return false
}
