package client

import (
	"net"

	"github.com/favbox/wrecv/pkg/protocol"
)

// EventKind 标识会话事件的种类。
type EventKind int

const (
	// EventConnected 表示与对端建立了连接。
	EventConnected EventKind = iota + 1
	// EventHeaderSent 携带已发出的原始标头字节。
	EventHeaderSent
	// EventHeaderReceived 携带已收到的原始标头字节。
	EventHeaderReceived
	// EventBodySent 携带已发出的原始正文字节（含协议封装）。
	EventBodySent
	// EventBodyReceived 携带已收到的原始正文字节（含协议封装）。
	EventBodyReceived
	// EventContentSent 携带已发出的逻辑内容字节。
	EventContentSent
	// EventContentReceived 携带已收到的逻辑内容字节。
	EventContentReceived
	// EventRequest 表示请求头已解析完成。
	EventRequest
	// EventResponse 表示响应头已解析完成。
	EventResponse
	// EventTrailer 表示响应挂车已解析完成。
	EventTrailer
	// EventProgress 携带四个进度计数器。
	EventProgress
)

var eventKindNames = map[EventKind]string{
	EventConnected:       "connected",
	EventHeaderSent:      "header_sent",
	EventHeaderReceived:  "header_received",
	EventBodySent:        "body_sent",
	EventBodyReceived:    "body_received",
	EventContentSent:     "content_sent",
	EventContentReceived: "content_received",
	EventRequest:         "request",
	EventResponse:        "response",
	EventTrailer:         "trailer",
	EventProgress:        "progress",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Progress 是一次进度更新的四个计数器。
type Progress struct {
	DownloadTotal   uint64
	DownloadCurrent uint64
	UploadTotal     uint64
	UploadCurrent   uint64
}

// SessionEvent 是会话产生的带标签事件。
//
// Data 是引擎临时缓冲的借用视图，仅在回调期间有效；
// 需要留存的处理器必须自行拷贝。解析所得的标头结构归事件消费方所有。
type SessionEvent struct {
	Kind EventKind

	// Remote 仅在 EventConnected 时有效。
	Remote net.Addr

	// Data 携带各原始字节事件的载荷；解析事件附带解析所用的完整标头块。
	Data []byte

	// Request 仅在 EventRequest 时有效。
	Request *protocol.RequestHeader

	// Response 仅在 EventResponse 时有效。
	Response *protocol.ResponseHeader

	// Trailer 仅在 EventTrailer 时有效。
	Trailer *protocol.ResponseTrailer

	// Progress 仅在 EventProgress 时有效。
	Progress Progress
}
