package client

import (
	"net/url"

	"github.com/favbox/wrecv/pkg/protocol"
)

// Request 描述一次待提交的传输。
type Request struct {
	url         *url.URL
	httpHeaders protocol.HeaderFields
	upload      bool
}

// NewRequest 以目标地址创建请求。
func NewRequest(u *url.URL) *Request {
	return &Request{url: u}
}

// URL 返回目标地址。
func (r *Request) URL() *url.URL { return r.url }

func (r *Request) SetURL(u *url.URL) *Request {
	r.url = u
	return r
}

// HTTPHeaders 返回仅本请求使用的标头字段，优先于配置中的同名默认值。
func (r *Request) HTTPHeaders() *protocol.HeaderFields { return &r.httpHeaders }

// SetHTTPHeaders 整体替换请求标头字段。
func (r *Request) SetHTTPHeaders(fields protocol.HeaderFields) *Request {
	r.httpHeaders = fields
	return r
}

// Upload 返回是否通过处理器的 UploadContent 提供上传内容。
func (r *Request) Upload() bool { return r.upload }

func (r *Request) SetUpload(enabled bool) *Request {
	r.upload = enabled
	return r
}
