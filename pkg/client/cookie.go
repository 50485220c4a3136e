package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/favbox/wrecv/pkg/protocol"
	"golang.org/x/net/publicsuffix"
)

// Cookie 请求标头值的字节预算。
const maxCookieHeaderLen = 4096

// CookieJar 是跨会话共享、可停用的 cookie 存储。
//
// 停用态是合法的生命周期状态：所有操作皆为空操作。
// 写操作（摄取、清空）与读操作（渲染）互斥，单次调用具备原子性；
// 多个会话共用同一存储时，调用间不保证先后顺序。
type CookieJar struct {
	mu  sync.Mutex
	jar *cookiejar.Jar // 由 mu 守护，nil 表示停用
}

// NewCookieJar 创建按标准 cookie 作用域（域/路径）存储的活动 cookie 存储。
func NewCookieJar() *CookieJar {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &CookieJar{jar: jar}
}

// NewDisabledCookieJar 创建停用的 cookie 存储。
func NewDisabledCookieJar() *CookieJar {
	return &CookieJar{}
}

// Enabled 返回存储是否处于活动态。
func (j *CookieJar) Enabled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar != nil
}

// RequestString 把适用于 url 的所有 cookie 渲染为单个标头值，
// 形如 "name=value; name2=value2"，含空格的值加引号。
//
// 条目按存储的自然顺序处理；一旦某条目放不进预算即停止追加，
// 哪怕后续条目更短。停用态返回空串。
func (j *CookieJar) RequestString(u *url.URL) string {
	j.mu.Lock()
	if j.jar == nil {
		j.mu.Unlock()
		return ""
	}
	cookies := j.jar.Cookies(u)
	j.mu.Unlock()

	return formatClientHeader(cookies, maxCookieHeaderLen)
}

// ParseFromResponse 摄取 fields 中每个 Set-Cookie 值并按 url 的域作用域存储。
//
// 单个 cookie 解析失败被忽略，不影响其余值。停用态为空操作。
func (j *CookieJar) ParseFromResponse(u *url.URL, fields *protocol.HeaderFields) {
	header := make(http.Header)
	for _, value := range fields.GetAll("Set-Cookie") {
		header.Add("Set-Cookie", string(value.Bytes()))
	}
	if len(header) == 0 {
		return
	}

	// Response.Cookies 解析所有值并跳过无法解析的条目
	cookies := (&http.Response{Header: header}).Cookies()
	if len(cookies) == 0 {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.jar == nil {
		return
	}
	j.jar.SetCookies(u, cookies)
}

// Clear 清空存储。停用态为空操作。
func (j *CookieJar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.jar == nil {
		return
	}
	j.jar, _ = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

func formatClientHeader(cookies []*http.Cookie, maxLen int) string {
	var sb strings.Builder

	for _, c := range cookies {
		quoted := strings.Contains(c.Value, " ")

		need := len(c.Name) + 1 + len(c.Value)
		if quoted {
			need += 2
		}
		if sb.Len() > 0 {
			need += 2
		}
		if sb.Len()+need > maxLen {
			break
		}

		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(c.Name)
		sb.WriteByte('=')
		if quoted {
			sb.WriteByte('"')
			sb.WriteString(c.Value)
			sb.WriteByte('"')
		} else {
			sb.WriteString(c.Value)
		}
	}

	return sb.String()
}
