package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/favbox/wrecv/pkg/common/errors"
)

func TestParseRequestHeader(t *testing.T) {
	block := []byte("GET /index.html HTTP/1.1\r\nHost: example.com\r\nAccept: */*\r\n\r\n")
	h, err := ParseRequestHeader(block)
	require.NoError(t, err)

	assert.Equal(t, "GET", h.Method)
	assert.Equal(t, "/index.html", h.URI)
	assert.Equal(t, "HTTP/1.1", h.Version)
	assert.Equal(t, 2, h.Fields.Len())

	v, ok := h.Fields.Get("host")
	assert.True(t, ok)
	assert.Equal(t, "example.com", v.String())
}

func TestParseRequestHeaderIncomplete(t *testing.T) {
	_, err := ParseRequestHeader([]byte("GET / HTTP/1.1\r\nHost: a\r\n"))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeIncomplete))
	assert.False(t, errs.IsType(err, errs.ErrorTypeParse))
}

func TestParseRequestHeaderMalformed(t *testing.T) {
	cases := [][]byte{
		[]byte("GET\r\n\r\n"),
		[]byte("GET /\r\n\r\n"),
		[]byte("GET / FOO/1.1\r\n\r\n"),
	}
	for _, block := range cases {
		_, err := ParseRequestHeader(block)
		require.Error(t, err)
		assert.True(t, errs.IsType(err, errs.ErrorTypeParse))
	}
}

func TestParseResponseHeader(t *testing.T) {
	block := []byte("HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nSet-Cookie: a=1\r\n\r\n")
	h, err := ParseResponseHeader(block)
	require.NoError(t, err)

	assert.Equal(t, "HTTP/1.1", h.Version)
	assert.Equal(t, 200, h.StatusCode)
	assert.Equal(t, "OK", h.ReasonPhrase)
	assert.Equal(t, 2, h.Fields.Len())
}

func TestParseResponseHeaderEmptyReason(t *testing.T) {
	h, err := ParseResponseHeader([]byte("HTTP/1.1 304\r\n\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 304, h.StatusCode)
	assert.Equal(t, "", h.ReasonPhrase)
}

func TestParseResponseHeaderMalformed(t *testing.T) {
	_, err := ParseResponseHeader([]byte("ICY 200 OK\r\n\r\n"))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParse))

	_, err = ParseResponseHeader([]byte("HTTP/1.1 abc OK\r\n\r\n"))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParse))
}

func TestParseResponseHeaderIncomplete(t *testing.T) {
	_, err := ParseResponseHeader([]byte("HTTP/1.1 200 OK\r\n"))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeIncomplete))
}

func TestParseResponseTrailer(t *testing.T) {
	tr, err := ParseResponseTrailer([]byte("X-Checksum: abc\r\nX-Len: 42\r\n\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Fields.Len())

	v, ok := tr.Fields.Get("x-len")
	assert.True(t, ok)
	assert.Equal(t, "42", v.String())
}

func TestParseResponseTrailerEmpty(t *testing.T) {
	tr, err := ParseResponseTrailer([]byte("\r\n"))
	require.NoError(t, err)
	assert.True(t, tr.Fields.Empty())
}

func TestParseFieldLineEdgeCases(t *testing.T) {
	// 字段名含空白视为格式错误
	_, err := ParseResponseTrailer([]byte("Bad Name: x\r\n\r\n"))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParse))

	// 缺少冒号视为格式错误
	_, err = ParseResponseTrailer([]byte("NoColonHere\r\n\r\n"))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParse))

	// 值两侧空白被剔除，值本身可为空
	tr, err := ParseResponseTrailer([]byte("A:   spaced value \r\nB:\r\n\r\n"))
	require.NoError(t, err)
	a, _ := tr.Fields.Get("A")
	assert.Equal(t, "spaced value", a.String())
	b, _ := tr.Fields.Get("B")
	assert.Equal(t, "", b.String())
}

func TestParseFieldLineOpaqueValue(t *testing.T) {
	block := append([]byte("X-Raw: "), 0xff, 0xfe)
	block = append(block, []byte("\r\n\r\n")...)

	tr, err := ParseResponseTrailer(block)
	require.NoError(t, err)

	v, ok := tr.Fields.Get("x-raw")
	assert.True(t, ok)
	assert.True(t, v.IsOpaque())
	assert.Equal(t, []byte{0xff, 0xfe}, v.Bytes())
}
