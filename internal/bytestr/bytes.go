// Package bytestr 定义一些常用字节化字符串。
package bytestr

var (
	StrCRLF       = []byte("\r\n")
	StrColonSpace = []byte(": ")
	StrHTTP       = []byte("HTTP/")
	StrSpace      = []byte(" ")
)
