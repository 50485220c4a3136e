package protocol

import "bytes"

// ScanHeaderBoundary 逐行扫描缓冲区（行以 \n 结尾），
// 返回第一条全空白行之后的字节偏移，视其为标头块的结束。
//
// 缓冲区只增不减，可随字节到达反复调用；尚未见到空行时返回 false。
func ScanHeaderBoundary(buf []byte) (int, bool) {
	offset := 0
	for {
		i := bytes.IndexByte(buf[offset:], '\n')
		if i < 0 {
			return 0, false
		}
		line := buf[offset : offset+i+1]
		offset += i + 1
		if isBlankLine(line) {
			return offset, true
		}
	}
}

// 行内只含 ASCII 空白即视为空行。
func isBlankLine(line []byte) bool {
	for _, c := range line {
		switch c {
		case ' ', '\t', '\r', '\n', '\x0c':
		default:
			return false
		}
	}
	return true
}
