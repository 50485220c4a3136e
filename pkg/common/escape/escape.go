// Package escape 提供任意字节序列与可显示 Unicode 文本之间的无损互转。
//
// 无效字节 b 被编码为转义标记 U+FFFD 加上 256 个专属码点之一：
//
//   - 0x00..0x0F -> U+FE00 + b
//   - 0x10..0xFF -> U+E0100 + b - 0x10
//
// 合法文本中真实出现的 U+FFFD 后面会补一个字面标记 U+E007F，
// 以便解码时区分“标记是数据”和“标记引出转义”。
package escape

import (
	"strings"
	"unicode/utf8"
)

const (
	// EscapeChar 是引出转义序列的标记码点。
	EscapeChar = utf8.RuneError

	// LiteralSeqChar 表示前面的 EscapeChar 是字面数据而非转义引导。
	LiteralSeqChar = '\U000E007F'
)

// EscapeBytes 将任意字节序列编码为合法 UTF-8 文本。
//
// 对任意输入 b，恒有 Unescape(EscapeBytes(b)) == b。
func EscapeBytes(input []byte) string {
	var sb strings.Builder
	sb.Grow(len(input))

	for len(input) > 0 {
		r, size := utf8.DecodeRune(input)
		if r == utf8.RuneError && size <= 1 {
			// 无效字节逐个转义
			sb.WriteRune(EscapeChar)
			sb.WriteRune(byteToEscapeSeq(input[0]))
			input = input[1:]
			continue
		}

		sb.WriteRune(r)
		if r == EscapeChar {
			sb.WriteRune(LiteralSeqChar)
		}
		input = input[size:]
	}

	return sb.String()
}

// Unescape 还原 EscapeBytes 的编码结果为原始字节序列。
//
// 不构成转义序列的标记按字面保留。
func Unescape(input string) []byte {
	buf := make([]byte, 0, len(input))
	inEscape := false

	for _, ch := range input {
		if !inEscape {
			if ch == EscapeChar {
				inEscape = true
			}
			buf = utf8.AppendRune(buf, ch)
			continue
		}

		inEscape = false
		if ch == LiteralSeqChar {
			// 保留已写入的字面 EscapeChar，丢弃字面标记本身
			continue
		}
		if b, ok := escapeSeqToByte(ch); ok {
			// 回退已写入的三字节 EscapeChar，替换为原始字节
			buf = buf[:len(buf)-3]
			buf = append(buf, b)
			continue
		}
		buf = utf8.AppendRune(buf, ch)
	}

	return buf
}

// Preview 返回 data 的有损文本预览，超过 limit 字节时截断并追加省略号。
//
// 仅用于诊断展示，不保证可逆。
func Preview(data []byte, limit int) string {
	if len(data) <= limit {
		return strings.ToValidUTF8(string(data), string(EscapeChar))
	}
	return strings.ToValidUTF8(string(data[:limit]), string(EscapeChar)) + "…"
}

func byteToEscapeSeq(b byte) rune {
	if b <= 0x0f {
		return rune(0xFE00 + uint32(b))
	}
	return rune(0xE0100 + uint32(b) - 0x10)
}

func escapeSeqToByte(ch rune) (byte, bool) {
	switch {
	case ch >= '\uFE00' && ch <= '\uFE0F':
		return byte(ch - 0xFE00), true
	case ch >= '\U000E0100' && ch <= '\U000E01EF':
		return byte(ch - 0xE0100 + 0x10), true
	default:
		return 0, false
	}
}
