// Package protocol 定义标头字段模型以及标头块的定界与解析。
package protocol

import (
	"unicode/utf8"

	"github.com/favbox/wrecv/internal/bytesconv"
	"github.com/favbox/wrecv/pkg/common/escape"
)

// FieldName 保存字段名的原始形式和小写规格化形式。
//
// 相等性仅定义在规格化形式上。
type FieldName struct {
	raw        string
	normalized string
}

// NewFieldName 创建字段名。
func NewFieldName(name string) FieldName {
	b := make([]byte, len(name))
	copy(b, name)
	bytesconv.LowercaseBytes(b)
	return FieldName{raw: name, normalized: bytesconv.B2s(b)}
}

// String 返回原始形式。
func (n FieldName) String() string { return n.raw }

// Normalized 返回小写规格化形式。
func (n FieldName) Normalized() string { return n.normalized }

// Equal 在规格化形式上比较两个字段名。
func (n FieldName) Equal(other FieldName) bool {
	return n.normalized == other.normalized
}

// FieldValue 是两种情况的和类型：合法文本，或无法按 UTF-8 解释的不透明字节。
//
// 从字节构造时优先文本，解码失败才落到不透明形式。
type FieldValue struct {
	text   string
	opaque []byte
}

// NewFieldValue 从文本创建字段值。
func NewFieldValue(text string) FieldValue {
	return FieldValue{text: text}
}

// NewFieldValueBytes 从字节创建字段值，优先文本形式。
func NewFieldValueBytes(data []byte) FieldValue {
	if utf8.Valid(data) {
		return FieldValue{text: string(data)}
	}
	opaque := make([]byte, len(data))
	copy(opaque, data)
	return FieldValue{opaque: opaque}
}

// IsText 返回值是否为合法文本。
func (v FieldValue) IsText() bool { return v.opaque == nil }

// IsOpaque 返回值是否为不透明字节。
func (v FieldValue) IsOpaque() bool { return v.opaque != nil }

// Bytes 返回值的字节形式。
func (v FieldValue) Bytes() []byte {
	if v.opaque != nil {
		return v.opaque
	}
	return bytesconv.S2b(v.text)
}

// Text 返回文本形式，不透明值返回 false。
func (v FieldValue) Text() (string, bool) {
	if v.opaque != nil {
		return "", false
	}
	return v.text, true
}

// String 返回可显示文本。不透明字节经无损转义后返回。
func (v FieldValue) String() string {
	if v.opaque != nil {
		return escape.EscapeBytes(v.opaque)
	}
	return v.text
}

// Equal 比较两个字段值。文本永不等于不透明值。
func (v FieldValue) Equal(other FieldValue) bool {
	if v.IsOpaque() != other.IsOpaque() {
		return false
	}
	if v.IsOpaque() {
		return string(v.opaque) == string(other.opaque)
	}
	return v.text == other.text
}

// Field 是一对标头名值。
type Field struct {
	Name  FieldName
	Value FieldValue
}

// HeaderFields 是保序、名称不分大小写的标头名值多重映射。
//
// 允许同名多值；查找与成员判断在规格化名称上进行。所有操作都是全函数，无错误路径。
type HeaderFields struct {
	fields []Field
}

// Len 返回字段数量。
func (h *HeaderFields) Len() int { return len(h.fields) }

// Empty 返回是否没有任何字段。
func (h *HeaderFields) Empty() bool { return len(h.fields) == 0 }

// Clear 清空所有字段。
func (h *HeaderFields) Clear() { h.fields = h.fields[:0] }

// Append 追加一对名值，从不移除既有条目。
func (h *HeaderFields) Append(name, value string) {
	h.AppendField(NewFieldName(name), NewFieldValue(value))
}

// AppendBytes 追加一对名值字节，值按“文本或不透明”规则转换。
func (h *HeaderFields) AppendBytes(name, value []byte) {
	h.AppendField(NewFieldName(string(name)), NewFieldValueBytes(value))
}

// AppendField 追加一个字段。
func (h *HeaderFields) AppendField(name FieldName, value FieldValue) {
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Insert 以替换语义写入：移除所有同名条目后，在第一个同名条目原来的位置插入；
// 若不存在同名条目则追加。
func (h *HeaderFields) Insert(name, value string) {
	h.InsertField(NewFieldName(name), NewFieldValue(value))
}

// InsertField 以替换语义写入一个字段。
func (h *HeaderFields) InsertField(name FieldName, value FieldValue) {
	pos := -1
	for i := range h.fields {
		if h.fields[i].Name.Equal(name) {
			pos = i
			break
		}
	}
	if pos < 0 {
		h.AppendField(name, value)
		return
	}
	h.removeName(name)
	h.fields = append(h.fields, Field{})
	copy(h.fields[pos+1:], h.fields[pos:])
	h.fields[pos] = Field{Name: name, Value: value}
}

// Remove 移除所有同名条目。
func (h *HeaderFields) Remove(name string) {
	h.removeName(NewFieldName(name))
}

func (h *HeaderFields) removeName(name FieldName) {
	kept := h.fields[:0]
	for _, f := range h.fields {
		if !f.Name.Equal(name) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

// ContainsKey 返回是否存在同名条目，名称不分大小写。
func (h *HeaderFields) ContainsKey(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Get 返回第一个同名条目的值，名称不分大小写。
func (h *HeaderFields) Get(name string) (FieldValue, bool) {
	key := NewFieldName(name)
	for _, f := range h.fields {
		if f.Name.Equal(key) {
			return f.Value, true
		}
	}
	return FieldValue{}, false
}

// GetAll 返回所有同名条目的值，保持插入顺序。
func (h *HeaderFields) GetAll(name string) []FieldValue {
	key := NewFieldName(name)
	var values []FieldValue
	for _, f := range h.fields {
		if f.Name.Equal(key) {
			values = append(values, f.Value)
		}
	}
	return values
}

// Visit 按插入顺序对每个字段应用函数 f。
func (h *HeaderFields) Visit(f func(name FieldName, value FieldValue)) {
	for i := range h.fields {
		f(h.fields[i].Name, h.fields[i].Value)
	}
}

// CopyTo 拷贝所有字段至 dst。
func (h *HeaderFields) CopyTo(dst *HeaderFields) {
	dst.fields = append(dst.fields[:0], h.fields...)
}
