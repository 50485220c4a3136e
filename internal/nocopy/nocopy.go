// Package nocopy 提供一个嵌入式标记，供 go vet 的 copylocks 检查发现非法的值拷贝。
package nocopy

// NoCopy 嵌入到结构体后，首次使用即禁止拷贝。
//
// 详见 https://golang.org/issues/8005#issuecomment-190753527
type NoCopy struct{}

// Lock 是 go vet -copylocks 检查器使用的空操作。
func (*NoCopy) Lock()   {}
func (*NoCopy) Unlock() {}
