// Package mock 提供用脚本驱动回调的传输引擎，供单元测试使用。
package mock

import (
	"sync"

	"github.com/favbox/wrecv/pkg/transport"
)

// PerformFunc 是一次传输的脚本：按引擎的节奏调用回调并返回传输结果。
type PerformFunc func(opts *transport.PerformOptions, cbs *transport.Callbacks) error

// Engine 按同一脚本创建句柄，并统计句柄的生命周期调用。
type Engine struct {
	mu      sync.Mutex
	perform PerformFunc

	created int
	resets  int
	closes  int
}

func NewEngine(perform PerformFunc) *Engine {
	return &Engine{perform: perform}
}

func (e *Engine) NewHandle() transport.Handle {
	e.mu.Lock()
	e.created++
	e.mu.Unlock()
	return &Handle{engine: e}
}

// Created 返回已创建的句柄数量。
func (e *Engine) Created() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.created
}

// Resets 返回句柄 Reset 的调用次数。
func (e *Engine) Resets() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resets
}

// Closes 返回句柄 Close 的调用次数。
func (e *Engine) Closes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closes
}

// Handle 是脚本引擎的传输句柄。
type Handle struct {
	engine *Engine
}

func (h *Handle) Reset() {
	h.engine.mu.Lock()
	h.engine.resets++
	h.engine.mu.Unlock()
}

func (h *Handle) Close() error {
	h.engine.mu.Lock()
	h.engine.closes++
	h.engine.mu.Unlock()
	return nil
}

func (h *Handle) Perform(opts *transport.PerformOptions, cbs *transport.Callbacks) error {
	return h.engine.perform(opts, cbs)
}

// SplitLines 把字节块按 \n 切成保留行尾的行，便于脚本逐行回放标头。
func SplitLines(block []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range block {
		if b == '\n' {
			lines = append(lines, block[start:i+1])
			start = i + 1
		}
	}
	if start < len(block) {
		lines = append(lines, block[start:])
	}
	return lines
}
