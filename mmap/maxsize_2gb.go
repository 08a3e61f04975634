//go:build 386 || arm || mips || mipsle || ppc || wasm

package mmap

// MaxSize is the largest file Map accepts.
const MaxSize = 0x7FFFFFFF // 2GB
