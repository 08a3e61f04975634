//go:build !(amd64 || arm64 || loong64 || ppc64 || ppc64le || riscv64 || s390x || mips64 || mips64le || 386 || arm || mips || mipsle || ppc || wasm)

package mmap

// MaxSize is the largest file Map accepts. Unknown architectures get the
// 32-bit limit.
const MaxSize = 0x7FFFFFFF // 2GB
