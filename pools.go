package fixdb

import "sync"

var scratchBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 256)
	},
}

// scratchBytes returns a pooled buffer of length n. Release it with
// releaseScratch once nothing refers to it.
func scratchBytes(n int) []byte {
	buf := scratchBytesPool.Get().([]byte)
	return ensureCapacity(buf, n)[:n]
}

func releaseScratch(b []byte) {
	scratchBytesPool.Put(b[:0])
}
