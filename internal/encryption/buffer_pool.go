package encryption

import (
	"crypto/aes"
	"sync"
)

// defaultBufferSize is the streaming chunk size. It must stay a multiple of aes.BlockSize.
const defaultBufferSize = 32 * 1024

// bufferPool provides reusable chunk buffers for the CBC stream.
// Buffers carry one extra block of capacity so the final chunk can be padded in place.
//
//nolint:gochecknoglobals
var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, defaultBufferSize, defaultBufferSize+aes.BlockSize)

		return &buf
	},
}

func getBuffer() *[]byte {
	buf, _ := bufferPool.Get().(*[]byte) //nolint:errcheck // pool only stores *[]byte

	return buf
}

// putBuffer wipes the buffer before returning it, since it held plaintext.
func putBuffer(buf *[]byte) {
	b := (*buf)[:cap(*buf)]
	clear(b)

	*buf = b[:defaultBufferSize]

	bufferPool.Put(buf)
}
