package proxy

import "sync"

// readBufPool recycles the fixed-size read buffers used by both the inbound
// request loop and the outbound response loop. One read chunk per
// connection, never resized.
var readBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, readChunkSize)
		return &buf
	},
}

func getReadBuf() []byte {
	return *readBufPool.Get().(*[]byte)
}

func putReadBuf(buf []byte) {
	readBufPool.Put(&buf)
}
