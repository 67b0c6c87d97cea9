// Package bufferpool recycles the buffers used to read upstream responses and
// render preview pages.
package bufferpool

import (
	"bytes"
	"sync"
)

// MaxRetainedSize is the largest buffer capacity returned to the pool. An
// unusually large response should not pin its memory for the life of the
// process.
const MaxRetainedSize = 256 * 1024

// BufferPool is a sync.Pool of *bytes.Buffer.
type BufferPool struct {
	pool *sync.Pool
}

// New creates an empty BufferPool.
func New() *BufferPool {
	return &BufferPool{
		pool: &sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

// Get returns an empty buffer.
func (bp *BufferPool) Get() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf to the pool, unless it has grown past MaxRetainedSize.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > MaxRetainedSize {
		return
	}
	bp.pool.Put(buf)
}
