package sinks

import (
	"bytes"
	"sync"
)

var linePool = sync.Pool{New: func() interface{} { return new(bytes.Buffer) }}

func getLineBuffer() *bytes.Buffer {
	b := linePool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

func putLineBuffer(b *bytes.Buffer) { linePool.Put(b) }
