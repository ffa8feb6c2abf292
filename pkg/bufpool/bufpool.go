// Package bufpool recycles the byte slices used to read file content. Hash
// workers stream files in large chunks and content sniffing samples leading
// bytes; pooling both keeps a busy scan from churning the garbage collector.
//
// Buffers come in three size classes (4KB, 64KB, 1MB). Requests above the
// largest class are allocated directly and never pooled, so a one-off
// oversized read does not pin memory for the lifetime of the process.
//
// All operations are safe for concurrent use.
package bufpool

import (
	"sync"
)

// Buffer size classes. Get rounds a request up to the smallest class that
// fits it.
const (
	// SmallSize covers content sniff windows (4KB).
	SmallSize = 4 << 10

	// MediumSize covers reads between a sniff window and a digest chunk (64KB).
	MediumSize = 64 << 10

	// LargeSize covers digest streaming chunks (1MB).
	LargeSize = 1 << 20
)

var (
	small = sync.Pool{New: func() any {
		b := make([]byte, SmallSize)
		return &b
	}}
	medium = sync.Pool{New: func() any {
		b := make([]byte, MediumSize)
		return &b
	}}
	large = sync.Pool{New: func() any {
		b := make([]byte, LargeSize)
		return &b
	}}
)

// Get returns a slice of length size backed by a pooled buffer when the
// request fits one of the size classes. The contents are not zeroed between
// uses. Callers must hand the slice back with Put once finished.
//
// Requests larger than LargeSize are allocated directly and will not be
// pooled.
func Get(size int) []byte {
	var ptr *[]byte

	switch {
	case size <= SmallSize:
		ptr = small.Get().(*[]byte)
	case size <= MediumSize:
		ptr = medium.Get().(*[]byte)
	case size <= LargeSize:
		ptr = large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}

	return (*ptr)[:size]
}

// Put returns a buffer obtained from Get to its pool. The buffer must not
// be used after Put. Buffers whose capacity does not match a size class,
// including oversized allocations, are left for the garbage collector.
func Put(buf []byte) {
	switch cap(buf) {
	case SmallSize:
		buf = buf[:SmallSize]
		small.Put(&buf)
	case MediumSize:
		buf = buf[:MediumSize]
		medium.Put(&buf)
	case LargeSize:
		buf = buf[:LargeSize]
		large.Put(&buf)
	}
}
