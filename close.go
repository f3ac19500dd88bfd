package prollytree

import "io"

// Close releases resources held by the wrapped store, if it implements
// io.Closer. store.ChunkStore does not, so for it Close does nothing.
// Stores that hold nothing closeable are left untouched; Close is always
// safe to call.
func (s *InstrumentedStore) Close() error {
	if s == nil {
		return nil
	}
	if closer, ok := s.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
