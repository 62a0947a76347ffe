package pipeline

import "iter"

// Chunk regroups a sequence into slices of at most size elements. Only
// the final chunk may be shorter. Element order is preserved across the
// regrouping. A size below one is treated as one.
//
// The returned sequence is lazy: each chunk is gathered only when the
// consumer asks for it, so an early break stops pulling from seq.
func Chunk[T any](seq iter.Seq[T], size int) iter.Seq[[]T] {
	if size < 1 {
		size = 1
	}
	return func(yield func([]T) bool) {
		chunk := make([]T, 0, size)
		for v := range seq {
			chunk = append(chunk, v)
			if len(chunk) == size {
				if !yield(chunk) {
					return
				}
				chunk = make([]T, 0, size)
			}
		}
		if len(chunk) > 0 {
			yield(chunk)
		}
	}
}
