package ecs

// ArrayHandle owns a heap buffer for one entity's variable-length array
// attachment: a flat byte slice of length*stride bytes plus the element
// stride needed to index it. Ownership transfers on cross-archetype moves
// (the source archetype's column entry is left empty) and the buffer is
// released — by simply dropping the reference, since array elements are
// plain bytes with no destructor — when the owning entity is destroyed or
// the array is removed.
type ArrayHandle struct {
	data   []byte
	stride int32
}

// newArrayHandle returns an empty handle for an array whose elements are
// stride bytes wide.
func newArrayHandle(stride int32) ArrayHandle {
	return ArrayHandle{stride: stride}
}

// Len returns the number of elements currently stored.
func (h ArrayHandle) Len() int {
	if h.stride == 0 {
		return 0
	}
	return len(h.data) / int(h.stride)
}

// Stride returns the per-element byte size.
func (h ArrayHandle) Stride() int32 { return h.stride }

// Bytes returns the handle's raw backing bytes (length * stride of them).
func (h ArrayHandle) Bytes() []byte { return h.data }

// Append grows the array by one element, copying elem (which must be
// exactly stride bytes) into the new slot.
func (h *ArrayHandle) Append(elem []byte) {
	old := len(h.data)
	h.data = extendByteSlice(h.data, len(elem))
	copy(h.data[old:], elem)
}

// Truncate removes every element, keeping the backing array for reuse.
func (h *ArrayHandle) Truncate() {
	h.data = h.data[:0]
}

// Release drops the handle's buffer, returning it to the heap; the
// backing allocator (Go's GC here) reclaims it once unreferenced.
func (h *ArrayHandle) Release() {
	h.data = nil
}
