package txmodel

// StoreData implements the CKB syscall ABI's universal buffer-copy
// convention: the caller passes a buffer of capacity *size bytes
// starting at offset into data; this writes back how much of data
// remained from offset onward, regardless of how much actually fit in
// the caller's buffer.
func StoreData(buf []byte, size *uint64, offset uint64, data []byte) {
	dataLen := uint64(len(data))
	if offset > dataLen {
		offset = dataLen
	}
	full := dataLen - offset
	real := *size
	if real > full {
		real = full
	}
	if real > uint64(len(buf)) {
		real = uint64(len(buf))
	}
	*size = full
	if real > 0 {
		copy(buf[:real], data[offset:offset+real])
	}
}
