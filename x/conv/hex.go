package conv

const hexd = "0123456789ABCDEF"

// Hex writes n as digits uppercase hex characters without 0x, zero-padded,
// into the tail of buf and returns the written slice.
func Hex(buf []byte, n uint32, digits int) []byte {
	if digits <= 0 || len(buf) < digits {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < digits; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// AppendHex appends n as digits uppercase hex characters to dst.
func AppendHex(dst []byte, n uint32, digits int) []byte {
	var tmp [8]byte
	if digits > len(tmp) {
		digits = len(tmp)
	}
	return append(dst, Hex(tmp[:], n, digits)...)
}
