package conv

// AppendFixed appends s to dst truncated or space-padded to exactly w bytes.
func AppendFixed(dst []byte, s string, w int) []byte {
	if len(s) > w {
		s = s[:w]
	}
	dst = append(dst, s...)
	for i := len(s); i < w; i++ {
		dst = append(dst, ' ')
	}
	return dst
}

// Fixed returns s truncated or space-padded to exactly w bytes.
func Fixed(s string, w int) string {
	if len(s) == w {
		return s
	}
	return string(AppendFixed(make([]byte, 0, w), s, w))
}

// Coalesce returns s if non-empty, otherwise d.
func Coalesce(s, d string) string {
	if s == "" {
		return d
	}
	return s
}
