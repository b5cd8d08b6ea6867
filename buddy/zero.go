package buddy

// zero fills mem[p:p+n] with zero bytes.
func zero(mem []byte, p, n uint32) {
	for i := uint32(0); i < n; i++ {
		mem[p+i] = 0
	}
}
