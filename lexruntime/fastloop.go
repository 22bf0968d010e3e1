package lexruntime

import "golang.org/x/sys/cpu"

// unrollFactor is how many bytes ScanClass tests per bounds check. Wider
// chunks pay off more on CPUs with deeper out-of-order windows; there's no
// vectorized implementation here (an arbitrary per-state byte-membership
// table isn't amenable to the hi-bit SWAR trick ASCII detection uses), so
// this only tunes chunk size, not the per-byte test itself.
var unrollFactor = func() int {
	if cpu.X86.HasAVX2 {
		return 32
	}
	return 16
}()

// ScanClass advances over the run of bytes in data[start:] that belong to
// class (class[b] == true for every consumed byte), one bounds check per
// unrollFactor-byte chunk instead of per byte, falling back to a scalar
// loop for the final partial chunk. Returns the offset of the first byte
// not in class, or len(data) if the whole remainder is.
//
// This is the single state machine transition every generated self-loop
// state (an identifier body, a run of whitespace, ...) compiles down to.
func ScanClass(data []byte, start int, class *[256]bool) int {
	n := len(data)
	i := start
	for i+unrollFactor <= n {
		miss := -1
		for j := 0; j < unrollFactor; j++ {
			if !class[data[i+j]] {
				miss = j
				break
			}
		}
		if miss >= 0 {
			return i + miss
		}
		i += unrollFactor
	}
	for i < n && class[data[i]] {
		i++
	}
	return i
}
