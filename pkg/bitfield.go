package trigger

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// bitField is a fixed-width sub-range of a hardware word.
type bitField struct {
	Name   string
	Offset uint
	Width  uint
}

func (f bitField) mask() uint64 {
	return (uint64(1)<<f.Width - 1) << f.Offset
}

func (f bitField) max() uint64 {
	return uint64(1)<<f.Width - 1
}

func (f bitField) get(word uint64) uint64 {
	return (word & f.mask()) >> f.Offset
}

// set writes value into the field and leaves every other bit untouched.
func (f bitField) set(word uint64, value uint64) (uint64, error) {
	if value > f.max() {
		return word, &ErrRange{Field: f.Name, Value: int64(value), Limit: int64(f.max() + 1)}
	}
	return (word &^ f.mask()) | (value << f.Offset), nil
}

func boolToBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func CheckBit[T constraints.Unsigned](mask T, pos uint) bool {
	return (mask & (T(1) << pos)) != 0
}

func SetBit[T constraints.Unsigned](mask T, pos uint) T {
	return mask | (T(1) << pos)
}

func CountBits[T constraints.Unsigned](mask T) int {
	return bits.OnesCount64(uint64(mask))
}
