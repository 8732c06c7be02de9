package lnqm

import (
	"fmt"

	"github.com/robert-malhotra/go-lnqm/internal/conv"
)

// SliceIndex holds the N+1 offsets delimiting the samples of one field.
// Sample i spans [s[i], s[i+1]) in offset units.
type SliceIndex []int64

// Samples returns the number of samples the index delimits.
func (s SliceIndex) Samples() int {
	if len(s) == 0 {
		return 0
	}
	return len(s) - 1
}

// Validate checks that s delimits n samples of a buffer holding bufLen
// elements with the given stride: s has n+1 entries, starts at zero, never
// decreases, and its last entry times stride is bufLen.
func (s SliceIndex) Validate(n, stride, bufLen int) error {
	if len(s) != n+1 {
		return fmt.Errorf("%w: %d offsets for %d samples", ErrCorruptIndex, len(s), n)
	}
	if s[0] != 0 {
		return fmt.Errorf("%w: first offset is %d", ErrCorruptIndex, s[0])
	}
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return fmt.Errorf("%w: offset %d decreases from %d to %d", ErrCorruptIndex, i, s[i-1], s[i])
		}
	}
	last, err := conv.Int64ToInt(s[n])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	end, err := conv.MulInt(last, stride)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	if end != bufLen {
		return fmt.Errorf("%w: last offset %d x stride %d does not match buffer length %d",
			ErrCorruptIndex, s[n], stride, bufLen)
	}
	return nil
}

// validateText additionally requires every step to be exactly one.
func (s SliceIndex) validateText(n, count int) error {
	if err := s.Validate(n, 1, count); err != nil {
		return err
	}
	for i := 1; i < len(s); i++ {
		if s[i]-s[i-1] != 1 {
			return fmt.Errorf("%w: text sample %d spans %d strings", ErrCorruptIndex, i-1, s[i]-s[i-1])
		}
	}
	return nil
}
