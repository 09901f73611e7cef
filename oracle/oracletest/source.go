// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracletest

// SequenceSource replays Values in order, wrapping around, reduced modulo n.
type SequenceSource struct {
	Values []int
	next   int
}

func (s *SequenceSource) Intn(n int) int {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v % n
}
