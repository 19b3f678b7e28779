// Package hash derives the seeds used by the harness. Every test case gets its
// own seed computed from the run seed, the round, the group name and the case
// index, so any single case can be regenerated without replaying the others.
package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
)

// RoundSeed derives the seed of one round from the run seed.
// Format hashed: "round|<seed>|<round>".
func RoundSeed(seed uint64, round int) uint64 {
	return sum("round|" + strconv.FormatUint(seed, 10) + "|" + strconv.Itoa(round))
}

// CaseSeed derives the seed of case index of group from a round seed.
// Format hashed: "case|<seed>|<group>|<index>". The group name is part of the
// key so that two groups sharing a seed still draw different cases.
func CaseSeed(seed uint64, group string, index int) uint64 {
	return sum("case|" + strconv.FormatUint(seed, 10) + "|" + group + "|" + strconv.Itoa(index))
}

func sum(key string) uint64 {
	h := sha256.Sum256([]byte(key))
	return binary.BigEndian.Uint64(h[:8])
}
