package storage

import (
	"encoding/binary"
	"strings"
)

// Key layout:
//
//	items/<id>                 -> JSON record
//	decades/<year:8><id>       -> id
//	maintenance/lock           -> JSON LockInfo
//
// Years are stored as big-endian uint64 with the sign bit flipped so that
// negative years sort before positive ones.
const (
	recordPrefix = "items/"
	decadePrefix = "decades/"
	lockKey      = "maintenance/lock"
)

func recordKey(id string) []byte {
	return []byte(recordPrefix + id)
}

func recordIDFromKey(key []byte) string {
	return strings.TrimPrefix(string(key), recordPrefix)
}

func encodeYear(year int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(int64(year))^(1<<63))
	return b
}

func decodeYear(b []byte) int {
	return int(int64(binary.BigEndian.Uint64(b) ^ (1 << 63)))
}

func decadeYearPrefix(year int) []byte {
	return append([]byte(decadePrefix), encodeYear(year)...)
}

func decadeKey(year int, id string) []byte {
	return append(decadeYearPrefix(year), id...)
}

// parseDecadeKey splits an index key into its year and record id.
func parseDecadeKey(key []byte) (year int, id string, ok bool) {
	rest, found := strings.CutPrefix(string(key), decadePrefix)
	if !found || len(rest) < 8 {
		return 0, "", false
	}
	return decodeYear([]byte(rest[:8])), rest[8:], true
}
