// Package codegen produces the human-readable identifiers used for business
// accounts, products and orders. Business and product codes are checked for
// uniqueness against the store and redrawn on collision; order codes are
// derived from the order timestamp and row id and are not collision-checked.
package codegen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const codePrefix = "FZ"

const base36Digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ExistsFunc reports whether a candidate code is already taken within the
// caller's scope. A storage error aborts the draw loop.
type ExistsFunc func(code string) (bool, error)

// BusinessCode returns a globally unique business code of the form FZ-NNNNNN
// with NNNNNN uniformly drawn from [100000,999999]. The loop redraws without
// an attempt bound: a uniqueness violation is a recoverable condition, never a
// fatal one.
func BusinessCode(exists ExistsFunc) (string, error) {
	for {
		code := fmt.Sprintf("%s-%06d", codePrefix, 100000+rand.Intn(900000))
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
}

// ProductCode returns a 5-digit product code drawn from [10000,99999], unique
// only within the owning business; the same code may repeat across businesses.
func ProductCode(exists ExistsFunc) (string, error) {
	for {
		code := fmt.Sprintf("%05d", 10000+rand.Intn(90000))
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
}

// OrderCode returns an order code of the form FZ-MID-CHECK. MID is the base36
// encoding of day_of_year*24+hour of the order timestamp, upper-cased and
// left-padded to width 3 (the value is bounded by 366*24+23, well under
// 36^3, so it always fits). CHECK is (rowID+T) mod 100 zero-padded to 2.
//
// CHECK is an advisory sanity tag, not an integrity checksum: callers that do
// not know the row id yet substitute a random surrogate (SurrogateRowID), and
// the code is never re-checked for uniqueness.
func OrderCode(rowID int64, t time.Time) string {
	tag := int64(t.YearDay()*24 + t.Hour())
	mid := strings.ToUpper(base36Encode(tag))
	for len(mid) < 3 {
		mid = "0" + mid
	}
	check := (rowID + tag) % 100
	return fmt.Sprintf("%s-%s-%02d", codePrefix, mid, check)
}

// SurrogateRowID returns a provisional row id in [1,1000000] for order codes
// generated before the insert assigns a real id.
func SurrogateRowID() int64 {
	return int64(rand.Intn(1_000_000)) + 1
}

func base36Encode(n int64) string {
	if n == 0 {
		return "0"
	}
	var sb []byte
	for n > 0 {
		sb = append([]byte{base36Digits[n%36]}, sb...)
		n /= 36
	}
	return string(sb)
}
