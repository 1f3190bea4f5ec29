package codegen

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func neverExists(string) (bool, error) { return false, nil }

func TestBusinessCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^FZ-[1-9][0-9]{5}$`)
	for i := 0; i < 100; i++ {
		code, err := BusinessCode(neverExists)
		require.NoError(t, err)
		require.Regexp(t, pattern, code)
	}
}

func TestBusinessCodeRedrawsOnCollision(t *testing.T) {
	var seen []string
	collisions := 3
	exists := func(code string) (bool, error) {
		seen = append(seen, code)
		if collisions > 0 {
			collisions--
			return true, nil
		}
		return false, nil
	}

	code, err := BusinessCode(exists)
	require.NoError(t, err)
	require.Len(t, seen, 4)
	require.Equal(t, seen[len(seen)-1], code)
}

func TestBusinessCodePropagatesStoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	_, err := BusinessCode(func(string) (bool, error) { return false, storeErr })
	require.ErrorIs(t, err, storeErr)
}

func TestProductCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[1-9][0-9]{4}$`)
	for i := 0; i < 100; i++ {
		code, err := ProductCode(neverExists)
		require.NoError(t, err)
		require.Regexp(t, pattern, code)
	}
}

func TestProductCodesDistinctWithinScope(t *testing.T) {
	// Simulates the per-business scope: every generated code joins the scope
	// and must never be drawn again.
	scope := map[string]bool{}
	exists := func(code string) (bool, error) { return scope[code], nil }
	for i := 0; i < 500; i++ {
		code, err := ProductCode(exists)
		require.NoError(t, err)
		require.False(t, scope[code], "code %s generated twice", code)
		scope[code] = true
	}
}

func TestOrderCode(t *testing.T) {
	// Day of year 45, hour 10: T = 45*24+10 = 1090 = 30*36 + 10, so the
	// base36 digits are U (30) and A (10), padded to 0UA.
	ts := time.Date(2025, time.February, 14, 10, 30, 0, 0, time.UTC)
	require.Equal(t, 45, ts.YearDay())

	code := OrderCode(7, ts)
	require.Equal(t, "FZ-0UA-97", code)
}

func TestOrderCodePadding(t *testing.T) {
	// Jan 1 at midnight: T = 24, base36 "O", padded to 00O, check (1+24)%100.
	ts := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "FZ-00O-25", OrderCode(1, ts))
}

func TestOrderCodeNotCollisionChecked(t *testing.T) {
	// Two orders in the same hour whose row ids differ by 100 share a code.
	// Order codes are advisory and are never re-checked for uniqueness.
	ts := time.Date(2025, time.June, 2, 15, 0, 0, 0, time.UTC)
	require.Equal(t, OrderCode(12, ts), OrderCode(112, ts))
}

func TestSurrogateRowIDRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := SurrogateRowID()
		require.GreaterOrEqual(t, id, int64(1))
		require.LessOrEqual(t, id, int64(1_000_000))
	}
}

func TestBase36Encode(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{9, "9"},
		{10, "A"},
		{35, "Z"},
		{36, "10"},
		{1090, "UA"},
		{8807, "6SN"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, base36Encode(tc.n), "base36(%d)", tc.n)
	}
}
