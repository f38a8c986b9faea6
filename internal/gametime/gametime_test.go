package gametime

import "testing"

func TestFormatTicks(t *testing.T) {
	cases := []struct {
		ticks uint64
		want  string
	}{
		{0, "00:00:00.000"},
		{1, "00:00:00.050"},
		{10, "00:00:00.500"},
		{19, "00:00:00.950"},
		{20, "00:00:01.000"},
		{1200, "00:01:00.000"},
		{3600, "00:03:00.000"},
		{12000, "00:10:00.000"},
		{72000, "01:00:00.000"},
		{72000 + 1200 + 20 + 1, "01:01:01.050"},
		{100 * 72000, "100:00:00.000"},
	}
	for _, tc := range cases {
		if got := FormatTicks(tc.ticks); got != tc.want {
			t.Fatalf("FormatTicks(%d)=%q want=%q", tc.ticks, got, tc.want)
		}
	}
}
