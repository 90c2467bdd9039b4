package shower

import (
	"errors"
	"testing"
	"time"
)

func TestParseReferenceTime(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{
			name: "day one of a non-leap year",
			in:   "1970/001 00:00:00",
			want: time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "day 60 of a leap year lands on February 29",
			in:   "2020/060 12:30:45",
			want: time.Date(2020, time.February, 29, 12, 30, 45, 0, time.UTC),
		},
		{
			name: "day 60 of a non-leap year lands on March 1",
			in:   "2021/060 00:00:00",
			want: time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseReferenceTime(tc.in)
			if err != nil {
				t.Fatalf("ParseReferenceTime(%q) returned error: %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("ParseReferenceTime(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseReferenceTimeMalformed(t *testing.T) {
	cases := []string{
		"",
		"1970/001",
		"1970-001 00:00:00",
		"abcd/001 00:00:00",
		"1970/abc 00:00:00",
		"1970/001 00:00",
	}

	for _, in := range cases {
		if _, err := ParseReferenceTime(in); err == nil {
			t.Errorf("ParseReferenceTime(%q): expected error, got nil", in)
		} else if !errors.Is(err, ErrBadReferenceTime) {
			t.Errorf("ParseReferenceTime(%q): error %v does not wrap ErrBadReferenceTime", in, err)
		}
	}
}
