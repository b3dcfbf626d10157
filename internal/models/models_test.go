package models

import "testing"

func TestParseDayTime(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 9 * 60, false},
		{"18:30", 18*60 + 30, false},
		{"08:15:00", 8*60 + 15, false},
		{"24:00", 0, true},
		{"09:61", 0, true},
		{"nonsense", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDayTime(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if got.Minutes() != tc.want {
			t.Fatalf("%q: expected %d minutes, got %d", tc.in, tc.want, got.Minutes())
		}
	}
}

func TestDayTimeString(t *testing.T) {
	if s := DayTime(9*60 + 5).String(); s != "09:05" {
		t.Fatalf("expected 09:05, got %s", s)
	}
}
