package utils

import "testing"

func TestCleanLabel(t *testing.T) {
	cases := map[string]string{
		"GARCIA LOPEZ, JUAN":            "GARCIA LOPEZ, JUAN",
		"GARCIA_x000D_ LOPEZ":           "GARCIA LOPEZ",
		"  GARCIA   LOPEZ \r\n":         "GARCIA LOPEZ",
		"PEREZ\nRUIZ":                   "PEREZRUIZ",
		"_x000D_":                       "",
		"MARTIN  \t  SANZ_x000D_, LUIS": "MARTIN SANZ, LUIS",
	}
	for in, want := range cases {
		if got := CleanLabel(in); got != want {
			t.Fatalf("CleanLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Pendiente RECUR garcia", "GARCIA") {
		t.Fatalf("expected case-insensitive substring match")
	}
	if ContainsFold("GARCIA", "LOPEZ") {
		t.Fatalf("unexpected match")
	}
}
