package house

import "testing"

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  House
		ok    bool
	}{
		{"Love", Love, true},
		{"joy", Joy, true},
		{" HOPE ", Hope, true},
		{"peace", Peace, true},
		{"Gryffindor", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Parse(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestInitial(t *testing.T) {
	t.Parallel()

	want := map[House]string{Love: "L", Joy: "J", Hope: "H", Peace: "P"}
	for h, initial := range want {
		if got := h.Initial(); got != initial {
			t.Fatalf("%s initial = %q, want %q", h, got, initial)
		}
	}
}

func TestAssignPicksFewest(t *testing.T) {
	t.Parallel()

	counts := map[House]int{Love: 3, Joy: 1, Hope: 2, Peace: 4}
	if got := Assign(counts); got != Joy {
		t.Fatalf("Assign = %s, want Joy", got)
	}
}

func TestAssignTieBreaksInPriorityOrder(t *testing.T) {
	t.Parallel()

	if got := Assign(map[House]int{}); got != Love {
		t.Fatalf("empty distribution: Assign = %s, want Love", got)
	}
	counts := map[House]int{Love: 2, Joy: 1, Hope: 1, Peace: 2}
	if got := Assign(counts); got != Joy {
		t.Fatalf("tie between Joy and Hope: Assign = %s, want Joy", got)
	}
}

func TestAssignStaysBalanced(t *testing.T) {
	t.Parallel()

	counts := map[House]int{}
	for i := 0; i < 403; i++ {
		counts[Assign(counts)]++
	}

	min, max := -1, -1
	for _, h := range All() {
		c := counts[h]
		if min == -1 || c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	if max-min > 1 {
		t.Fatalf("distribution skewed: max %d, min %d (%v)", max, min, counts)
	}
}

func TestAssignIsDeterministic(t *testing.T) {
	t.Parallel()

	counts := map[House]int{Love: 7, Joy: 7, Hope: 7, Peace: 6}
	first := Assign(counts)
	for i := 0; i < 10; i++ {
		if got := Assign(counts); got != first {
			t.Fatalf("Assign flapped: %s then %s", first, got)
		}
	}
}
