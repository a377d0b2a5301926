package relevance

import "testing"

func TestIsUSStory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		title   string
		summary string
		want    bool
	}{
		{
			name:  "no locale signal passes",
			title: "Teachers adopt new reading curriculum",
			want:  true,
		},
		{
			name:  "plain US story passes",
			title: "Texas school district expands pre-K seats",
			want:  true,
		},
		{
			name:  "foreign-only story vetoed",
			title: "Ofsted downgrades two academies in England",
			want:  false,
		},
		{
			name:    "foreign term with US co-occurrence passes",
			title:   "California district borrows an Ofsted-style inspection model",
			summary: "The school district will pilot inspections modeled on England's system.",
			want:    true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUSStory(tc.title, tc.summary); got != tc.want {
				t.Fatalf("IsUSStory(%q) = %v, want %v", tc.title, got, tc.want)
			}
		})
	}
}

func TestIsEnglish(t *testing.T) {
	t.Parallel()

	if !IsEnglish("School board approves the new budget for next year", "") {
		t.Fatal("English headline should pass")
	}
	if IsEnglish("La junta escolar aprueba el nuevo presupuesto para las escuelas del distrito", "") {
		t.Fatal("Spanish headline should be rejected")
	}
	if !IsEnglish("Ok", "") {
		t.Fatal("too-short text must pass the gate")
	}
}
