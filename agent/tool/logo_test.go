package tool

import (
	"strings"
	"testing"
)

func TestParseLogoStyles(t *testing.T) {
	t.Parallel()

	text := `1. Minimalist
prompt: Ultra-clean flat vector mark.
style_guide: No gradients, single accent color.

2. Elegant
prompt: Refined serif wordmark.

3. Athletic
prompt: Bold angular forms.
style_guide: Condensed type.`

	styles := ParseLogoStyles(text)
	if len(styles) != 3 {
		t.Fatalf("got %d styles, want 3", len(styles))
	}
	if styles[0].Name != "Minimalist" || styles[0].StyleGuide != "No gradients, single accent color." {
		t.Fatalf("first style parsed wrong: %+v", styles[0])
	}
	if styles[1].Name != "Elegant" || styles[1].StyleGuide != "" {
		t.Fatalf("second style parsed wrong: %+v", styles[1])
	}
	if styles[2].Prompt != "Bold angular forms." {
		t.Fatalf("third style prompt = %q", styles[2].Prompt)
	}
}

func TestParseLogoStylesFallsBack(t *testing.T) {
	t.Parallel()

	styles := ParseLogoStyles("no numbered entries here")
	if len(styles) == 0 {
		t.Fatal("expected fallback styles for unparseable input")
	}
}

func TestDistributeImages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		total  int
		styles int
		want   []int
	}{
		{3, 1, []int{3}},
		{3, 2, []int{2, 1}},
		{3, 3, []int{1, 1, 1}},
	}
	for _, tc := range cases {
		got := DistributeImages(tc.total, tc.styles)
		if len(got) != len(tc.want) {
			t.Fatalf("DistributeImages(%d, %d) = %v, want %v", tc.total, tc.styles, got, tc.want)
		}
		sum := 0
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("DistributeImages(%d, %d) = %v, want %v", tc.total, tc.styles, got, tc.want)
			}
			sum += got[i]
		}
		if sum != tc.total {
			t.Fatalf("distribution %v does not sum to %d", got, tc.total)
		}
	}
}

func TestBuildLogoPrompt(t *testing.T) {
	t.Parallel()

	style := LogoStyle{Name: "Minimalist", Prompt: "Flat vector mark.", StyleGuide: "No gradients."}
	prompt := buildLogoPrompt("Keeps", "make it round", "Archetype: wellness.", style)

	for _, want := range []string{
		"Brand name: Keeps.",
		"USER REQUIREMENTS (highest priority): make it round.",
		"DESIGN CONTEXT: Archetype: wellness.",
		"STYLE TEMPLATE: Minimalist - Flat vector mark.",
		"GUIDE: No gradients.",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
