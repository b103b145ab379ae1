package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "json fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "plain fence",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "surrounding prose",
			in:   "Here is the result:\n{\"a\": {\"b\": 2}}\nHope that helps!",
			want: `{"a": {"b": 2}}`,
		},
		{
			name: "no object at all",
			in:   "sorry, I cannot do that",
			want: "sorry, I cannot do that",
		},
	}
	for _, tc := range cases {
		if got := ExtractJSON(tc.in); got != tc.want {
			t.Fatalf("%s: ExtractJSON(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}
