package skills

import (
	"testing"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "simple list",
			raw:  "Python, Docker, SQL",
			want: []string{"Python", "Docker", "SQL"},
		},
		{
			name: "duplicates collapse case-insensitively",
			raw:  "Python, python, PYTHON, Go",
			want: []string{"Python", "Go"},
		},
		{
			name: "blank entries dropped",
			raw:  "Python,, , Kubernetes",
			want: []string{"Python", "Kubernetes"},
		},
		{
			name: "trailing period stripped",
			raw:  "Python, LangChain.",
			want: []string{"Python", "LangChain"},
		},
		{
			name: "empty input",
			raw:  "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseList(tt.raw).Items()
			if len(got) != len(tt.want) {
				t.Fatalf("Items() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Items()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSubtractIsSubset(t *testing.T) {
	required := New("Python", "LangChain", "Docker", "SQL")
	current := New("python", "sql")

	gaps := required.Subtract(current)

	if gaps.Len() != 2 {
		t.Fatalf("gaps.Len() = %d, want 2", gaps.Len())
	}
	for _, g := range gaps.Items() {
		if !required.Contains(g) {
			t.Errorf("gap %q not in required set", g)
		}
	}
	if gaps.Contains("Python") {
		t.Error("Python should not be a gap")
	}
	if !gaps.Contains("langchain") {
		t.Error("LangChain should be a gap")
	}
}

func TestSubtractEmptyCurrentEqualsRequired(t *testing.T) {
	required := New("A", "B", "C", "D", "E")
	gaps := required.Subtract(New())

	got := gaps.Items()
	want := required.Items()
	if len(got) != len(want) {
		t.Fatalf("gaps = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("gaps[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUnionPreservesFirstCasing(t *testing.T) {
	base := New("Python", "Go")
	extra := New("go", "Rust")

	merged := base.Union(extra)
	got := merged.Items()
	want := []string{"Python", "Go", "Rust"}
	if len(got) != len(want) {
		t.Fatalf("merged = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("merged[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
