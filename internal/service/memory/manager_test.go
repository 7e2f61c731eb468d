package memory

import (
	"reflect"
	"testing"

	"github.com/sandevgo/falcon/internal/core"
)

func TestExtractTags(t *testing.T) {
	m := NewManager(NewWorkingMemory())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "file keywords",
			text: "save the report",
			want: []string{"file"},
		},
		{
			name: "multiple categories",
			text: "write a script to open the application",
			// "write" -> file, "open"/"application" -> system, "script" -> code
			want: []string{"file", "system", "code"},
		},
		{
			name: "personal via my",
			text: "remember that my favourite colour is blue",
			want: []string{"personal"},
		},
		{
			name: "question words",
			text: "what is the weather today",
			want: []string{"question"},
		},
		{
			name: "no matches",
			text: "zzzzz",
			want: nil,
		},
		{
			name: "deterministic order follows category table",
			text: "run this program now",
			want: []string{"system", "code", "task", "urgent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ExtractTags(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTags(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractTags_Deterministic(t *testing.T) {
	m := NewManager(NewWorkingMemory())
	text := "open a file, run the program, generate an image of my cat, quickly"

	first := m.ExtractTags(text)
	for i := 0; i < 10; i++ {
		if got := m.ExtractTags(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d: ExtractTags not deterministic: %v vs %v", i, got, first)
		}
	}
}

func TestClassifyImportance(t *testing.T) {
	m := NewManager(NewWorkingMemory())

	tests := []struct {
		name string
		text string
		tags []string
		want core.Importance
	}{
		{
			name: "emergency keyword is critical",
			text: "emergency: the disk is full",
			tags: nil,
			want: core.ImportanceCritical,
		},
		{
			name: "memory keyword beats default low",
			text: "remember that the server is down",
			tags: nil,
			want: core.ImportanceHigh,
		},
		{
			name: "emergency outranks personal identity",
			text: "emergency: my name is Alex",
			tags: []string{"personal"},
			want: core.ImportanceCritical,
		},
		{
			name: "personal tag is high",
			text: "blue is a nice colour for me",
			tags: []string{"personal"},
			want: core.ImportanceHigh,
		},
		{
			name: "identity phrase without tag is high",
			text: "i am a night owl",
			tags: nil,
			want: core.ImportanceHigh,
		},
		{
			name: "task tag is medium",
			text: "launch the backup",
			tags: []string{"task"},
			want: core.ImportanceMedium,
		},
		{
			name: "code tag is medium",
			text: "refactor this",
			tags: []string{"code"},
			want: core.ImportanceMedium,
		},
		{
			name: "default low",
			text: "hello there",
			tags: nil,
			want: core.ImportanceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.ClassifyImportance(tt.text, tt.tags); got != tt.want {
				t.Errorf("ClassifyImportance(%q, %v) = %v, want %v", tt.text, tt.tags, got, tt.want)
			}
		})
	}
}

func TestShouldPersistLongTerm(t *testing.T) {
	m := NewManager(NewWorkingMemory())

	tests := []struct {
		level core.Importance
		want  bool
	}{
		{core.ImportanceLow, false},
		{core.ImportanceMedium, true},
		{core.ImportanceHigh, true},
		{core.ImportanceCritical, true},
	}

	for _, tt := range tests {
		if got := m.ShouldPersistLongTerm(tt.level); got != tt.want {
			t.Errorf("ShouldPersistLongTerm(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestTagsIntersect(t *testing.T) {
	if !TagsIntersect([]string{"task", "question"}, "task", "system", "code") {
		t.Error("expected intersection on task")
	}
	if TagsIntersect([]string{"question"}, "task", "system", "code") {
		t.Error("expected no intersection")
	}
	if TagsIntersect(nil, "task") {
		t.Error("nil tags should never intersect")
	}
}
