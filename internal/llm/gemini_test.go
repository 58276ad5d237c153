package llm

import "testing"

func TestToGeminiContents(t *testing.T) {
	system, contents := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "slm"},
		{Role: RoleAssistant, Content: "slm"},
		{Role: RoleUser, Content: "naber"},
		{Role: RoleUser, Content: "orda mısın"},
	})
	if system == nil || len(system.Parts) != 1 || system.Parts[0].Text != "persona" {
		t.Fatalf("system instruction not extracted: %+v", system)
	}
	if len(contents) != 3 {
		t.Fatalf("want 3 contents, got %d", len(contents))
	}
	wantRoles := []string{"user", "model", "user"}
	for i, c := range contents {
		if c.Role != wantRoles[i] {
			t.Fatalf("content %d: want role %s, got %s", i, wantRoles[i], c.Role)
		}
	}
	last := contents[2]
	if len(last.Parts) != 2 || last.Parts[0].Text != "naber" || last.Parts[1].Text != "orda mısın" {
		t.Fatalf("consecutive user messages not merged in order: %+v", last.Parts)
	}
}

func TestToGeminiContentsWithoutSystem(t *testing.T) {
	system, contents := toGeminiContents([]Message{{Role: RoleUser, Content: "x"}})
	if system != nil {
		t.Fatalf("unexpected system instruction")
	}
	if len(contents) != 1 {
		t.Fatalf("want 1 content, got %d", len(contents))
	}
}
