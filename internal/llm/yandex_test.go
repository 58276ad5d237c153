package llm

import (
	"errors"
	"testing"
)

func TestToYandexMessages(t *testing.T) {
	got := toYandexMessages([]Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "naber"},
		{Role: RoleAssistant, Content: "iyi"},
	})
	if len(got) != 3 {
		t.Fatalf("want 3 messages, got %d", len(got))
	}
	for i, want := range []string{RoleSystem, RoleUser, RoleAssistant} {
		if got[i].Role != want {
			t.Fatalf("message %d: want role %s, got %s", i, want, got[i].Role)
		}
	}
	if got[2].Content != "iyi" {
		t.Fatalf("content not carried over: %+v", got[2])
	}
}

func TestFirstAlternative(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    string
		wantErr bool
	}{
		{name: "none", in: nil, wantErr: true},
		{name: "blank", in: []string{" "}, wantErr: true},
		{name: "first wins", in: []string{" selam ", "ikinci"}, want: "selam"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := firstAlternative(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrEmptyResponse) {
					t.Fatalf("want ErrEmptyResponse, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("got %q, %v", got, err)
			}
		})
	}
}
