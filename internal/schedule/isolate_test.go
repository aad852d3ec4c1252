package schedule

import (
	"errors"
	"testing"
)

func TestIsolatePayload(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		want        string
		wantMissing string // "" means success expected
	}{
		{
			name: "array embedded in prose",
			raw:  "Voici le tableau demandé :\n[{\"Assurances\":\"10,00\"}]\nBonne journée.",
			want: "[{\"Assurances\":\"10,00\"}]",
		},
		{
			name: "pure array",
			raw:  `[{"a":"1"},{"a":"2"}]`,
			want: `[{"a":"1"},{"a":"2"}]`,
		},
		{
			name: "greedy span covers everything between first open and last close",
			raw:  `intro [1,2] middle [3,4] outro`,
			want: `[1,2] middle [3,4]`,
		},
		{
			name:        "no opening bracket",
			raw:         "désolé, aucun tableau trouvé ]",
			wantMissing: "[",
		},
		{
			name:        "no closing bracket",
			raw:         "voici le début [ mais rien d'autre",
			wantMissing: "]",
		},
		{
			name:        "closing precedes opening",
			raw:         "] du bruit [",
			wantMissing: "]",
		},
		{
			name:        "empty input",
			raw:         "",
			wantMissing: "[",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsolatePayload(tt.raw)
			if tt.wantMissing != "" {
				var ie *IsolationError
				if !errors.As(err, &ie) {
					t.Fatalf("expected *IsolationError, got %v", err)
				}
				if ie.Missing != tt.wantMissing {
					t.Errorf("Missing = %q, want %q", ie.Missing, tt.wantMissing)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("payload = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFencedPayload(t *testing.T) {
	t.Run("json fence returns inner text", func(t *testing.T) {
		raw := "Voici le résultat:\n```json\n[{\"Assurances\":\"10,00\"}]\n```"
		got, ok := FencedPayload(raw)
		if !ok {
			t.Fatal("expected a fenced payload")
		}
		if got != `[{"Assurances":"10,00"}]` {
			t.Errorf("inner text = %q", got)
		}
	})

	t.Run("no fence", func(t *testing.T) {
		if _, ok := FencedPayload("just prose with [1,2]"); ok {
			t.Error("expected no fenced payload")
		}
	})

	t.Run("unterminated fence", func(t *testing.T) {
		if _, ok := FencedPayload("```json\n[1,2]"); ok {
			t.Error("expected no fenced payload for unterminated fence")
		}
	})
}
