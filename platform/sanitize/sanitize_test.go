package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Juan Pérez", "Juan Pérez"},
		{"tags", "<b>Juan</b> <i>Pérez</i>", "Juan Pérez"},
		{"encoded tags", "&lt;script&gt;alert(1)&lt;/script&gt;Ana", "alert(1)Ana"},
		{"entities", "Tom &amp; Jerry", "Tom & Jerry"},
		{"whitespace", "  fuga en\n\n baño \t cocina ", "fuga en baño cocina"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Fatalf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	if got := Summary("cliente pide revisión de boiler", 7); got != "cliente…" {
		t.Fatalf("unexpected summary %q", got)
	}
	if got := Summary("ñandú", 5); got != "ñandú" {
		t.Fatalf("expected rune-safe count, got %q", got)
	}
	if got := Summary("short", 0); got != "short" {
		t.Fatalf("expected no cap, got %q", got)
	}
}
