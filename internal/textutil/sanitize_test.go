package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  Rin  ", "Rin"},
		{"Rin/Saber: Alter", "Rin-Saber- Alter"},
		{`say "hi"?`, "say hi"},
		{"a\r\nb", "ab"},
		{"<|>", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q want %q", tt.in, got, tt.want)
		}
	}
}

func TestStemName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rin.png", "Rin"},
		{"cards/Alice Liddell.PNG", "Alice Liddell"},
		{`C:\uploads\bob.card.png`, "bob.card"},
		{"noext", "noext"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StemName(tt.in); got != tt.want {
			t.Errorf("StemName(%q) = %q want %q", tt.in, got, tt.want)
		}
	}
}
