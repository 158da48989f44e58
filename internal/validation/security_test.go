package validation

import "testing"

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty path", "", true},
		{"simple relative path", "src/a.ts", false},
		{"path traversal", "../../etc/passwd", true},
		{"restricted system path", "/etc/passwd", true},
		{"dangerous character", "src/$(whoami).ts", true},
		{"clean absolute path", "/home/user/project/a.ts", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileExtension(t *testing.T) {
	allowed := []string{".ts", ".tsx", ".d.ts"}

	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"allowed extension", "a.ts", false},
		{"disallowed extension", "a.js", true},
		{"no extension", "README", true},
		{"empty filename", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileExtension(tt.filename, allowed)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFileExtension(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"null byte stripped", "hello\x00world", "helloworld"},
		{"control character stripped", "hello\x01world", "helloworld"},
		{"newline preserved", "line1\nline2", "line1\nline2"},
		{"tab preserved", "a\tb", "a\tb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeInput(tt.input); got != tt.want {
				t.Errorf("SanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateUnicodeString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"ascii only", "MyProject", false},
		{"bidi override", "My‮Project", true},
		{"zero width", "My​Project", true},
		{"non-ascii homoglyph risk", "Proјect", true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUnicodeString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUnicodeString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
