package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		format    string
		wantDebug bool
		wantJSON  bool
	}{
		{name: "text info", format: FormatText},
		{name: "text debug", debug: true, format: FormatText, wantDebug: true},
		{name: "json", format: FormatJSON, wantJSON: true},
		{name: "json upper case", format: "JSON", wantJSON: true},
		{name: "unknown falls back to text", format: "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewHandler(&buf, tt.debug, tt.format))

			logger.Debug("debug line")
			logger.Info("info line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug line present = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.HasPrefix(out, "{"); got != tt.wantJSON {
				t.Errorf("json output = %v, want %v: %q", got, tt.wantJSON, out)
			}
		})
	}
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	WithTool(WithOperation(base, "mailbox.fetch"), "get_last_email_text").Info("done", Mailbox("INBOX"))

	out := buf.String()
	for _, want := range []string{"operation=mailbox.fetch", "tool=get_last_email_text", "mailbox=INBOX"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{Operation("op"), KeyOperation, "op"},
		{Tool("summarize_text"), KeyTool, "summarize_text"},
		{Mailbox("INBOX"), KeyMailbox, "INBOX"},
		{Kind("parse_error"), KeyKind, "parse_error"},
		{Count(3), KeyCount, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.wantKey, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("Err = %v", attr)
	}

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("ok", Err(nil))
	if strings.Contains(buf.String(), KeyError+"=") {
		t.Errorf("nil error should be omitted: %q", buf.String())
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if got := AnonymizeEmail(""); got != "" {
		t.Errorf("AnonymizeEmail(\"\") = %q, want empty", got)
	}

	a := AnonymizeEmail("alice@gmail.com")
	if !strings.HasPrefix(a, "user:") || len(a) != len("user:")+16 {
		t.Errorf("unexpected format %q", a)
	}
	if strings.Contains(a, "alice") {
		t.Errorf("anonymized value leaks identity: %q", a)
	}
	if a != AnonymizeEmail("Alice@Gmail.com") {
		t.Error("anonymization should ignore case")
	}
	if a == AnonymizeEmail("bob@gmail.com") {
		t.Error("different identities should hash differently")
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("alice@gmail.com")
	if attr.Key != KeyUserHash {
		t.Errorf("key = %q, want %q", attr.Key, KeyUserHash)
	}
	if attr.Value.String() != AnonymizeEmail("alice@gmail.com") {
		t.Errorf("value = %q", attr.Value.String())
	}
}

func TestSanitizeSecret(t *testing.T) {
	if got := SanitizeSecret(""); got != "<empty>" {
		t.Errorf("SanitizeSecret(\"\") = %q", got)
	}
	got := SanitizeSecret("hunter2hunter2")
	if got != "[secret:14 chars]" {
		t.Errorf("SanitizeSecret = %q", got)
	}
	if strings.Contains(got, "hunter") {
		t.Error("secret content leaked")
	}
}

func TestExtractDomain(t *testing.T) {
	tests := map[string]string{
		"alice@gmail.com":   "gmail.com",
		"Bob@Example.ORG":   "example.org",
		"":                  "",
		"no-at-sign":        "",
		"@gmail.com":        "",
		"a@b@gmail.com":     "",
		"carol@sub.example": "sub.example",
	}
	for in, want := range tests {
		if got := ExtractDomain(in); got != want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", in, got, want)
		}
	}
}
