//go:build !integration

package i18n

import (
	"strings"
	"testing"
)

func TestTranslator_EmbeddedLocales(t *testing.T) {
	for _, lang := range []string{"en", "fr"} {
		tr, err := NewTranslator(LocalesFS, lang)
		if err != nil {
			t.Fatalf("load %s: %v", lang, err)
		}
		msg := tr.T("token_issued", "JE-AAAA-BBBB")
		if !strings.Contains(msg, "JE-AAAA-BBBB") {
			t.Fatalf("%s: expected code in message, got %q", lang, msg)
		}
		if !strings.Contains(msg, "jeton esengo") {
			t.Fatalf("%s: expected token name in message, got %q", lang, msg)
		}
	}
}

func TestTranslator_UnknownLanguageFails(t *testing.T) {
	if _, err := NewTranslator(LocalesFS, "xx"); err == nil {
		t.Fatal("expected an error for a missing locale")
	}
}

func TestTranslator_UnknownKeyEchoes(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatalf("load en: %v", err)
	}
	if got := tr.T("no_such_key"); got != "no_such_key" {
		t.Fatalf("expected key echo, got %q", got)
	}
}
