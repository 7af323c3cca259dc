package filter

import (
	"testing"

	"github.com/dhcgn/maillog/parser"
)

var _ parser.Noise = (*Filter)(nil)

func TestFilter_Ignores_Prefixes(t *testing.T) {
	f, err := New(Options{Prefixes: DefaultPrefixes})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !f.Ignores("clamsmtpd[123]: 127.0.0.1 connection from 127.0.0.1") {
		t.Error("Expected clamsmtpd line to be ignored")
	}
	if !f.Ignores("postlicyd") {
		t.Error("Expected bare postlicyd keyword to be ignored")
	}
	if f.Ignores("postfix/smtpd[123]: connect from mx[192.0.2.1]") {
		t.Error("Expected postfix line to pass")
	}
}

func TestFilter_Ignores_Patterns(t *testing.T) {
	f, err := New(Options{Patterns: []string{`postfix-[a-z]+/`, `tls.*`}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		text string
		want bool
	}{
		{"postfix-in/cleanup[1]: A: message-id=<x>", true},
		{"postfix/cleanup[1]: A: message-id=<x>", false},
		{"tlsmgr", true},
		// Patterns are anchored at the start of the text.
		{"postfix/smtpd[1]: postfix-in/ mentioned later", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := f.Ignores(tt.text); got != tt.want {
				t.Errorf("Ignores(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFilter_InvalidPattern(t *testing.T) {
	_, err := New(Options{Patterns: []string{"("}})
	if err == nil {
		t.Error("Expected error for invalid pattern")
	}
}

func TestFilter_NoNoise(t *testing.T) {
	f, err := New(Options{Prefixes: []string{" ", ""}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if f.Len() != 0 {
		t.Errorf("Len() = %d, want 0", f.Len())
	}
	if f.Ignores("anything") {
		t.Error("Expected nothing to be ignored when no noise is configured")
	}

	var nilFilter *Filter
	if nilFilter.Ignores("clamsmtpd") {
		t.Error("Expected nil filter to ignore nothing")
	}
}

func TestFilter_DeduplicatesPrefixes(t *testing.T) {
	f, err := New(Options{Prefixes: []string{"clamsmtpd", " clamsmtpd ", "postlicyd"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got := f.Prefixes()
	if len(got) != 2 || got[0] != "clamsmtpd" || got[1] != "postlicyd" {
		t.Errorf("Prefixes() = %v", got)
	}
}

func TestFilter_WithParser(t *testing.T) {
	f, err := New(Options{Prefixes: []string{"anvil", "clamsmtpd"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	p := parser.New(f)

	msg, err := p.Parse("Aug  4 00:00:01 yuuai clamsmtpd[99]: 100: accepted connection")
	if msg != nil || err != nil {
		t.Errorf("Parse() = %v, %v; want ignored", msg, err)
	}
	msg, err = p.Parse("Aug  4 00:00:01 yuuai postfix/anvil[1]: statistics: max cache size 2")
	if msg != nil || err != nil {
		t.Errorf("Parse() = %v, %v; want ignored", msg, err)
	}
}
