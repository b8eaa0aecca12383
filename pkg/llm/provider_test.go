package llm

import (
	"errors"
	"testing"
)

func TestNewProviderSelection(t *testing.T) {
	cases := []struct {
		provider string
		wantErr  bool
	}{
		{"openai", false},
		{"Anthropic", false},
		{"OLLAMA", false},
		{"", true},
		{"mystery", true},
	}
	for _, tc := range cases {
		_, err := NewProvider(Config{Provider: tc.provider, Model: "m"})
		if tc.wantErr && err == nil {
			t.Fatalf("expected error for provider %q", tc.provider)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("unexpected error for provider %q: %v", tc.provider, err)
		}
	}
}

func TestErrorKindHelpers(t *testing.T) {
	timeoutErr := &Error{Kind: KindTimeout, Provider: "openai", Message: "deadline"}
	wrapped := errors.Join(errors.New("outer"), timeoutErr)
	if !IsTimeout(wrapped) {
		t.Fatal("expected IsTimeout on wrapped error")
	}
	if IsRateLimited(wrapped) {
		t.Fatal("did not expect IsRateLimited")
	}

	rlErr := &Error{Kind: KindRateLimited, Provider: "openai", Status: 429, Message: "slow down"}
	if !IsRateLimited(rlErr) {
		t.Fatal("expected IsRateLimited")
	}
	if rlErr.Error() == "" {
		t.Fatal("expected error string")
	}
}
