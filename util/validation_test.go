package util

import (
	"strings"
	"testing"
)

func TestIsValidWebFingerUsername(t *testing.T) {
	valid := []string{
		"alice",
		"alice123",
		"alice-bob",
		"alice.bob_123",
		"alice_bob~test",
		"alice(bob)",
		"alice*bob+charlie",
		"alice,bob;charlie",
		"test!$&'()*+,;=123",
	}
	for _, username := range valid {
		t.Run(username, func(t *testing.T) {
			ok, reason := IsValidWebFingerUsername(username)
			if !ok {
				t.Errorf("IsValidWebFingerUsername(%q) rejected: %s", username, reason)
			}
			if reason != "" {
				t.Errorf("IsValidWebFingerUsername(%q) returned a reason for a valid name: %s", username, reason)
			}
		})
	}

	invalid := []struct {
		username string
		reason   string
	}{
		{"", "at least 1 character"},
		{"älice", "invalid characters"},
		{"字", "invalid characters"},
		{"alice🔥", "invalid characters"},
		{"alice bob", "invalid characters"},
		{" alice", "invalid characters"},
		{"alice\n", "invalid characters"},
		{"alice\t", "invalid characters"},
		{"alice@bob", "invalid characters"},
		{"alice#bob", "invalid characters"},
		{"alice%bob", "invalid characters"},
		{"alice/bob", "invalid characters"},
		{"alice:bob", "invalid characters"},
		{"alice?bob", "invalid characters"},
		{"alice[bob]", "invalid characters"},
		{"alice\\bob", "invalid characters"},
	}
	for _, tt := range invalid {
		t.Run(tt.username, func(t *testing.T) {
			ok, reason := IsValidWebFingerUsername(tt.username)
			if ok {
				t.Errorf("IsValidWebFingerUsername(%q) accepted an invalid name", tt.username)
				return
			}
			if !strings.Contains(strings.ToLower(reason), tt.reason) {
				t.Errorf("IsValidWebFingerUsername(%q) reason = %q, want it to mention %q", tt.username, reason, tt.reason)
			}
		})
	}
}

func TestIsValidWebFingerUsernameBoundaries(t *testing.T) {
	// length is not limited here, only the character set
	long := strings.Repeat("a", 100)
	if ok, reason := IsValidWebFingerUsername(long); !ok {
		t.Errorf("long username rejected: %s", reason)
	}

	for _, c := range []string{"a", "Z", "0", "9", "-", ".", "_", "~", "!", "$", "&", "'", "(", ")", "*", "+", ",", ";", "="} {
		if ok, reason := IsValidWebFingerUsername(c); !ok {
			t.Errorf("single character %q rejected: %s", c, reason)
		}
	}
}
