package security

import "testing"

func TestVerify_Bcrypt(t *testing.T) {
	digest, err := Hash("secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if IsLegacy(digest) {
		t.Fatalf("bcrypt digest reported as legacy: %s", digest)
	}

	if !Verify("secret", digest) {
		t.Fatalf("expected matching password to verify")
	}
	if Verify("wrong", digest) {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestVerify_LegacyPlaintext(t *testing.T) {
	if !IsLegacy("legacy") {
		t.Fatalf("plaintext value should be legacy")
	}
	if !Verify("legacy", "legacy") {
		t.Fatalf("expected plaintext match")
	}
	if Verify("Legacy", "legacy") {
		t.Fatalf("plaintext comparison must be exact")
	}
}

func TestVerify_EmptyStored(t *testing.T) {
	if Verify("", "") {
		t.Fatalf("empty stored value must never verify")
	}
}

func TestHash_Salted(t *testing.T) {
	a, _ := Hash("secret")
	b, _ := Hash("secret")
	if a == b {
		t.Fatalf("expected distinct digests for the same password")
	}
}
