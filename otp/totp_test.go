package otp

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestGenerateSecretShape(t *testing.T) {
	p := NewTOTP()
	a, err := p.GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("secrets must be random")
	}
	if strings.Contains(a, "=") {
		t.Error("secret must be unpadded base32")
	}
	if len(a) != 32 { // 20 bytes -> 32 base32 chars
		t.Errorf("secret length = %d, want 32", len(a))
	}
}

func TestProvisioningURI(t *testing.T) {
	p := NewTOTP()
	uri := p.ProvisioningURI("alice@example.com", "Keyfold", "JBSWY3DPEHPK3PXP")
	if !strings.HasPrefix(uri, "otpauth://totp/Keyfold:alice@example.com?") {
		t.Errorf("unexpected uri %q", uri)
	}
	if !strings.Contains(uri, "secret=JBSWY3DPEHPK3PXP") || !strings.Contains(uri, "issuer=Keyfold") {
		t.Errorf("uri missing parameters: %q", uri)
	}
}

func TestVerify(t *testing.T) {
	p := NewTOTP()
	secret, err := p.GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !p.Verify(code, secret) {
		t.Error("freshly generated code should verify")
	}
	if p.Verify("000000", secret) && code != "000000" {
		t.Error("wrong code must not verify")
	}
}
