package tokens

import (
	"encoding/base64"
	"strconv"
	"testing"
)

func TestSHA256Base64_KnownVector(t *testing.T) {
	// sha256("abc")
	const want = "ungWv48Bz+pBQUDeXa4iI7ADYaOWF3qctBD/YfIAFa0="
	if got := SHA256Base64("abc"); got != want {
		t.Fatalf("SHA256Base64(abc) = %q, want %q", got, want)
	}
	if SHA256Base64("abc") == SHA256Base64("abd") {
		t.Fatal("distinct inputs must not collide")
	}
}

func TestRandomBase64_Length(t *testing.T) {
	s, err := RandomBase64(RefreshTokenBytes)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("not std base64: %v", err)
	}
	if len(raw) != RefreshTokenBytes {
		t.Fatalf("decoded len = %d, want %d", len(raw), RefreshTokenBytes)
	}

	other, _ := RandomBase64(RefreshTokenBytes)
	if s == other {
		t.Fatal("two random tokens should differ")
	}
}

func TestGenerateOpaqueToken_URLSafe(t *testing.T) {
	s, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := base64.RawURLEncoding.DecodeString(s); err != nil {
		t.Fatalf("not raw url base64: %v", err)
	}
}

func TestGenerateOTP_Range(t *testing.T) {
	for i := 0; i < 2000; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatal(err)
		}
		if len(otp) != 6 {
			t.Fatalf("otp %q: want 6 digits", otp)
		}
		n, err := strconv.Atoi(otp)
		if err != nil {
			t.Fatalf("otp %q not numeric", otp)
		}
		if n < otpMin || n > otpMax {
			t.Fatalf("otp %d out of range", n)
		}
	}
}

func TestEqualDigest(t *testing.T) {
	a := SHA256Base64("123456")
	if !EqualDigest(a, SHA256Base64("123456")) {
		t.Fatal("same input should match")
	}
	if EqualDigest(a, SHA256Base64("654321")) {
		t.Fatal("different input should not match")
	}
	if EqualDigest(a, "") {
		t.Fatal("empty must not match")
	}
}
