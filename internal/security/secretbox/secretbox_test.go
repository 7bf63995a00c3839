package secretbox

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"
)

func rawKey() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i + 1)
	}
	return k
}

func TestSealOpen(t *testing.T) {
	b, err := New(base64.StdEncoding.EncodeToString(rawKey()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	msg := "postgres://acme:secret@db/acme"
	ct, err := b.Seal(msg)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if strings.Contains(ct, "secret") {
		t.Fatalf("ciphertext leaks plaintext: %q", ct)
	}
	pt, err := b.Open(ct)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if pt != msg {
		t.Fatalf("got %q want %q", pt, msg)
	}

	ct2, _ := b.Seal(msg)
	if ct2 == ct {
		t.Fatal("nonce reused")
	}
}

func TestKeyFormats(t *testing.T) {
	k := rawKey()
	for name, s := range map[string]string{
		"base64":     base64.StdEncoding.EncodeToString(k),
		"base64-raw": base64.RawStdEncoding.EncodeToString(k),
		"hex":        hex.EncodeToString(k),
		"raw":        strings.Repeat("x", 32),
	} {
		if _, err := New(s); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := New("short"); err == nil {
		t.Error("short key accepted")
	}
}

func TestOpen_Tampered(t *testing.T) {
	b, _ := New(hex.EncodeToString(rawKey()))
	other, _ := New(strings.Repeat("z", 32))
	ct, _ := b.Seal("hola")

	if _, err := other.Open(ct); err == nil {
		t.Error("opened with wrong key")
	}
	if _, err := b.Open("no-separator"); err != ErrFormat {
		t.Errorf("err = %v, want ErrFormat", err)
	}
	nonce, _, _ := strings.Cut(ct, "|")
	if _, err := b.Open(nonce + "|" + base64.StdEncoding.EncodeToString([]byte("garbage-garbage-garbage"))); err == nil {
		t.Error("tampered ciphertext accepted")
	}
}
