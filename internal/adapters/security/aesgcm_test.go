package security

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/venuescout/auth-service/internal/domain"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0xA7}, 32)
}

func TestAESGCMRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := NewAESGCMCipher(testKey())
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	plaintext := []byte("JBSWY3DPEHPK3PXP")
	blob, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if got := strings.Count(blob, "."); got != 2 {
		t.Fatalf("blob should have exactly 3 dot-separated parts, got %d separators", got)
	}

	decrypted, err := c.Decrypt(blob)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", decrypted, plaintext)
	}
}

func TestAESGCMNonceFreshness(t *testing.T) {
	t.Parallel()

	c, err := NewAESGCMCipher(testKey())
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	first, err := c.Encrypt([]byte("same plaintext"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	second, err := c.Encrypt([]byte("same plaintext"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if first == second {
		t.Fatalf("two encryptions of the same plaintext must not produce the same blob")
	}
}

func TestAESGCMRejectsShortKey(t *testing.T) {
	t.Parallel()

	if _, err := NewAESGCMCipher([]byte("too short")); !errors.Is(err, domain.ErrEncryptionKeyTooShort) {
		t.Fatalf("expected ErrEncryptionKeyTooShort, got %v", err)
	}
}

func TestAESGCMRejectsMalformedBlob(t *testing.T) {
	t.Parallel()

	c, err := NewAESGCMCipher(testKey())
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	for _, blob := range []string{
		"",
		"one-part",
		"two.parts",
		"a.b.c.d",
		"!!!.!!!.!!!",
	} {
		if _, err := c.Decrypt(blob); !errors.Is(err, domain.ErrInvalidCiphertext) {
			t.Fatalf("blob %q: expected ErrInvalidCiphertext, got %v", blob, err)
		}
	}
}

func TestAESGCMDetectsTampering(t *testing.T) {
	t.Parallel()

	c, err := NewAESGCMCipher(testKey())
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	blob, err := c.Encrypt([]byte("secret material"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	parts := strings.Split(blob, ".")
	flipped := []byte(parts[1])
	if flipped[0] == 'A' {
		flipped[0] = 'B'
	} else {
		flipped[0] = 'A'
	}
	tampered := parts[0] + "." + string(flipped) + "." + parts[2]

	if _, err := c.Decrypt(tampered); !errors.Is(err, domain.ErrCryptoIntegrity) {
		t.Fatalf("expected ErrCryptoIntegrity on tampered ciphertext, got %v", err)
	}
}

func TestAESGCMWrongKeyFailsIntegrity(t *testing.T) {
	t.Parallel()

	c1, err := NewAESGCMCipher(testKey())
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	c2, err := NewAESGCMCipher(bytes.Repeat([]byte{0x1F}, 32))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	blob, err := c1.Encrypt([]byte("secret material"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := c2.Decrypt(blob); !errors.Is(err, domain.ErrCryptoIntegrity) {
		t.Fatalf("expected ErrCryptoIntegrity under wrong key, got %v", err)
	}
}
