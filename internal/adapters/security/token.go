package security

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const (
	defaultTokenBytes = 32
	backupCodeBytes   = 4 // 8 hex chars per code
)

// RandomTokenGenerator draws opaque tokens and backup codes from
// crypto/rand. Codes are not explicitly deduplicated; at 32 bits each, a
// collision inside one batch is birthday-bound negligible.
type RandomTokenGenerator struct{}

func (RandomTokenGenerator) Token(byteLen int) string {
	if byteLen <= 0 {
		byteLen = defaultTokenBytes
	}
	raw := make([]byte, byteLen)
	_, _ = rand.Read(raw)
	return hex.EncodeToString(raw)
}

func (RandomTokenGenerator) BackupCodes(count int) []string {
	if count <= 0 {
		count = 10
	}
	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		raw := make([]byte, backupCodeBytes)
		_, _ = rand.Read(raw)
		codes = append(codes, strings.ToUpper(hex.EncodeToString(raw)))
	}
	return codes
}
