package security

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/venuescout/auth-service/internal/ports"
)

const (
	totpPeriod = 30
	// maxSkew caps the verification window at ±2 steps. A wider window
	// materially weakens the 6-digit code's effective secrecy.
	maxSkew = 2

	qrSizePixels = 256
)

// TOTPEngine generates enrollment secrets and verifies 30-second codes with
// a narrow, symmetric tolerance window.
type TOTPEngine struct {
	issuer string
	skew   uint
}

// NewTOTPEngine builds an engine for the given issuer label. skew is the
// number of adjacent steps tolerated on each side of now; zero means the
// default of one step.
func NewTOTPEngine(issuer string, skew uint) *TOTPEngine {
	if skew == 0 {
		skew = 1
	}
	if skew > maxSkew {
		skew = maxSkew
	}
	return &TOTPEngine{issuer: issuer, skew: skew}
}

func (e *TOTPEngine) GenerateSecret(accountLabel string) (ports.TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: accountLabel,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return ports.TOTPEnrollment{}, fmt.Errorf("generate totp secret: %w", err)
	}

	img, err := key.Image(qrSizePixels, qrSizePixels)
	if err != nil {
		return ports.TOTPEnrollment{}, fmt.Errorf("render qr image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ports.TOTPEnrollment{}, fmt.Errorf("encode qr png: %w", err)
	}

	return ports.TOTPEnrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCodeDataURI:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

func (e *TOTPEngine) Verify(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      e.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
