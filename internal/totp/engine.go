// Package totp implements the time-based one-time-password second factor:
// seed generation, provisioning URIs and QR images, code validation with a
// drift window, single-use recovery codes and the encrypted storage form of
// both secrets.
package totp

import (
	"bytes"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"image/png"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	SeedSize = 20
	Digits   = 6
	Period   = 30

	// DefaultSkew accepts codes up to two time steps (60s) away.
	DefaultSkew = 2

	DefaultIssuer = "PPE"

	defaultImageSize = 256
)

// Engine is safe for concurrent use once constructed.
type Engine struct {
	issuer    string
	skew      uint
	cipher    cryptox.SecretCipher
	now       func() time.Time
	rand      io.Reader
	imageSize int
}

type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSkew sets how many adjacent time steps are accepted on each side.
func WithSkew(steps uint) Option {
	return func(e *Engine) { e.skew = steps }
}

// WithRand replaces crypto/rand as the source for seeds and recovery codes.
func WithRand(r io.Reader) Option {
	return func(e *Engine) { e.rand = r }
}

// WithImageSize sets the QR image edge length in pixels.
func WithImageSize(px int) Option {
	return func(e *Engine) { e.imageSize = px }
}

// NewEngine returns an Engine labelling URIs with issuer and sealing secrets
// with c.
func NewEngine(issuer string, c cryptox.SecretCipher, opts ...Option) *Engine {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	e := &Engine{
		issuer:    issuer,
		skew:      DefaultSkew,
		cipher:    c,
		now:       time.Now,
		rand:      rand.Reader,
		imageSize: defaultImageSize,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

var seedEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSeed returns a fresh random 20-byte key, base32-encoded.
func (e *Engine) GenerateSeed() (string, error) {
	b := make([]byte, SeedSize)
	if _, err := io.ReadFull(e.rand, b); err != nil {
		return "", fmt.Errorf("generate seed: %w", err)
	}
	return seedEncoding.EncodeToString(b), nil
}

// ProvisioningURI builds the otpauth:// URI authenticator apps import.
func (e *Engine) ProvisioningURI(seed, accountLabel string) string {
	issuer := escape(e.issuer)
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s&algorithm=SHA1&digits=%d&period=%d",
		issuer, escape(accountLabel), seed, issuer, Digits, Period)
}

// escape percent-encodes everything outside the RFC 3986 unreserved set.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// RenderProvisioningImage encodes uri as a PNG QR code.
func (e *Engine) RenderProvisioningImage(uri string) ([]byte, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse provisioning uri: %w", err)
	}

	img, err := key.Image(e.imageSize, e.imageSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Engine) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    Period,
		Skew:      e.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// ValidateCode reports whether code matches seed at the current time within
// the skew window.
func (e *Engine) ValidateCode(seed, code string) bool {
	return e.ValidateCodeAt(seed, code, e.now())
}

// ValidateCodeAt is ValidateCode for an explicit instant.
func (e *Engine) ValidateCodeAt(seed, code string, at time.Time) bool {
	if !isSixDigits(code) || seed == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, seed, at, e.opts())
	return err == nil && ok
}

// CodeAt returns the code for seed at instant at.
func (e *Engine) CodeAt(seed string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(seed, at, e.opts())
}

func isSixDigits(code string) bool {
	if len(code) != Digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
