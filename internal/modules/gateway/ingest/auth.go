package ingest

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/flowhook/core/internal/models"
)

// Machine-readable rejection reasons persisted with auth failures.
const (
	reasonMissingToken        = "missing_token"
	reasonInvalidToken        = "invalid_token"
	reasonMissingHeader       = "missing_header"
	reasonInvalidHeader       = "invalid_header"
	reasonMissingSignature    = "missing_signature"
	reasonInvalidSignature    = "invalid_signature"
	reasonMissingHMACSecret   = "missing_hmac_secret"
	reasonIPNotAllowed        = "ip_not_allowed"
	reasonMissingCredentials  = "missing_credentials"
	reasonInvalidCredentials  = "invalid_credentials"
	reasonUnsupportedAuthType = "unsupported_auth_type"
)

// ValidateAuthConfig reports whether a config's auth settings parse
// into a known mode. Used by the admin API so misconfigured auth is
// caught at write time instead of at delivery time.
func ValidateAuthConfig(cfg *models.WebhookConfigModel) error {
	_, err := authenticatorFor(cfg)
	return err
}

// authenticator is one parsed auth mode. Verify returns ok or a
// machine-readable reason for the audit trail.
type authenticator interface {
	verify(d *Delivery) (ok bool, reason string)
}

// authenticatorFor parses a config's auth settings into a typed mode.
// Unrecognized auth types are a configuration error, not a pass.
func authenticatorFor(cfg *models.WebhookConfigModel) (authenticator, error) {
	ac := cfg.AuthConfig

	switch cfg.AuthType {
	case models.AuthTypeNone, "":
		return authNone{}, nil

	case models.AuthTypeToken:
		expected := configString(ac, "expected_token")
		if expected == "" {
			expected = cfg.SecretKey
		}
		header := configString(ac, "token_header")
		if header == "" {
			header = "Authorization"
		}
		return authToken{header: header, expected: expected}, nil

	case models.AuthTypeHeader:
		expected := configString(ac, "header_value")
		if expected == "" {
			expected = cfg.SecretKey
		}
		name := configString(ac, "header_name")
		if name == "" {
			name = "X-Webhook-Secret"
		}
		return authHeader{name: name, expected: expected}, nil

	case models.AuthTypeHMAC:
		secret := configString(ac, "hmac_secret")
		if secret == "" {
			secret = cfg.SecretKey
		}
		header := configString(ac, "signature_header")
		if header == "" {
			header = "X-Signature-256"
		}
		algo := strings.ToLower(configString(ac, "hmac_algorithm"))
		if algo == "" {
			algo = "sha256"
		}
		if algo != "sha1" && algo != "sha256" {
			return nil, fmt.Errorf("unsupported hmac algorithm %q", algo)
		}
		return authHMAC{header: header, secret: secret, algorithm: algo}, nil

	case models.AuthTypeIPWhitelist:
		return authIPWhitelist{allowed: configStrings(ac, "ip_whitelist")}, nil

	case models.AuthTypeBasic:
		return authBasic{
			username: configString(ac, "username"),
			password: configString(ac, "password"),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported auth type %q", cfg.AuthType)
	}
}

type authNone struct{}

func (authNone) verify(*Delivery) (bool, string) { return true, "" }

// authToken compares a bearer-style header value against the expected
// token. No trimming beyond the Bearer prefix: whitespace differences
// must fail.
type authToken struct {
	header   string
	expected string
}

func (a authToken) verify(d *Delivery) (bool, string) {
	got := d.header(a.header)
	if got == "" {
		return false, reasonMissingToken
	}
	got = strings.TrimPrefix(got, "Bearer ")
	if !secureEqual(got, a.expected) {
		return false, reasonInvalidToken
	}
	return true, ""
}

// authHeader compares a shared secret carried in a fixed header.
type authHeader struct {
	name     string
	expected string
}

func (a authHeader) verify(d *Delivery) (bool, string) {
	got := d.header(a.name)
	if got == "" {
		return false, reasonMissingHeader
	}
	if !secureEqual(got, a.expected) {
		return false, reasonInvalidHeader
	}
	return true, ""
}

// authHMAC verifies a hex digest computed over the raw body bytes.
type authHMAC struct {
	header    string
	secret    string
	algorithm string
}

func (a authHMAC) verify(d *Delivery) (bool, string) {
	if a.secret == "" {
		return false, reasonMissingHMACSecret
	}
	received := d.header(a.header)
	if received == "" {
		return false, reasonMissingSignature
	}
	received = strings.TrimPrefix(received, "sha256=")
	received = strings.TrimPrefix(received, "sha1=")

	var newHash func() hash.Hash
	switch a.algorithm {
	case "sha1":
		newHash = sha1.New
	default:
		newHash = sha256.New
	}
	mac := hmac.New(newHash, []byte(a.secret))
	mac.Write(d.RawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !secureEqual(strings.ToLower(received), expected) {
		return false, reasonInvalidSignature
	}
	return true, ""
}

// authIPWhitelist requires the source IP to appear in the allow list.
// The wildcard "*" admits any source.
type authIPWhitelist struct {
	allowed []string
}

func (a authIPWhitelist) verify(d *Delivery) (bool, string) {
	for _, entry := range a.allowed {
		if entry == "*" || entry == d.SourceIP {
			return true, ""
		}
	}
	return false, reasonIPNotAllowed
}

// authBasic compares HTTP Basic credentials exactly.
type authBasic struct {
	username string
	password string
}

func (a authBasic) verify(d *Delivery) (bool, string) {
	raw := d.header("Authorization")
	if !strings.HasPrefix(raw, "Basic ") {
		return false, reasonMissingCredentials
	}
	decoded, err := base64.StdEncoding.DecodeString(raw[len("Basic "):])
	if err != nil {
		return false, reasonInvalidCredentials
	}
	user, pass, found := strings.Cut(string(decoded), ":")
	if !found {
		return false, reasonInvalidCredentials
	}
	if !secureEqual(user, a.username) || !secureEqual(pass, a.password) {
		return false, reasonInvalidCredentials
	}
	return true, ""
}

// secureEqual is a constant-time string compare.
func secureEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

func configString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func configStrings(m map[string]interface{}, key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
