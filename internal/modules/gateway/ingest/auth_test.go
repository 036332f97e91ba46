package ingest

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"net/http"
	"testing"

	"github.com/flowhook/core/internal/models"
)

func signBody(newHash func() hash.Hash, secret string, body []byte) string {
	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func deliveryWith(headers map[string]string, body []byte) *Delivery {
	h := make(map[string]interface{}, len(headers))
	for k, v := range headers {
		h[http.CanonicalHeaderKey(k)] = v
	}
	return &Delivery{Headers: h, RawBody: body, SourceIP: "203.0.113.7"}
}

func verify(t *testing.T, cfg *models.WebhookConfigModel, d *Delivery) (bool, string) {
	t.Helper()
	auth, err := authenticatorFor(cfg)
	if err != nil {
		t.Fatalf("authenticatorFor: %v", err)
	}
	return auth.verify(d)
}

func TestAuthToken(t *testing.T) {
	cfg := &models.WebhookConfigModel{
		AuthType:   models.AuthTypeToken,
		AuthConfig: map[string]interface{}{"expected_token": "tok_123"},
	}

	cases := []struct {
		name   string
		header string
		ok     bool
	}{
		{"bearer prefix", "Bearer tok_123", true},
		{"raw token", "tok_123", true},
		{"wrong token", "tok_999", false},
		{"trailing space must fail", "tok_123 ", false},
		{"leading space must fail", " tok_123", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, _ := verify(t, cfg, deliveryWith(map[string]string{"Authorization": tc.header}, nil))
			if ok != tc.ok {
				t.Fatalf("expected ok=%v for %q", tc.ok, tc.header)
			}
		})
	}

	t.Run("missing header", func(t *testing.T) {
		ok, reason := verify(t, cfg, deliveryWith(nil, nil))
		if ok || reason != reasonMissingToken {
			t.Fatalf("expected missing_token, got ok=%v reason=%q", ok, reason)
		}
	})
}

func TestAuthTokenFallsBackToSecretKey(t *testing.T) {
	cfg := &models.WebhookConfigModel{
		AuthType:  models.AuthTypeToken,
		SecretKey: "shh",
	}
	ok, _ := verify(t, cfg, deliveryWith(map[string]string{"Authorization": "Bearer shh"}, nil))
	if !ok {
		t.Fatalf("expected secret_key fallback to validate")
	}
}

func TestAuthHeader(t *testing.T) {
	cfg := &models.WebhookConfigModel{
		AuthType: models.AuthTypeHeader,
		AuthConfig: map[string]interface{}{
			"header_name":  "X-Custom-Secret",
			"header_value": "v1",
		},
	}

	if ok, _ := verify(t, cfg, deliveryWith(map[string]string{"X-Custom-Secret": "v1"}, nil)); !ok {
		t.Fatalf("expected matching header to validate")
	}
	if ok, _ := verify(t, cfg, deliveryWith(map[string]string{"X-Custom-Secret": "v2"}, nil)); ok {
		t.Fatalf("expected mismatched header to fail")
	}
	if ok, reason := verify(t, cfg, deliveryWith(nil, nil)); ok || reason != reasonMissingHeader {
		t.Fatalf("expected missing_header, got ok=%v reason=%q", ok, reason)
	}
}

func TestAuthHeaderDefaultName(t *testing.T) {
	cfg := &models.WebhookConfigModel{AuthType: models.AuthTypeHeader, SecretKey: "shh"}
	if ok, _ := verify(t, cfg, deliveryWith(map[string]string{"X-Webhook-Secret": "shh"}, nil)); !ok {
		t.Fatalf("expected default X-Webhook-Secret header to validate against secret_key")
	}
}

func TestAuthHMAC(t *testing.T) {
	body := []byte(`{"id":"abc123","value":42}`)
	secret := "hmac-secret"
	sig := signBody(sha256.New, secret, body)

	cfg := &models.WebhookConfigModel{
		AuthType:   models.AuthTypeHMAC,
		AuthConfig: map[string]interface{}{"hmac_secret": secret},
	}

	t.Run("valid with prefix", func(t *testing.T) {
		ok, _ := verify(t, cfg, deliveryWith(map[string]string{"X-Signature-256": "sha256=" + sig}, body))
		if !ok {
			t.Fatalf("expected prefixed signature to validate")
		}
	})
	t.Run("valid without prefix", func(t *testing.T) {
		ok, _ := verify(t, cfg, deliveryWith(map[string]string{"X-Signature-256": sig}, body))
		if !ok {
			t.Fatalf("expected bare signature to validate")
		}
	})
	t.Run("mutated body fails", func(t *testing.T) {
		mutated := append([]byte{}, body...)
		mutated[0] ^= 1
		ok, reason := verify(t, cfg, deliveryWith(map[string]string{"X-Signature-256": sig}, mutated))
		if ok || reason != reasonInvalidSignature {
			t.Fatalf("expected invalid_signature, got ok=%v reason=%q", ok, reason)
		}
	})
	t.Run("wrong secret fails", func(t *testing.T) {
		wrong := signBody(sha256.New, "other", body)
		ok, _ := verify(t, cfg, deliveryWith(map[string]string{"X-Signature-256": wrong}, body))
		if ok {
			t.Fatalf("expected signature from wrong secret to fail")
		}
	})
	t.Run("missing signature fails", func(t *testing.T) {
		ok, reason := verify(t, cfg, deliveryWith(nil, body))
		if ok || reason != reasonMissingSignature {
			t.Fatalf("expected missing_signature, got ok=%v reason=%q", ok, reason)
		}
	})
	t.Run("missing secret fails", func(t *testing.T) {
		empty := &models.WebhookConfigModel{AuthType: models.AuthTypeHMAC}
		ok, reason := verify(t, empty, deliveryWith(map[string]string{"X-Signature-256": sig}, body))
		if ok || reason != reasonMissingHMACSecret {
			t.Fatalf("expected missing_hmac_secret, got ok=%v reason=%q", ok, reason)
		}
	})
}

func TestAuthHMACSha1(t *testing.T) {
	body := []byte("payload")
	cfg := &models.WebhookConfigModel{
		AuthType: models.AuthTypeHMAC,
		AuthConfig: map[string]interface{}{
			"hmac_secret":      "s1",
			"hmac_algorithm":   "sha1",
			"signature_header": "X-Hub-Signature",
		},
	}
	sig := signBody(sha1.New, "s1", body)
	ok, _ := verify(t, cfg, deliveryWith(map[string]string{"X-Hub-Signature": "sha1=" + sig}, body))
	if !ok {
		t.Fatalf("expected sha1 signature to validate")
	}
}

func TestAuthIPWhitelist(t *testing.T) {
	cases := []struct {
		name string
		list []interface{}
		ip   string
		ok   bool
	}{
		{"listed ip", []interface{}{"203.0.113.7"}, "203.0.113.7", true},
		{"wildcard", []interface{}{"*"}, "198.51.100.1", true},
		{"unlisted ip", []interface{}{"203.0.113.7"}, "198.51.100.1", false},
		{"empty list", []interface{}{}, "203.0.113.7", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &models.WebhookConfigModel{
				AuthType:   models.AuthTypeIPWhitelist,
				AuthConfig: map[string]interface{}{"ip_whitelist": tc.list},
			}
			d := deliveryWith(nil, nil)
			d.SourceIP = tc.ip
			ok, _ := verify(t, cfg, d)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v for ip %s", tc.ok, tc.ip)
			}
		})
	}
}

func TestAuthBasic(t *testing.T) {
	cfg := &models.WebhookConfigModel{
		AuthType:   models.AuthTypeBasic,
		AuthConfig: map[string]interface{}{"username": "alice", "password": "pw1"},
	}
	basic := func(user, pass string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	}

	if ok, _ := verify(t, cfg, deliveryWith(map[string]string{"Authorization": basic("alice", "pw1")}, nil)); !ok {
		t.Fatalf("expected correct credentials to validate")
	}
	if ok, _ := verify(t, cfg, deliveryWith(map[string]string{"Authorization": basic("alice", "pw2")}, nil)); ok {
		t.Fatalf("expected wrong password to fail")
	}
	if ok, _ := verify(t, cfg, deliveryWith(map[string]string{"Authorization": basic("alice", "pw1 ")}, nil)); ok {
		t.Fatalf("expected whitespace difference to fail")
	}
	if ok, reason := verify(t, cfg, deliveryWith(nil, nil)); ok || reason != reasonMissingCredentials {
		t.Fatalf("expected missing_credentials, got ok=%v reason=%q", ok, reason)
	}
	if ok, _ := verify(t, cfg, deliveryWith(map[string]string{"Authorization": "Basic !!!"}, nil)); ok {
		t.Fatalf("expected undecodable credentials to fail")
	}
}

func TestAuthNoneAndEmptyType(t *testing.T) {
	for _, authType := range []string{models.AuthTypeNone, ""} {
		cfg := &models.WebhookConfigModel{AuthType: authType}
		if ok, _ := verify(t, cfg, deliveryWith(nil, nil)); !ok {
			t.Fatalf("expected auth type %q to pass", authType)
		}
	}
}

func TestUnknownAuthTypeFailsClosed(t *testing.T) {
	cfg := &models.WebhookConfigModel{AuthType: "oauth2"}
	if _, err := authenticatorFor(cfg); err == nil {
		t.Fatalf("expected unknown auth type to be a configuration error")
	}
	if err := ValidateAuthConfig(cfg); err == nil {
		t.Fatalf("expected ValidateAuthConfig to reject unknown auth type")
	}
}

func TestUnsupportedHMACAlgorithmRejected(t *testing.T) {
	cfg := &models.WebhookConfigModel{
		AuthType:   models.AuthTypeHMAC,
		AuthConfig: map[string]interface{}{"hmac_secret": "s", "hmac_algorithm": "md5"},
	}
	if err := ValidateAuthConfig(cfg); err == nil {
		t.Fatalf("expected md5 to be rejected")
	}
}
