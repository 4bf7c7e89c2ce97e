package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP_DirectConnection(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.7:54321"

	ip := ExtractClientIP(req, &IPConfig{})
	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIP_SpoofedHeaderFromUntrustedPeer(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.7:54321"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	req.Header.Set("X-Real-IP", "198.51.100.2")

	// No trusted proxies configured, so forwarding headers are ignored.
	ip := ExtractClientIP(req, &IPConfig{})
	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIP_ForwardedForFromTrustedProxy(t *testing.T) {
	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.1.2.3")

	ip := ExtractClientIP(req, cfg)
	assert.Equal(t, "198.51.100.1", ip)
}

func TestExtractClientIP_RealIPFallback(t *testing.T) {
	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Real-IP", "198.51.100.9")

	ip := ExtractClientIP(req, cfg)
	assert.Equal(t, "198.51.100.9", ip)
}

func TestExtractClientIP_GarbageForwardedEntriesSkipped(t *testing.T) {
	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "not-an-ip, 198.51.100.1")

	ip := ExtractClientIP(req, cfg)
	assert.Equal(t, "198.51.100.1", ip)
}

func TestExtractClientIP_NilConfig(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.7:54321"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")

	ip := ExtractClientIP(req, nil)
	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIP_IPv6(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"

	ip := ExtractClientIP(req, &IPConfig{})
	assert.Equal(t, "2001:db8::1", ip)
}

func TestIsTrustedProxy_InvalidCIDRSkipped(t *testing.T) {
	assert.False(t, isTrustedProxy("10.1.2.3", []string{"not-a-cidr"}))
	assert.True(t, isTrustedProxy("10.1.2.3", []string{"not-a-cidr", "10.0.0.0/8"}))
}
