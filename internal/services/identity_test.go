package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type memNames struct {
	mu    sync.Mutex
	names map[string]string
}

func (m *memNames) Remember(_ context.Context, ip, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.names[ip]; !ok {
		m.names[ip] = name
	}
	return nil
}

func (m *memNames) Lookup(_ context.Context, ip string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.names[ip], nil
}

func TestResolvePublicAddressSkipsLookup(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	names := &memNames{names: map[string]string{"8.8.8.8": "bob"}}
	svc := NewIdentityService(zap.NewNop(), srv.URL, time.Second, names)

	id := svc.Resolve(context.Background(), "8.8.8.8", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	assert.Equal(t, "8.8.8.8", id.IP)
	assert.Equal(t, DeviceDesktop, id.Device)
	assert.Equal(t, "bob", id.KnownName)
	assert.False(t, called)
}

func TestResolvePrivateAddressUsesLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"203.0.113.7"}`))
	}))
	defer srv.Close()

	svc := NewIdentityService(zap.NewNop(), srv.URL, time.Second, nil)
	id := svc.Resolve(context.Background(), "192.168.1.20", "")
	assert.Equal(t, "203.0.113.7", id.IP)
}

func TestResolveLookupFailureIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	names := &memNames{names: map[string]string{}}
	svc := NewIdentityService(zap.NewNop(), srv.URL, time.Second, names)
	id := svc.Resolve(context.Background(), "127.0.0.1", "")
	assert.Equal(t, UnknownAddress, id.IP)

	svc.RememberName(context.Background(), id.IP, "bob")
	assert.Empty(t, names.names)

	svc = NewIdentityService(zap.NewNop(), "http://127.0.0.1:1", 200*time.Millisecond, nil)
	assert.Equal(t, UnknownAddress, svc.Resolve(context.Background(), "10.0.0.1", "").IP)
}

func TestResolveWithoutLookupKeepsClientAddress(t *testing.T) {
	svc := NewIdentityService(zap.NewNop(), "", time.Second, nil)
	assert.Equal(t, "10.0.0.5", svc.Resolve(context.Background(), "10.0.0.5", "").IP)
	assert.Equal(t, UnknownAddress, svc.Resolve(context.Background(), "", "").IP)
}

func TestRememberNameKeepsFirst(t *testing.T) {
	names := &memNames{names: map[string]string{}}
	svc := NewIdentityService(zap.NewNop(), "", time.Second, names)

	svc.RememberName(context.Background(), "8.8.4.4", "bob")
	svc.RememberName(context.Background(), "8.8.4.4", "eve")
	assert.Equal(t, "bob", svc.Resolve(context.Background(), "8.8.4.4", "").KnownName)
}

func TestDeviceClass(t *testing.T) {
	tests := map[string]string{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148":      DeviceMobile,
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Mobile Safari": DeviceMobile,
		"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)":                             DeviceTablet,
		"Mozilla/5.0 (Linux; Android 13; SM-X710) AppleWebKit/537.36 Safari":        DeviceTablet,
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15":         DeviceDesktop,
		"": DeviceDesktop,
	}
	for ua, want := range tests {
		assert.Equal(t, want, DeviceClass(ua), ua)
	}
}
