package services

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// UnknownAddress stands in for an address that could not be resolved.
const UnknownAddress = "unknown"

const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// NameBook remembers which name was first used from an address.
type NameBook interface {
	Remember(ctx context.Context, ip, name string) error
	Lookup(ctx context.Context, ip string) (string, error)
}

// Identity is what the server knows about a client before login.
type Identity struct {
	IP        string `json:"ip"`
	Device    string `json:"device"`
	KnownName string `json:"knownName,omitempty"`
}

// IdentityService resolves a best-effort public address for a client. When
// the connection comes from a private network the configured lookup service
// is asked instead; any failure yields UnknownAddress.
type IdentityService struct {
	log       *zap.Logger
	client    *resty.Client
	lookupURL string
	names     NameBook
}

func NewIdentityService(log *zap.Logger, lookupURL string, timeout time.Duration, names NameBook) *IdentityService {
	return &IdentityService{
		log:       log,
		client:    resty.New().SetTimeout(timeout),
		lookupURL: lookupURL,
		names:     names,
	}
}

type ipifyResponse struct {
	IP string `json:"ip"`
}

// Resolve never fails; it degrades to UnknownAddress.
func (s *IdentityService) Resolve(ctx context.Context, clientIP, userAgent string) Identity {
	id := Identity{IP: s.address(ctx, clientIP), Device: DeviceClass(userAgent)}

	if id.IP != UnknownAddress && s.names != nil {
		name, err := s.names.Lookup(ctx, id.IP)
		if err != nil {
			s.log.Warn("Known name lookup failed", zap.String("ip", id.IP), zap.Error(err))
		}
		id.KnownName = name
	}
	return id
}

// RememberName stores name for ip if the address has none yet.
func (s *IdentityService) RememberName(ctx context.Context, ip, name string) {
	if ip == UnknownAddress || s.names == nil {
		return
	}
	if err := s.names.Remember(ctx, ip, name); err != nil {
		s.log.Warn("Failed to remember name", zap.String("ip", ip), zap.Error(err))
	}
}

func (s *IdentityService) address(ctx context.Context, clientIP string) string {
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip != nil && isPublic(ip) {
		return ip.String()
	}
	if s.lookupURL == "" {
		if ip == nil {
			return UnknownAddress
		}
		return ip.String()
	}

	var out ipifyResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(s.lookupURL)
	if err != nil {
		s.log.Warn("Address lookup failed", zap.Error(err))
		return UnknownAddress
	}
	if resp.IsError() || net.ParseIP(out.IP) == nil {
		s.log.Warn("Address lookup returned no address", zap.Int("status", resp.StatusCode()))
		return UnknownAddress
	}
	return out.IP
}

func isPublic(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast())
}

// DeviceClass buckets a User-Agent into mobile, tablet or desktop.
func DeviceClass(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"),
		strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return DeviceTablet
	case strings.Contains(ua, "mobi"), strings.Contains(ua, "iphone"), strings.Contains(ua, "ipod"),
		strings.Contains(ua, "android"), strings.Contains(ua, "blackberry"), strings.Contains(ua, "opera mini"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}
