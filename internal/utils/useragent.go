package utils

import (
	"context"

	ua "github.com/mssola/user_agent"
)

type clientInfoKey struct{}

// WithClientInfo attaches a device summary to the request context so
// services can include it in audit entries.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFromContext retrieves the device summary, if one was attached
func ClientInfoFromContext(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info, ok
}

// ClientInfo is the device summary attached to checkout audit entries
type ClientInfo struct {
	DeviceType string `json:"device_type"`
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
}

// ParseUserAgent extracts a device summary from a User-Agent header
func ParseUserAgent(userAgent string) ClientInfo {
	if userAgent == "" {
		return ClientInfo{DeviceType: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	parser := ua.New(userAgent)

	info := ClientInfo{
		IsBot: parser.Bot(),
	}
	if parser.Mobile() {
		info.DeviceType = "mobile"
	} else {
		info.DeviceType = "desktop"
	}

	osInfo := parser.OSInfo()
	if osInfo.Name != "" {
		info.OS = osInfo.Name
		if osInfo.Version != "" {
			info.OS += " " + osInfo.Version
		}
	} else {
		info.OS = "Unknown"
	}

	browser, _ := parser.Browser()
	if browser == "" {
		browser = "Unknown"
	}
	info.Browser = browser

	return info
}
