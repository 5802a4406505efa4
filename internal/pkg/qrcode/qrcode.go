// Package qrcode renders event check-in links as PNG QR codes.
package qrcode

import (
	"fmt"
	"net/url"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered edge length in pixels
const DefaultSize = 256

// CheckInURL builds the link encoded in an event QR code
func CheckInURL(baseURL, secret string) string {
	return fmt.Sprintf("%s/api/v1/attendance/scan?secret=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(secret))
}

// PNG encodes content with 25% error correction
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content is empty")
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := goqrcode.Encode(content, goqrcode.High, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
