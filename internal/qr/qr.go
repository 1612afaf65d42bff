// Package qr renders QR codes two ways: a block string for the terminal and
// a base64 PNG snapshot for the backend's qrImage field.
package qr

import (
	"encoding/base64"
	"fmt"
	"image/color"
	"regexp"

	qrcode "github.com/skip2/go-qrcode"
)

const snapshotSize = 256 // px, matches what the hosted backend expects in lists

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidHexColor reports whether s is a #rrggbb color string.
func ValidHexColor(s string) bool { return hexColorRe.MatchString(s) }

// ParseHexColor converts "#rrggbb" into a color.RGBA.
func ParseHexColor(s string) (color.RGBA, error) {
	if !ValidHexColor(s) {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("parse hex color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Terminal renders text as a half-height block QR suitable for stdout.
func Terminal(text string) (string, error) {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return q.ToSmallString(false), nil
}

// SnapshotBase64 renders text as a PNG with the given colors and returns the
// base64 encoding, the client-side equivalent of capturing the on-screen QR.
func SnapshotBase64(text, fgHex, bgHex string) (string, error) {
	fg, err := ParseHexColor(fgHex)
	if err != nil {
		return "", err
	}
	bg, err := ParseHexColor(bgHex)
	if err != nil {
		return "", err
	}
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	q.ForegroundColor = fg
	q.BackgroundColor = bg
	png, err := q.PNG(snapshotSize)
	if err != nil {
		return "", fmt.Errorf("render qr png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
