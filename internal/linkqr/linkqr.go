// Package linkqr renders connection links as QR codes for front-ends:
// PNG bytes for graphical surfaces, compact half-block text for terminals.
package linkqr

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// PNG renders a connection link as a PNG image of the given pixel size.
func PNG(link string, size int) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encoding link qr: %w", err)
	}
	return png, nil
}

// ASCII renders a connection link as a QR code built from Unicode
// half-block characters, two bitmap rows per text line.
func ASCII(link string) (string, error) {
	qr, err := qrcode.New(link, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("encoding link qr: %w", err)
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top && !bot:
				sb.WriteRune('▀')
			case !top && bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String(), nil
}
