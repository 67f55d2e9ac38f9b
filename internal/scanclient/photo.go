// Package scanclient is the photo capture and submission side of food
// analysis: pick a photo, submit it once, render the estimate.
package scanclient

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Photo is a selected image held in memory. Selecting a photo never touches
// the network.
type Photo struct {
	Name     string
	MimeType string
	Data     []byte
}

// SelectPhoto reads the file at path. Size and type are not validated.
func SelectPhoto(path string) (*Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return &Photo{
		Name:     filepath.Base(path),
		MimeType: http.DetectContentType(data),
		Data:     data,
	}, nil
}

// Preview returns the photo as a data URI, ready for display.
func (p *Photo) Preview() string {
	return "data:" + p.MimeType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Base64 returns the payload submitted to the endpoint: the preview with its
// data URI prefix stripped.
func (p *Photo) Base64() string {
	preview := p.Preview()
	if idx := strings.Index(preview, ","); idx >= 0 {
		return preview[idx+1:]
	}
	return preview
}
