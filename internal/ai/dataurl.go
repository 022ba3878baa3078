package ai

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// DataURL encodes raw image bytes as a base64 data URL.
func DataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL decodes a base64 data URL. A bare base64 payload is accepted and its
// MIME type sniffed from the decoded bytes.
func ParseDataURL(image string) (mimeType string, data []byte, err error) {
	payload := strings.TrimSpace(image)
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, fmt.Errorf("data url has no payload")
		}
		if !strings.HasSuffix(header, ";base64") {
			return "", nil, fmt.Errorf("data url is not base64 encoded")
		}
		mimeType = strings.TrimSuffix(header, ";base64")
		payload = body
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return mimeType, data, nil
}

// asDataURL makes sure image is a data URL, which the chat APIs require.
func asDataURL(image string) (string, error) {
	if strings.HasPrefix(strings.TrimSpace(image), "data:") {
		return strings.TrimSpace(image), nil
	}
	_, data, err := ParseDataURL(image)
	if err != nil {
		return "", err
	}
	return DataURL(data), nil
}
