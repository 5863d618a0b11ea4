package services

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// errReader fails partway through, like a file handle the browser revoked.
type errReader struct{}

func (errReader) Read(p []byte) (int, error) { return 0, errors.New("read failed") }

func TestEncode_RoundTrip(t *testing.T) {
	e := NewEncoder(1024)

	// Ten bytes starting with the GIF magic so sniffing sees an image.
	raw := []byte("GIF87aabcd")
	att, err := e.Encode(strings.NewReader(string(raw)), "clover.gif", "image/gif")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if att.MIMEType != "image/gif" {
		t.Errorf("Expected mime type image/gif, got %q", att.MIMEType)
	}

	decoded, err := base64.StdEncoding.DecodeString(att.Data)
	if err != nil {
		t.Fatalf("Payload is not valid base64: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Errorf("Expected decoded payload %q, got %q", raw, decoded)
	}
}

func TestEncode_UnreadableFile(t *testing.T) {
	e := NewEncoder(1024)

	_, err := e.Encode(errReader{}, "broken.png", "image/png")
	if err == nil {
		t.Fatal("Expected error for unreadable file, got nil")
	}

	var attErr *AttachmentError
	if !errors.As(err, &attErr) {
		t.Errorf("Expected *AttachmentError, got %T", err)
	}
}

func TestEncode_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		data     string
		declared string
	}{
		{"empty file", 1024, "", "image/png"},
		{"over size limit", 8, "GIF87aabcd", "image/gif"},
		{"not an image", 1024, "just some plain text here", "text/plain"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEncoder(tc.maxBytes)
			_, err := e.Encode(strings.NewReader(tc.data), "photo", tc.declared)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			var attErr *AttachmentError
			if !errors.As(err, &attErr) {
				t.Errorf("Expected *AttachmentError, got %T", err)
			}
		})
	}
}

func TestEncode_FallsBackToDeclaredMime(t *testing.T) {
	e := NewEncoder(1024)

	// Bytes that sniff as application/octet-stream
	raw := string([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})
	att, err := e.Encode(strings.NewReader(raw), "photo.webp", "image/webp")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if att.MIMEType != "image/webp" {
		t.Errorf("Expected declared mime image/webp, got %q", att.MIMEType)
	}
}
