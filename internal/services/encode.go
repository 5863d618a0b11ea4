package services

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"warren-backend/internal/models"
)

// Encoder turns an uploaded photo into an inline attachment the assistant
// can receive. Failures always propagate to the caller; a submission with a
// broken photo is aborted, never sent photoless.
type Encoder struct {
	maxBytes int64
}

func NewEncoder(maxBytes int64) *Encoder {
	return &Encoder{maxBytes: maxBytes}
}

// Encode reads the file, sniffs its mime type from magic bytes and returns
// the base64 payload. declaredMime is only consulted when sniffing is
// inconclusive.
func (e *Encoder) Encode(r io.Reader, filename, declaredMime string) (*models.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return nil, &AttachmentError{Message: fmt.Sprintf("could not read %s: %v", filename, err)}
	}
	if int64(len(data)) > e.maxBytes {
		return nil, &AttachmentError{Message: fmt.Sprintf("photo exceeds the %d byte limit", e.maxBytes)}
	}
	if len(data) == 0 {
		return nil, &AttachmentError{Message: "photo file is empty"}
	}

	mimeType := http.DetectContentType(data)
	if mimeType == "application/octet-stream" && declaredMime != "" {
		mimeType = declaredMime
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, &AttachmentError{Message: fmt.Sprintf("unsupported photo type %s", mimeType)}
	}

	return &models.Attachment{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}
