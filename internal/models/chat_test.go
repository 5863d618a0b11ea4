package models

import (
	"errors"
	"testing"
)

func TestNewTurn_RequiresContent(t *testing.T) {
	tests := []struct {
		name    string
		parts   []Part
		wantErr bool
	}{
		{"no parts", nil, true},
		{"empty text", []Part{TextPart{Text: "   "}}, true},
		{"empty attachment", []Part{AttachmentPart{}}, true},
		{"text only", []Part{TextPart{Text: "hello"}}, false},
		{"attachment only", []Part{AttachmentPart{MIMEType: "image/png", Data: "aGk="}}, false},
		{"empty text plus attachment", []Part{TextPart{}, AttachmentPart{MIMEType: "image/png", Data: "aGk="}}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			turn, err := NewTurn(tc.parts...)
			if tc.wantErr {
				if !errors.Is(err, ErrEmptyTurn) {
					t.Errorf("Expected ErrEmptyTurn, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected turn, got error %v", err)
			}
			if len(turn.Parts) != len(tc.parts) {
				t.Errorf("Expected %d parts preserved, got %d", len(tc.parts), len(turn.Parts))
			}
		})
	}
}

func TestAttachmentPart_Bytes(t *testing.T) {
	p := AttachmentPart{MIMEType: "image/png", Data: "aGVsbG8="}

	data, err := p.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Expected decoded payload 'hello', got %q", data)
	}

	bad := AttachmentPart{MIMEType: "image/png", Data: "not base64!!"}
	if _, err := bad.Bytes(); err == nil {
		t.Error("Expected error for invalid base64")
	}
}
