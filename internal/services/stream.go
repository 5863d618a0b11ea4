package services

import (
	"errors"
	"strings"

	"warren-backend/internal/models"
)

// ErrStreamDone signals normal exhaustion of a reply stream.
var ErrStreamDone = errors.New("reply stream exhausted")

// ReplyStream is a forward-only, finite, lazy sequence of text fragments.
// Next returns ErrStreamDone after the last fragment.
type ReplyStream interface {
	Next() (string, error)
}

// StreamConsumer drains a reply stream into a transcript entry. Every
// fragment triggers a full re-render of the accumulated text rather than a
// diff; replies are short and correctness is simpler this way.
type StreamConsumer struct {
	renderer *Renderer
}

func NewStreamConsumer(renderer *Renderer) *StreamConsumer {
	return &StreamConsumer{renderer: renderer}
}

// Consume streams fragments into entry until exhaustion or failure. On
// failure the partial text already rendered stays in place and a distinct
// error entry is appended, so the visitor always sees what arrived plus an
// explicit notice, never a silently empty reply. When nothing arrived at
// all, the reply entry is dropped and only the error entry remains.
func (c *StreamConsumer) Consume(stream ReplyStream, transcript *Transcript, entry *models.TranscriptEntry) error {
	var buf strings.Builder
	chunks := 0

	for {
		frag, err := stream.Next()
		if errors.Is(err, ErrStreamDone) {
			transcript.Finalize(entry)
			return nil
		}
		if err != nil {
			if chunks == 0 {
				transcript.Discard(entry)
			} else {
				transcript.Finalize(entry)
			}
			transcript.Append(models.RoleError,
				"Sorry, something went wrong while replying. Please try again.", false)
			return err
		}

		buf.WriteString(frag)
		chunks++
		transcript.Update(entry, c.renderer.RenderAssistant(buf.String()), chunks)
	}
}
