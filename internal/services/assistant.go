package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"warren-backend/internal/models"
)

// defaultSystemPrompt is the business briefing handed to the model. It is an
// opaque configuration payload as far as this service is concerned; the
// deployment can replace it wholesale via SYSTEM_PROMPT_PATH.
const defaultSystemPrompt = `You are Clover, the booking assistant for Warren & Whiskers, a small rabbit
boarding home. You answer questions about our boarding service, rates and
care routines, and you acknowledge boarding request submissions warmly.

House facts:
- Boarding is $25 per night per rabbit, $40 per night for a bonded pair.
- Every guest gets a private indoor hutch and daily supervised playpen time.
- We feed unlimited timothy hay, daily fresh greens and the pellets the
  owner provides. Owners should bring any medication with instructions.
- Check-in is from 10am, check-out by 4pm. We are closed on public holidays.
- Rabbits must be vaccinated against RHDV. Unsterilised rabbits are boarded
  separately from other guests.

Keep replies short and friendly. Use simple markdown (bold, lists) where it
helps. If asked something outside rabbit boarding, politely steer back.`

// AssistantService owns the Gemini client and model configuration. When
// construction fails (no key, unreachable service) it stays alive in an
// unavailable state: every SendTurn fails fast without any network I/O, and
// the widget shows a disabled, error-displaying UI instead of crashing.
type AssistantService struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	initErr error
}

func NewAssistantService(apiKey, modelName, systemPrompt string) *AssistantService {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}
	if apiKey == "" {
		return &AssistantService{initErr: fmt.Errorf("no Gemini API key configured")}
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return &AssistantService{initErr: fmt.Errorf("failed to create Gemini client: %w", err)}
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetTopP(0.95)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	return &AssistantService{client: client, model: model}
}

func (s *AssistantService) Available() bool { return s.initErr == nil }

func (s *AssistantService) Err() error { return s.initErr }

func (s *AssistantService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// StartChat opens the server-held conversation history for a new session.
// Returns nil when the assistant is unavailable; the session still exists
// and every send against it fails fast.
func (s *AssistantService) StartChat() *genai.ChatSession {
	if s.initErr != nil {
		return nil
	}
	return s.model.StartChat()
}

// SendTurn appends the turn to the session's conversation and returns the
// incremental reply stream. The caller must already hold the session's
// in-flight gate.
func (s *AssistantService) SendTurn(ctx context.Context, sess *ConversationSession, turn *models.Turn) (ReplyStream, error) {
	if s.initErr != nil {
		return nil, &UnavailableError{Message: "the assistant is not available right now"}
	}
	if sess.chat == nil {
		return nil, &UnavailableError{Message: "the assistant is not available for this conversation"}
	}

	parts, err := genaiParts(turn)
	if err != nil {
		return nil, err
	}

	iter := sess.chat.SendMessageStream(ctx, parts...)
	return &geminiStream{iter: iter}, nil
}

// genaiParts converts the tagged turn parts into the wire representation,
// preserving order (attachment before text for booking turns).
func genaiParts(turn *models.Turn) ([]genai.Part, error) {
	parts := make([]genai.Part, 0, len(turn.Parts))
	for _, p := range turn.Parts {
		switch v := p.(type) {
		case models.TextPart:
			parts = append(parts, genai.Text(v.Text))
		case models.AttachmentPart:
			data, err := v.Bytes()
			if err != nil {
				return nil, &AttachmentError{Message: fmt.Sprintf("invalid attachment payload: %v", err)}
			}
			parts = append(parts, genai.Blob{MIMEType: v.MIMEType, Data: data})
		default:
			return nil, fmt.Errorf("unknown turn part %T", p)
		}
	}
	return parts, nil
}

// geminiStream adapts the Gemini response iterator to ReplyStream.
type geminiStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (g *geminiStream) Next() (string, error) {
	resp, err := g.iter.Next()
	if err == iterator.Done {
		return "", ErrStreamDone
	}
	if err != nil {
		return "", err
	}
	return extractText(resp), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
