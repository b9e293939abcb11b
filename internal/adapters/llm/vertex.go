package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/PabloGalante/persona-chat/internal/domain"
)

type VertexClient struct {
	client    *genai.Client
	modelName string
}

// NewVertexClient creates a PersonaLLM backed by Vertex AI (Gemini).
// Uses environment variables for project and region to simplify.
func NewVertexClient(ctx context.Context) (*VertexClient, error) {
	projectID := os.Getenv("PERSONA_GCP_PROJECT")
	location := os.Getenv("PERSONA_GCP_LOCATION")
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("PERSONA_GCP_PROJECT and PERSONA_GCP_LOCATION must be set")
	}

	modelName := os.Getenv("PERSONA_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateReply implements domain.PersonaLLM using Vertex AI. The
// character's system prompt goes in as the system instruction; the stored
// history becomes the conversation contents.
func (v *VertexClient) GenerateReply(
	ctx context.Context,
	character *domain.Character,
	history []*domain.Message,
	userText string,
) (string, error) {
	var contents []*genai.Content
	for _, m := range history {
		var role genai.Role
		switch m.Role {
		case domain.RoleUser:
			role = genai.RoleUser
		case domain.RoleAssistant:
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	contents = append(contents, genai.NewContentFromText(userText, genai.RoleUser))

	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(8192)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(character.SystemPrompt, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   outputTokens,
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("vertex returned empty text")
	}

	return text, nil
}
