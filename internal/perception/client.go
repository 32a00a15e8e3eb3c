// Package perception wraps the Gemini API behind a small boundary: one
// synchronous generate call and one file upload call. Everything past it
// is treated as an opaque, potentially-failing remote service.
package perception

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"google.golang.org/genai"

	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/logging"
)

// FileRef is the opaque handle for an uploaded file.
type FileRef struct {
	Name        string // API resource name (files/...)
	URI         string // URI referenced in generate requests
	MIMEType    string
	DisplayName string // original local filename
}

// Part is one element of an outbound payload: either text or an uploaded
// file reference.
type Part struct {
	Text string
	File *FileRef
}

// Generator is the model-invocation boundary used by the chat loop.
type Generator interface {
	// Generate sends the ordered parts with a system instruction and
	// returns the model's text reply.
	Generate(ctx context.Context, model, systemInstruction string, parts []Part) (string, error)
	// Upload pushes a local file to the provider's storage and returns
	// its handle.
	Upload(ctx context.Context, path, mimeType string) (*FileRef, error)
}

// RemoteCallError reports a failed call across the model boundary.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// GeminiClient implements Generator over the official genai SDK.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini-backed generator.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// Generate sends the payload to the model and returns the reply text.
func (c *GeminiClient) Generate(ctx context.Context, model, systemInstruction string, parts []Part) (string, error) {
	startTime := time.Now()
	logging.APIDebug("[Gemini] Generate: model=%s parts=%d", model, len(parts))

	genaiParts := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.File != nil {
			genaiParts = append(genaiParts, genai.NewPartFromURI(p.File.URI, p.File.MIMEType))
			continue
		}
		genaiParts = append(genaiParts, genai.NewPartFromText(p.Text))
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(genaiParts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		logging.APIError("[Gemini] Generate failed after %v: %v", time.Since(startTime), err)
		return "", &RemoteCallError{Op: "generate", Err: err}
	}

	text := resp.Text()
	if text == "" {
		logging.APIError("[Gemini] Generate returned no text after %v", time.Since(startTime))
		return "", &RemoteCallError{Op: "generate", Err: fmt.Errorf("no completion returned")}
	}

	logging.API("[Gemini] Generate completed in %v response_len=%d", time.Since(startTime), len(text))
	return text, nil
}

// Upload pushes a local file to the Gemini Files API.
func (c *GeminiClient) Upload(ctx context.Context, path, mimeType string) (*FileRef, error) {
	startTime := time.Now()
	logging.APIDebug("[Gemini] Upload: path=%s mime=%s", path, mimeType)

	file, err := c.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: filepath.Base(path),
	})
	if err != nil {
		logging.APIError("[Gemini] Upload failed after %v: %v", time.Since(startTime), err)
		return nil, &RemoteCallError{Op: "upload", Err: err}
	}

	ref := &FileRef{
		Name:        file.Name,
		URI:         file.URI,
		MIMEType:    mimeType,
		DisplayName: filepath.Base(path),
	}
	if file.MIMEType != "" {
		ref.MIMEType = file.MIMEType
	}

	logging.API("[Gemini] Upload completed in %v uri=%s", time.Since(startTime), ref.URI)
	return ref, nil
}
