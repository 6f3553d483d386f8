package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/set-night/gembot/internal/config"
	"github.com/set-night/gembot/internal/domain"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GeminiService calls Gemini with the requesting user's own API key. A client
// is created per call because every user brings a different key.
type GeminiService struct {
	model             string
	systemInstruction string
	pollInterval      time.Duration
}

// NewGeminiService creates the backend client factory. systemInstruction is
// the persona used for free chat only; media analysis runs without it.
func NewGeminiService(model, systemInstruction string) *GeminiService {
	return &GeminiService{
		model:             model,
		systemInstruction: systemInstruction,
		pollInterval:      config.FilePollInterval,
	}
}

func (s *GeminiService) newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

func (s *GeminiService) chatModel(client *genai.Client) *genai.GenerativeModel {
	return s.withPersona(s.configure(client.GenerativeModel(s.model)))
}

func (s *GeminiService) analysisModel(client *genai.Client) *genai.GenerativeModel {
	return s.configure(client.GenerativeModel(s.model))
}

func (s *GeminiService) withPersona(model *genai.GenerativeModel) *genai.GenerativeModel {
	if s.systemInstruction != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(s.systemInstruction))
	}
	return model
}

func (s *GeminiService) configure(model *genai.GenerativeModel) *genai.GenerativeModel {
	model.SetTemperature(config.GenerationTemperature)
	model.SetTopP(config.GenerationTopP)
	model.SetTopK(config.GenerationTopK)
	model.SetMaxOutputTokens(config.GenerationMaxTokens)
	model.ResponseMIMEType = "text/plain"
	model.SafetySettings = safetySettings()
	return model
}

func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockNone,
		})
	}
	return settings
}

// probe sends a tiny prompt to check that the key is usable.
func (s *GeminiService) probe(ctx context.Context, apiKey string) error {
	client, err := s.newClient(ctx, apiKey)
	if err != nil {
		return classifyError(err)
	}
	defer client.Close()

	model := client.GenerativeModel(s.model)
	_, err = model.GenerateContent(ctx, genai.Text(config.ValidationPrompt))
	return classifyError(err)
}

// Validate reports whether the key is accepted by the backend. Transient and
// quota failures are returned as errors since they say nothing about the key.
func (s *GeminiService) Validate(ctx context.Context, apiKey string) (bool, error) {
	err := s.probe(ctx, apiKey)
	if err != nil {
		slog.Info("api key probe failed", "kind", domain.KindOf(err), "error", err)
	}
	switch domain.KindOf(err) {
	case domain.KindTransient, domain.KindQuota:
		return false, err
	}
	return err == nil, nil
}

// Chat continues a conversation. history holds the prior turns only.
func (s *GeminiService) Chat(ctx context.Context, apiKey string, history []domain.Turn, text string) (string, error) {
	client, err := s.newClient(ctx, apiKey)
	if err != nil {
		return "", classifyError(err)
	}
	defer client.Close()

	session := s.chatModel(client).StartChat()
	session.History = toContents(history)

	resp, err := session.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return "", classifyError(err)
	}
	return responseText(resp)
}

// Analyze uploads a file and asks the model about it.
func (s *GeminiService) Analyze(ctx context.Context, apiKey string, media domain.MediaInput, prompt string) (string, error) {
	client, err := s.newClient(ctx, apiKey)
	if err != nil {
		return "", classifyError(err)
	}
	defer client.Close()

	file, err := client.UploadFile(ctx, "", bytes.NewReader(media.Data), &genai.UploadFileOptions{
		DisplayName: fmt.Sprintf("%s-%s", media.Kind, uuid.NewString()),
		MIMEType:    media.MIMEType,
	})
	if err != nil {
		return "", classifyError(fmt.Errorf("upload file: %w", err))
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := client.DeleteFile(cleanupCtx, file.Name); err != nil {
			slog.Warn("delete uploaded file", "file", file.Name, "error", err)
		}
	}()

	slog.Info("file uploaded", "kind", media.Kind, "mime_type", media.MIMEType, "file", file.Name, "state", file.State)

	file, err = s.waitForActive(ctx, client, file)
	if err != nil {
		return "", classifyError(err)
	}

	resp, err := s.analysisModel(client).GenerateContent(ctx,
		genai.FileData{MIMEType: file.MIMEType, URI: file.URI},
		genai.Text(prompt),
	)
	if err != nil {
		return "", classifyError(err)
	}
	return responseText(resp)
}

// waitForActive polls the file until the backend has finished processing it.
func (s *GeminiService) waitForActive(ctx context.Context, client *genai.Client, file *genai.File) (*genai.File, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		var err error
		file, err = client.GetFile(ctx, file.Name)
		if err != nil {
			return nil, fmt.Errorf("get file state: %w", err)
		}
	}

	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileProcessing, file.Name)
	}
	return file, nil
}

func toContents(history []domain.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		contents = append(contents, &genai.Content{
			Role:  string(turn.Role),
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &domain.GenerationError{Kind: domain.KindOther, Err: domain.ErrEmptyResponse}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", &domain.GenerationError{Kind: domain.KindSafety, Err: &genai.BlockedError{Candidate: candidate}}
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return "", &domain.GenerationError{Kind: domain.KindOther, Err: domain.ErrEmptyResponse}
	}
	return text.String(), nil
}

// classifyError maps SDK and transport errors onto the domain error kinds.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = stripQuery(urlErr.URL)
	}
	return &domain.GenerationError{Kind: errorKind(err), Err: err}
}

// stripQuery drops the query string, which may hold the api key.
func stripQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

func errorKind(err error) domain.ErrorKind {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return domain.KindSafety
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.KindTransient
	}

	// Connection refused, DNS failures and similar never reached the backend.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return domain.KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.KindTransient
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return domain.KindQuota
		case apiErr.Code >= 500:
			return domain.KindTransient
		default:
			return domain.KindOther
		}
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return domain.KindQuota
		case codes.Unavailable, codes.Internal, codes.DeadlineExceeded, codes.Canceled:
			return domain.KindTransient
		}
	}

	return domain.KindOther
}
