package client

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	chatPrefixes = []string{"gpt-4", "gpt-3.5-turbo", "o1", "o3", "o4"}
	// speech and realtime variants share the chat prefixes but not the endpoint
	nonChatMarkers = []string{"audio", "tts", "transcribe", "realtime"}
)

// ListChatModels returns the ids of chat-capable models visible to apiKey,
// sorted by name. Embedding, moderation, image and speech models are skipped.
func ListChatModels(ctx context.Context, apiKey, baseURL string) ([]string, error) {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" && baseURL != DefaultBaseURL {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	list, err := openai.NewClientWithConfig(cfg).ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list models: %w", ErrRequestFailed, err)
	}

	var ids []string
	for _, m := range list.Models {
		if isChatModel(m.ID) {
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func isChatModel(id string) bool {
	for _, marker := range nonChatMarkers {
		if strings.Contains(id, marker) {
			return false
		}
	}
	for _, prefix := range chatPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}
