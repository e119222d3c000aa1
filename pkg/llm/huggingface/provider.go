package huggingface

import (
	"care-relay-be/pkg/llm"
	"care-relay-be/pkg/llm/openai"
	"strings"
)

const defaultBaseURL = "https://router.huggingface.co/v1"

// HuggingFaceProvider talks to the Hugging Face inference router, which
// serves the OpenAI chat completion API.
type HuggingFaceProvider struct {
	*openai.OpenAIProvider
}

var _ llm.LLMProvider = (*HuggingFaceProvider)(nil)

func NewHuggingFaceProvider(apiKey, baseURL, model string) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HuggingFaceProvider{
		OpenAIProvider: openai.NewOpenAIProvider(apiKey, strings.TrimRight(baseURL, "/"), model),
	}
}
