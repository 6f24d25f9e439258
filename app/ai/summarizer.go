package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
)

// maxContentBytes bounds the article text sent with each request.
const maxContentBytes = 10000

const summaryPrompt = `You are a journalist writing in Axios Smart Brevity style. Summarize the article below using the appropriate format.

First, determine: Is this article primarily about a specific PRODUCT (hardware, software, app, device) or is it EDITORIAL (news, policy, analysis, industry event)?

RULES:
1. Use ONLY information from the article - no external knowledge
2. Each section should be 1-2 concise sentences
3. If the article has insufficient content, respond with just: "Insufficient content for summary"
4. If there are direct quotes with clear speaker attribution, include the most important one
5. Output ONLY the summary lines below - no introductions, conclusions, or commentary
6. Do NOT state the format type (e.g. "This is an EDITORIAL summary") - just start with the first line

If EDITORIAL, respond in this exact format:
What's happening: One strong sentence capturing the core news or development.
Why it matters: 1-2 sentences explaining why this is significant.
The big picture: One sentence on broader industry or societal implications. Omit this line if the article is too narrow for broader context.
"quote text" -- Speaker Name

If PRODUCT, respond in this exact format:
The product: What the product is and what it does (1-2 sentences).
Cost: Pricing details. Omit this line if pricing is not mentioned.
Availability: When and where it is available. Omit this line if not mentioned.
Platforms: What platforms or operating systems it runs on. Omit this line for hardware-only products or if not mentioned.
"quote text" -- Speaker Name

Omit the quote line if there are no quotes or no clear speaker attribution in the article.`

// Summarizer generates article summaries through an OpenAI-compatible chat
// completion endpoint. Set baseURL to point at a local or alternative
// server; leave empty for api.openai.com.
type Summarizer struct {
	client *openai.Client
	model  string
}

func NewSummarizer(baseURL, apiKey, model string) *Summarizer {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Summarizer{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// GenerateSummary summarizes an article. Content is truncated to a fixed
// byte budget at a rune boundary before sending, bounding request size.
func (s *Summarizer) GenerateSummary(ctx context.Context, title, content string) (string, error) {
	userMessage := fmt.Sprintf("Title: %s\n\nArticle:\n%s", title, truncateContent(content, maxContentBytes))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 1024,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summaryPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model %q", s.model)
	}

	return stripPreamble(resp.Choices[0].Message.Content), nil
}

// ModelVersion identifies the generator, recorded with each stored summary.
func (s *Summarizer) ModelVersion() string {
	return s.model
}

// truncateContent cuts content to at most limit bytes without splitting a
// rune.
func truncateContent(content string, limit int) string {
	if len(content) <= limit {
		return content
	}
	end := limit
	for end > 0 && !utf8.RuneStart(content[end]) {
		end--
	}
	return content[:end]
}

// stripPreamble drops label lines the model sometimes emits despite
// instructions, keeping legitimate content lines intact.
func stripPreamble(summary string) string {
	var kept []string
	for _, line := range strings.Split(summary, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "this is an editorial") || strings.HasPrefix(lower, "this is a product") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
