package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

const defaultChatModel = "claude-sonnet-4-20250514"

const chatSystemPrompt = "You are the assistant behind a single-operator " +
	"terminal. Answer concisely and in plain text."

// ChatService converses with the Anthropic API, carrying the session
// transcript as conversation history. The client is created lazily on the
// first message so startup never requires a key. It implements
// bittypes.ChatController.
type ChatService struct {
	mu     sync.Mutex
	client *anthropic.Client
	model  string
	logger *logchannel.Logger
}

// NewChatService creates the chat service.
func NewChatService() *ChatService {
	return &ChatService{logger: logchannel.Source("services.chat")}
}

// Name returns "chat".
func (c *ChatService) Name() string {
	return "chat"
}

// Initialize resolves the model override. The API client waits for the
// first message.
func (c *ChatService) Initialize() error {
	c.model = os.Getenv("BITCORE_CHAT_MODEL")
	if c.model == "" {
		c.model = defaultChatModel
	}
	return nil
}

// clientIfConfigured returns the lazily created API client, erroring with
// the api_key taxonomy when no anthropic credential resolves.
func (c *ChatService) clientIfConfigured() (*anthropic.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	profile, err := GetProfileService()
	if err != nil {
		return nil, err
	}
	key, ok := profile.GetAPIKey("anthropic")
	if !ok {
		return nil, bittypes.APIKeyError("anthropic", "no API key configured for anthropic")
	}

	client := anthropic.NewClient(option.WithAPIKey(key))
	c.client = &client
	c.logger.Debug("anthropic client initialized", map[string]any{"model": c.model})
	return c.client, nil
}

// Send appends the user message to the transcript, asks the model, and
// appends the reply before returning it.
func (c *ChatService) Send(session *bittypes.Session, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", bittypes.InputErrorf("chat message is required")
	}

	client, err := c.clientIfConfigured()
	if err != nil {
		return "", err
	}

	session.AppendMessage("user", message)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System:    []anthropic.TextBlockParam{{Text: chatSystemPrompt}},
		Messages:  transcriptToMessages(session),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	reply, err := client.Messages.New(ctx, params)
	if err != nil {
		// Pop the unanswered user turn so a retry does not duplicate it.
		session.Transcript = session.Transcript[:len(session.Transcript)-1]
		return "", bittypes.NetworkError(fmt.Errorf("chat request failed: %w", err))
	}

	var content string
	for _, block := range reply.Content {
		content += block.Text
	}
	if content == "" {
		return "", bittypes.ServerError("empty response from model", nil)
	}

	session.AppendMessage("assistant", content)
	return content, nil
}

func transcriptToMessages(session *bittypes.Session) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(session.Transcript))
	for _, msg := range session.Transcript {
		switch msg.Role {
		case "user":
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return messages
}

// GetChatService resolves the chat service from the global registry.
func GetChatService() (*ChatService, error) {
	service, err := GetGlobalRegistry().GetService("chat")
	if err != nil {
		return nil, err
	}
	chat, ok := service.(*ChatService)
	if !ok {
		return nil, fmt.Errorf("chat service has incorrect type")
	}
	return chat, nil
}
