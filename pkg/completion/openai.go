package completion

import (
	"context"
	"time"

	"github.com/go-go-golems/tachat/pkg/conversation"
	"github.com/go-go-golems/tachat/pkg/events"
	"github.com/go-go-golems/tachat/pkg/helpers"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient calls the OpenAI chat completion endpoint.
type OpenAIClient struct {
	client *go_openai.Client
	opts   *options
}

var _ Client = &OpenAIClient{}

func NewOpenAIClient(apiKey string, cs *settings.ClientSettings, options_ ...Option) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("no API key given")
	}
	if cs == nil {
		cs = settings.NewClientSettings()
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}

	config := go_openai.DefaultConfig(apiKey)
	if cs.BaseURL != "" {
		config.BaseURL = cs.BaseURL
	}
	if cs.Organization != "" {
		config.OrgID = cs.Organization
	}
	config.HTTPClient = cs.GetHTTPClient()

	ret := &OpenAIClient{
		client: go_openai.NewClientWithConfig(config),
		opts:   &options{},
	}
	for _, o := range options_ {
		o(ret.opts)
	}
	return ret, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) Reply {
	metadata := events.EventMetadata{
		ID:        uuid.New(),
		SessionID: req.SessionID,
		Model:     string(req.Model),
		Stream:    req.Stream,
	}

	if err := req.Validate(); err != nil {
		return c.opts.fail(ctx, metadata, err)
	}

	messages, err := toOpenAIMessages(req.Transcript)
	if err != nil {
		return c.opts.fail(ctx, metadata, err)
	}

	openaiReq := go_openai.ChatCompletionRequest{
		Model:    string(req.Model),
		Messages: messages,
		Stream:   req.Stream,
	}

	log.Debug().
		Str("session_id", req.SessionID).
		Str("model", openaiReq.Model).
		Bool("stream", req.Stream).
		Int("message_count", len(messages)).
		Msg("calling chat completion")

	c.opts.publish(ctx, events.NewStartEvent(metadata))
	started := time.Now()

	if req.Stream {
		stream, err := c.client.CreateChatCompletionStream(ctx, openaiReq)
		if err != nil {
			return c.opts.fail(ctx, metadata, err)
		}

		es := &eventStream{
			ctx:      ctx,
			opts:     c.opts,
			metadata: metadata,
			started:  started,
			closer: func() {
				stream.Close()
			},
		}
		es.next = func() (string, error) {
			response, err := stream.Recv()
			if err != nil {
				return "", err
			}
			if len(response.Choices) == 0 {
				return "", nil
			}
			choice := response.Choices[0]
			if choice.FinishReason != "" {
				es.metadata.StopReason = helpers.ToPointer(string(choice.FinishReason))
			}
			return choice.Delta.Content, nil
		}
		return StreamReply(es)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return c.opts.fail(ctx, metadata, err)
	}
	if len(resp.Choices) == 0 {
		return c.opts.fail(ctx, metadata, errors.New("response contained no choices"))
	}

	if usage := resp.Usage; usage.PromptTokens > 0 || usage.CompletionTokens > 0 {
		metadata.Usage = &events.Usage{
			InputTokens:  usage.PromptTokens,
			OutputTokens: usage.CompletionTokens,
		}
	}
	if resp.Choices[0].FinishReason != "" {
		metadata.StopReason = helpers.ToPointer(string(resp.Choices[0].FinishReason))
	}
	metadata.DurationMs = helpers.ToPointer(time.Since(started).Milliseconds())

	text := resp.Choices[0].Message.Content
	c.opts.publish(ctx, events.NewFinalEvent(metadata, text))
	return TextReply(text)
}

type openAIRoleVisitor struct {
	role string
}

func (v *openAIRoleVisitor) VisitSystem(*conversation.Message) error {
	v.role = go_openai.ChatMessageRoleSystem
	return nil
}

func (v *openAIRoleVisitor) VisitUser(*conversation.Message) error {
	v.role = go_openai.ChatMessageRoleUser
	return nil
}

func (v *openAIRoleVisitor) VisitAssistant(*conversation.Message) error {
	v.role = go_openai.ChatMessageRoleAssistant
	return nil
}

func toOpenAIMessages(transcript []conversation.Pair) ([]go_openai.ChatCompletionMessage, error) {
	ret := make([]go_openai.ChatCompletionMessage, 0, len(transcript))
	for _, p := range transcript {
		v := &openAIRoleVisitor{}
		m := conversation.Message{Role: p.Role, Content: p.Content}
		if err := m.Visit(v); err != nil {
			return nil, err
		}
		ret = append(ret, go_openai.ChatCompletionMessage{
			Role:    v.role,
			Content: p.Content,
		})
	}
	return ret, nil
}
