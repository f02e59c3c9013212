// Package bedrock provides a model wrapper for the AWS Bedrock Converse API.
//
// Credentials come from the default AWS chain (environment, shared config,
// instance role), so no API key is passed through Options.
package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/model"
)

// DefaultModel is the Bedrock model id used when none is configured.
const DefaultModel = "anthropic.claude-sonnet-4-20250514-v1:0"

// DefaultRegion is used when Options.Region is empty.
const DefaultRegion = "us-east-1"

// DefaultMaxTokens caps output when neither the request nor the options set a limit.
const DefaultMaxTokens = 2000

// converseAPI abstracts the Bedrock runtime client for testability.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures the Bedrock adapter.
type Options struct {
	Model       string
	Region      string
	Temperature float32 // 0 leaves the provider default
	MaxTokens   int32
}

// Model wraps the Bedrock Converse API behind the generic model.Model interface.
type Model struct {
	client converseAPI
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:     DefaultModel,
		Region:    DefaultRegion,
		MaxTokens: DefaultMaxTokens,
	}
}

// NewModel creates a Bedrock model using the default AWS credential chain.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Model{client: bedrockruntime.NewFromConfig(awsCfg), opts: opts}, nil
}

func newModelWithClient(client converseAPI, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model with a single Converse call.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	out, err := m.client.Converse(ctx, m.buildInput(req))
	if err != nil {
		return nil, mapError(err)
	}

	resp := &model.Response{
		Content:    core.Message{Role: core.RoleAssistant},
		StopReason: string(out.StopReason),
	}

	if msg, ok := out.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if text, ok := block.(*types.ContentBlockMemberText); ok && text.Value != "" {
				resp.Content.Parts = append(resp.Content.Parts, core.TextPart{Text: text.Value})
			}
		}
	}

	if out.Usage != nil {
		in, o := int(aws.ToInt32(out.Usage.InputTokens)), int(aws.ToInt32(out.Usage.OutputTokens))
		resp.Usage = &model.TokenUsage{PromptTokens: in, CompletionTokens: o, TotalTokens: in + o}
	}

	return resp, nil
}

func (m *Model) buildInput(req model.Request) *bedrockruntime.ConverseInput {
	modelID := m.opts.Model
	if req.Model != "" {
		modelID = req.Model
	}

	maxTokens := m.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = int32(req.MaxTokens)
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(modelID),
		InferenceConfig: &types.InferenceConfiguration{MaxTokens: aws.Int32(maxTokens)},
	}
	if m.opts.Temperature > 0 {
		input.InferenceConfig.Temperature = aws.Float32(m.opts.Temperature)
	}

	if req.System != "" {
		input.System = append(input.System, &types.SystemContentBlockMemberText{Value: req.System})
	}

	for _, msg := range req.Messages {
		text := msg.Text()
		if text == "" {
			continue
		}

		var role types.ConversationRole
		switch msg.Role {
		case core.RoleSystem:
			input.System = append(input.System, &types.SystemContentBlockMemberText{Value: text})
			continue
		case core.RoleAssistant:
			role = types.ConversationRoleAssistant
		default:
			role = types.ConversationRoleUser
		}

		input.Messages = append(input.Messages, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: text}},
		})
	}

	return input
}

// Info returns metadata describing this Bedrock model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "bedrock"}
}

// mapError classifies well known Bedrock error codes onto core sentinels.
// The original error stays reachable through errors.As.
func mapError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return fmt.Errorf("bedrock api error: %w: %w", core.ErrRateLimited, err)
		case "AccessDeniedException", "UnrecognizedClientException":
			return fmt.Errorf("bedrock api error: %w: %w", core.ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("bedrock api error: %w", err)
}
