package providers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// GetParameters accepts at most ten names per call
const ssmBatchSize = 10

// Reads SecureString and String parameters from AWS Systems Manager
type SSMProvider struct {
	Client SSMClient
}

type SSMClient interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

func NewSSMProvider() *SSMProvider {
	return &SSMProvider{}
}

func (p *SSMProvider) Read(ctx context.Context, ids map[string]string) (map[string]string, error) {
	if err := p.configure(ctx); err != nil {
		return nil, err
	}

	params := []string{}
	entriesByParam := map[string][]string{}
	for name, param := range ids {
		if _, ok := entriesByParam[param]; !ok {
			params = append(params, param)
		}
		entriesByParam[param] = append(entriesByParam[param], name)
	}

	result := map[string]string{}
	for start := 0; start < len(params); start += ssmBatchSize {
		batch := params[start:min(start+ssmBatchSize, len(params))]
		log.Debug().Int("parameters", len(batch)).Msg("get ssm parameters")

		resp, err := p.Client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          batch,
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			log.Warn().Err(err).Strs("parameters", batch).Msg("failed to get ssm parameters")
			continue
		}
		if len(resp.InvalidParameters) > 0 {
			log.Warn().Strs("parameters", resp.InvalidParameters).Msg("invalid ssm parameters")
		}
		for _, param := range resp.Parameters {
			name, value := aws.ToString(param.Name), aws.ToString(param.Value)
			for _, entry := range entriesByParam[name] {
				result[entry] = value
			}
		}
	}

	return result, nil
}

func (p *SSMProvider) configure(ctx context.Context) error {
	if p.Client != nil {
		return nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	p.Client = ssm.NewFromConfig(cfg)
	return nil
}
