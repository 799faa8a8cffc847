package config

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"
)

// SecretVars are the variables that may be resolved from SSM Parameter Store.
var SecretVars = []string{
	"SHOPIFY_WEBHOOK_SECRET",
	"DOWNLOAD_LINK_SECRET",
	"RESEND_API_KEY",
	"SMTP_PASSWORD",
	"CLOUDINARY_API_SECRET",
}

type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func NewSSMClient(ctx context.Context) (*ssm.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// ResolveSecrets fills each empty variable in names from the SSM parameter named by
// SSM_<NAME>_PARAM. Variables that are already set or have no parameter are left alone.
func ResolveSecrets(ctx context.Context, client ParameterGetter, names ...string) error {
	for _, name := range names {
		if os.Getenv(name) != "" {
			continue
		}
		param := os.Getenv("SSM_" + name + "_PARAM")
		if param == "" {
			continue
		}

		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(param),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("read %s from SSM parameter %s: %w", name, param, err)
		}
		if out.Parameter == nil || out.Parameter.Value == nil {
			return fmt.Errorf("SSM parameter %s has no value", param)
		}
		if err := os.Setenv(name, *out.Parameter.Value); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"var": name, "parameter": param}).Info("Resolved secret from SSM")
	}
	return nil
}
