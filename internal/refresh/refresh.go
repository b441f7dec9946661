// Package refresh starts rolling instance refreshes on EC2 Auto Scaling groups.
//
// The Handler is invoked once per Lambda event. It never returns an error:
// provider rejections and unexpected failures alike are reported in the
// Result so the caller always receives a value.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// Environment variables read by the handler.
const (
	EnvGroupName = "ASG_NAME"
	EnvRegion    = "AWS_REGION"
)

// Refresh preferences sent with every request.
const (
	MinHealthyPercentage int32 = 90
	InstanceWarmup       int32 = 300
)

// Result statuses.
const (
	StatusStarted = "started"
	StatusError   = "error"
)

// UnknownRefreshID is reported when the provider omits the refresh id.
const UnknownRefreshID = "unknown"

// Result is the value returned to the Lambda runtime.
type Result struct {
	Status            string                 `json:"status"`
	Message           string                 `json:"message,omitempty"`
	Code              string                 `json:"code,omitempty"`
	GroupName         string                 `json:"asg_name,omitempty"`
	InstanceRefreshID string                 `json:"instance_refresh_id,omitempty"`
	RawResponse       map[string]interface{} `json:"raw_response,omitempty"`
}

// API is the subset of the Auto Scaling client the handler uses.
type API interface {
	StartInstanceRefresh(ctx context.Context, params *autoscaling.StartInstanceRefreshInput, optFns ...func(*autoscaling.Options)) (*autoscaling.StartInstanceRefreshOutput, error)
}

// ClientFactory builds an API client. region is empty when no override is set.
type ClientFactory func(ctx context.Context, region string) (API, error)

// NewAWSClient loads the default AWS configuration and returns an Auto Scaling client.
func NewAWSClient(ctx context.Context, region string) (API, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return autoscaling.NewFromConfig(cfg), nil
}

// Handler starts an instance refresh for the group named in the environment.
type Handler struct {
	NewClient ClientFactory
	Getenv    func(string) string
	Logger    *zap.Logger
}

// NewHandler returns a Handler backed by the AWS SDK and the process environment.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		NewClient: NewAWSClient,
		Getenv:    os.Getenv,
		Logger:    logger,
	}
}

// Handle runs one invocation. A fresh client is built on every call.
func (h *Handler) Handle(ctx context.Context) (result Result) {
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	getenv := h.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	group := getenv(EnvGroupName)
	if group == "" {
		logger.Error("ASG_NAME environment variable is not set")
		return Result{Status: StatusError, Message: "ASG_NAME not set"}
	}
	logger = logger.With(zap.String("asg_name", group))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unexpected error starting instance refresh", zap.Any("panic", r), zap.Stack("stack"))
			result = Result{Status: StatusError, Message: fmt.Sprint(r)}
		}
	}()

	newClient := h.NewClient
	if newClient == nil {
		newClient = NewAWSClient
	}
	client, err := newClient(ctx, getenv(EnvRegion))
	if err != nil {
		return failure(logger, err)
	}

	out, err := client.StartInstanceRefresh(ctx, StartInput(group))
	if err != nil {
		return failure(logger, err)
	}

	id := aws.ToString(out.InstanceRefreshId)
	if id == "" {
		id = UnknownRefreshID
	}
	logger.Info("Started instance refresh", zap.String("instance_refresh_id", id))

	return Result{
		Status:            StatusStarted,
		Message:           fmt.Sprintf("Started instance refresh for %s", group),
		GroupName:         group,
		InstanceRefreshID: id,
		RawResponse:       rawResponse(out),
	}
}

// StartInput builds the request for a rolling refresh of group.
func StartInput(group string) *autoscaling.StartInstanceRefreshInput {
	return &autoscaling.StartInstanceRefreshInput{
		AutoScalingGroupName: aws.String(group),
		Strategy:             types.RefreshStrategyRolling,
		Preferences: &types.RefreshPreferences{
			MinHealthyPercentage: aws.Int32(MinHealthyPercentage),
			InstanceWarmup:       aws.Int32(InstanceWarmup),
		},
	}
}

func failure(logger *zap.Logger, err error) Result {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		logger.Error("AWS API error starting instance refresh",
			zap.String("code", apiErr.ErrorCode()),
			zap.Error(err),
		)
		return Result{Status: StatusError, Message: err.Error(), Code: apiErr.ErrorCode()}
	}

	logger.Error("Unexpected error starting instance refresh", zap.Error(err))
	return Result{Status: StatusError, Message: err.Error()}
}

func rawResponse(out *autoscaling.StartInstanceRefreshOutput) map[string]interface{} {
	raw := map[string]interface{}{}
	if out.InstanceRefreshId != nil {
		raw["InstanceRefreshId"] = aws.ToString(out.InstanceRefreshId)
	}
	if requestID, ok := awsmiddleware.GetRequestIDMetadata(out.ResultMetadata); ok {
		raw["ResponseMetadata"] = map[string]interface{}{"RequestId": requestID}
	}
	return raw
}
