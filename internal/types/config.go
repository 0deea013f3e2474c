package types

type RunMode string

const (
	// ModeLocal is the mode for running the API server and the message router locally
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running the API server and the message router
	ModeAPI RunMode = "api"
	// ModeAWSLambdaAPI is the mode for running the API server in AWS Lambda
	ModeAWSLambdaAPI RunMode = "aws_lambda_api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Environment names the deployment environment. Some debug endpoints are
// disabled in production.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentProduction  Environment = "production"
)
