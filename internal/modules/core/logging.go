package core

import (
	"context"

	"github.com/eskrenkovic/mediator-go"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const RunIDContextKey contextKey = "run_id"

// NewLogger builds a JSON logger for production and a console logger otherwise.
func NewLogger(level string, environment string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil || level == "" {
		lvl = zapcore.InfoLevel
	}

	if environment == "production" {
		prodConfig := zap.NewProductionConfig()
		prodConfig.Level = zap.NewAtomicLevelAt(lvl)
		prodConfig.EncoderConfig.TimeKey = "timestamp"
		prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		return prodConfig.Build(zap.Fields(zap.String("environment", environment)))
	}

	devConfig := zap.NewDevelopmentConfig()
	devConfig.Level = zap.NewAtomicLevelAt(lvl)
	devConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return devConfig.Build(zap.Fields(zap.String("environment", environment)))
}

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

func RunID(ctx context.Context) string {
	runID, _ := ctx.Value(RunIDContextKey).(string)
	return runID
}

var _ mediator.PipelineBehavior = (*RequestLoggingBehavior)(nil)

type RequestLoggingBehavior struct {
	Logger *zap.Logger
}

func (b *RequestLoggingBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	var logFields []zap.Field

	if runID := RunID(ctx); runID != "" {
		logFields = append(logFields, zap.String("run_id", runID))
	}

	if request != nil {
		// Batches can hold thousands of products, so only the type is logged.
		logFields = append(logFields, zap.String("request_type", requestTypeName(request)))
	}

	b.Logger.Info("processing request", logFields...)

	return next(ctx, request)
}

var _ mediator.PipelineBehavior = (*HandlerErrorLoggingBehavior)(nil)

type HandlerErrorLoggingBehavior struct {
	Logger *zap.Logger
}

func (b *HandlerErrorLoggingBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	response, err := next(ctx, request)
	if err != nil {
		b.Logger.Error(
			"handler returned error",
			zap.String("request_type", requestTypeName(request)),
			zap.Error(err),
		)
	}

	return response, err
}

func requestTypeName(request interface{}) string {
	if named, ok := request.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "unknown"
}
