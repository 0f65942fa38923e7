package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/mohammed-shakir/hazard-query/internal/app"
	"github.com/mohammed-shakir/hazard-query/internal/core/config"
	"github.com/mohammed-shakir/hazard-query/internal/core/router"
	"github.com/mohammed-shakir/hazard-query/internal/logger"
)

func main() {
	cfg := config.Load()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		SampleN:   cfg.LogSampleN,
		Service:   "hazard-query",
		Component: "lambda",
		Version:   cfg.Build.Version,
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	a, err := app.Build(context.Background(), cfg, appLog, nil)
	if err != nil {
		appLog.Error("startup failed", "err", err)
		os.Exit(1)
	}

	lambda.Start(newHandler(a.Service))
}

type handler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

func newHandler(q router.Querier) handler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		reqID := req.RequestContext.RequestID
		if lc, ok := lambdacontext.FromContext(ctx); ok && reqID == "" {
			reqID = lc.AwsRequestID
		}
		ctx = logger.WithRequestID(ctx, reqID)
		ctx = logger.WithComponent(ctx, "lambda")

		// queryStringParameters is null when the caller sent none
		params := req.QueryStringParameters
		resp := q.Query(ctx, params["lat"], params["lon"])

		out := events.APIGatewayProxyResponse{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       string(resp.Body),
		}
		return out, nil
	}
}
