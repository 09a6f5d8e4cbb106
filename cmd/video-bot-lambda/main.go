package main

import (
	"context"
	"log"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/builder"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
)

func main() {
	handler, logger, err := builder.BuildLambda(context.Background())
	if err != nil {
		log.Fatal("Failed to build lambda handler:", err)
	}
	defer logger.Sync()

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return handler.HandleLambda(ctxzap.ToContext(ctx, logger), req)
	})
}
