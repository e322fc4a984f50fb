package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"

	"curius-feed/internal/app"
)

var chiLambda *chiadapter.ChiLambdaV2

func init() {
	a, err := app.New(context.Background())
	if err != nil {
		log.Fatalf("failed to initialize service: %v", err)
	}
	chiLambda = chiadapter.NewV2(a.Router)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(handler)
}
