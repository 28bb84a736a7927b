// Package apigw adapts API Gateway Lambda proxy events to the users handler.
package apigw

import (
	"context"
	"encoding/base64"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"users_backend/internal/feature/users/transport/http/dto"
)

// Handler processes one transport-neutral create-user request.
type Handler interface {
	Handle(ctx context.Context, req dto.Request) dto.Response
}

// ProxyRequest is an API Gateway proxy event whose body keeps the null/absent distinction.
// events.APIGatewayProxyRequest decodes a null body into "", which would turn
// "no body" into "invalid JSON".
type ProxyRequest struct {
	events.APIGatewayProxyRequest
	Body *string `json:"body"`
}

// NewProxyHandler returns a function suitable for lambda.Start.
func NewProxyHandler(h Handler) func(context.Context, ProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, ev ProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp := h.Handle(ctx, toRequest(ev))
		return events.APIGatewayProxyResponse{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
		}, nil
	}
}

// toRequest converts ev, decoding a base64 body.
// A body flagged as base64 that fails to decode is passed through unchanged.
func toRequest(ev ProxyRequest) dto.Request {
	req := dto.Request{Method: ev.HTTPMethod, Body: ev.Body}
	if ev.Body == nil || !ev.IsBase64Encoded {
		return req
	}
	raw, err := base64.StdEncoding.DecodeString(*ev.Body)
	if err != nil {
		log.Warn().Err(err).Msg("request body flagged as base64 but not decodable")
		return req
	}
	body := string(raw)
	req.Body = &body
	return req
}
