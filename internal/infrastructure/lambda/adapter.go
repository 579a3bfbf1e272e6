// Package lambda adapts AWS Lambda invocations onto the reset handler.
//
// Two event shapes are accepted: a direct invoke whose payload is the request
// itself ({"email": ..., "resetToken": ...}) and an API Gateway proxy event
// (REST or HTTP API) carrying that JSON in "body", optionally base64 encoded.
package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/application/reset"
	appctx "github.com/baechuer/real-time-ressys/services/reset-mailer/internal/pkg/context"
)

const transportName = "lambda"

// Handler is the app-layer contract the adapter calls.
type Handler interface {
	Handle(ctx context.Context, req reset.Request) reset.Response
}

type Adapter struct {
	h  Handler
	lg zerolog.Logger
}

func NewAdapter(h Handler, lg zerolog.Logger) *Adapter {
	return &Adapter{
		h:  h,
		lg: lg.With().Str("component", "lambda_adapter").Logger(),
	}
}

// proxyProbe holds the fields that tell a proxy event from a direct invoke.
type proxyProbe struct {
	Body            *string         `json:"body"`
	IsBase64Encoded bool            `json:"isBase64Encoded"`
	HTTPMethod      string          `json:"httpMethod"`
	RequestContext  json.RawMessage `json:"requestContext"`
}

// Invoke is registered with lambda.Start. The error return is always nil so the
// platform never retries on our behalf.
func (a *Adapter) Invoke(ctx context.Context, event json.RawMessage) (events.APIGatewayProxyResponse, error) {
	ctx = appctx.WithTransport(ctx, transportName)
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ctx = appctx.WithRequestID(ctx, lc.AwsRequestID)
	}

	req, shape, err := decodeEvent(event)

	a.lg.Info().
		Str("request_id", appctx.GetRequestID(ctx)).
		Str("shape", shape).
		Int("bytes", len(event)).
		Msg("incoming event")

	if err != nil {
		a.lg.Warn().Err(err).Str("shape", shape).Msg("undecodable event")
		return toProxyResponse(reset.MissingFieldsResponse()), nil
	}

	return toProxyResponse(a.h.Handle(ctx, req)), nil
}

func decodeEvent(event json.RawMessage) (reset.Request, string, error) {
	var probe proxyProbe
	_ = json.Unmarshal(event, &probe)

	if probe.Body != nil && (probe.HTTPMethod != "" || len(probe.RequestContext) > 0) {
		payload := []byte(*probe.Body)
		if probe.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(*probe.Body)
			if err != nil {
				return reset.Request{}, "proxy", err
			}
			payload = decoded
		}
		var req reset.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			return reset.Request{}, "proxy", err
		}
		return req, "proxy", nil
	}

	var req reset.Request
	if err := json.Unmarshal(event, &req); err != nil {
		return reset.Request{}, "direct", err
	}
	return req, "direct", nil
}

func toProxyResponse(resp reset.Response) events.APIGatewayProxyResponse {
	body, err := json.Marshal(resp.Body)
	if err != nil {
		body = []byte(`{"error":"` + reset.MsgSendFailed + `"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
