package opentdb

import (
	"context"
	"errors"
	"net/url"

	"cogniquiz-service/internal/domain"
	"go.uber.org/zap"
)

type tokenResponse struct {
	ResponseCode    int    `json:"response_code"`
	ResponseMessage string `json:"response_message"`
	Token           string `json:"token"`
}

// Acquire requests a fresh session token. Every call issues its own request so
// each caller owns a distinct token; callers dedupe their own retries.
func (c *Client) Acquire(ctx context.Context) (string, error) {
	return c.tokenCall(ctx, url.Values{"command": {"request"}}, domain.ErrTokenAcquisition)
}

// Reset exchanges token for a fresh one, clearing the questions it has already served.
func (c *Client) Reset(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", &domain.ServiceError{Kind: domain.ErrTokenReset, Code: -1, Detail: "no token to reset"}
	}
	result, err, _ := c.sf.Do("token:reset:"+token, func() (interface{}, error) {
		return c.tokenCall(ctx, url.Values{"command": {"reset"}, "token": {token}}, domain.ErrTokenReset)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) tokenCall(ctx context.Context, query url.Values, kind error) (string, error) {
	var body tokenResponse
	if err := c.getJSON(ctx, "/api_token.php", query, &body); err != nil {
		c.log.Warn("token call failed", zap.String("command", query.Get("command")), zap.Error(err))
		svcErr := &domain.ServiceError{Kind: kind, Code: -1, Err: err}
		if errors.Is(err, domain.ErrRateLimited) {
			svcErr.Detail = "rate limit exceeded"
		}
		return "", svcErr
	}
	if body.ResponseCode != 0 || body.Token == "" {
		detail := body.ResponseMessage
		if detail == "" {
			detail = "the service rejected the request"
		}
		return "", &domain.ServiceError{Kind: kind, Code: body.ResponseCode, Detail: detail}
	}
	c.log.Info("session token issued", zap.String("command", query.Get("command")))
	return body.Token, nil
}
