package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"Mira/core"
	"Mira/lib/sl"
)

// Provider is the submit-and-await contract against the generation
// backend. Submit blocks until the backend reports a terminal state and
// returns the raw response body, shape interpretation is the caller's job.
type Provider interface {
	Submit(ctx context.Context, req *GenerationRequest) (json.RawMessage, error)
}

type HTTPProvider struct {
	conf    *core.Config
	log     *slog.Logger
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPProvider(conf *core.Config, log *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		conf:    conf,
		log:     log.With(sl.Module("provider")),
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(conf.Provider.RatePerSecond), 3),
	}
}

// jobEnvelope is how async backends acknowledge a submission before the
// image is ready.
type jobEnvelope struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}

func pendingStatus(status string) bool {
	switch status {
	case "pending", "queued", "in_progress", "IN_QUEUE", "IN_PROGRESS":
		return true
	}
	return false
}

func (p *HTTPProvider) Submit(ctx context.Context, req *GenerationRequest) (json.RawMessage, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	body, err := p.postJSON(ctx, p.conf.Provider.BaseURL+"/generate", req)
	if err != nil {
		return nil, err
	}

	var envelope jobEnvelope
	if json.Unmarshal(body, &envelope) == nil && envelope.Id != "" && pendingStatus(envelope.Status) {
		return p.awaitResult(ctx, envelope.Id)
	}
	return body, nil
}

// awaitResult polls an accepted job until it reaches a terminal state.
// Polling a pending job is part of the submit-and-await contract, the
// request itself is never resubmitted.
func (p *HTTPProvider) awaitResult(ctx context.Context, jobId string) (json.RawMessage, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0 // bounded by ctx, not by the policy

	operation := func() (json.RawMessage, error) {
		body, err := p.getJSON(ctx, p.conf.Provider.BaseURL+"/result/"+jobId)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		var envelope jobEnvelope
		if json.Unmarshal(body, &envelope) == nil && pendingStatus(envelope.Status) {
			return nil, fmt.Errorf("job %s still %s", jobId, envelope.Status)
		}
		return body, nil
	}

	body, err := backoff.RetryWithData(operation, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, fmt.Errorf("awaiting result of job %s: %w", jobId, err)
	}
	return body, nil
}

func (p *HTTPProvider) postJSON(ctx context.Context, url string, payload any) (json.RawMessage, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBytes))
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.conf.Provider.ApiKey))
	req.Header.Set("Content-Type", "application/json")

	return p.do(req)
}

func (p *HTTPProvider) getJSON(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.conf.Provider.ApiKey))

	return p.do(req)
}

func (p *HTTPProvider) do(req *http.Request) (json.RawMessage, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getting response: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			p.log.Error("closing response body", sl.Err(err))
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	p.log.With(
		slog.Int("status", resp.StatusCode),
		sl.Preview(string(body), 200),
	).Debug("provider response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("provider status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
