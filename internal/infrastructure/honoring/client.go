package honoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/obligent/obligent/internal/domain"
)

// HonorRequest is the JSON body posted to a fulfillment agent.
type HonorRequest struct {
	AttemptID       string `json:"attempt_id"`
	TransferID      string `json:"transfer_id"`
	DebitAccountID  string `json:"debit_account_id"`
	CreditAccountID string `json:"credit_account_id"`
	Amount          string `json:"amount"`
	Purpose         string `json:"purpose"`
}

// HonorResponse is the agent's answer. SUCCEEDED acknowledges
// fulfillment; PENDING defers to a later callback.
type HonorResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// AgentClient calls fulfillment agents over HTTP with bounded
// exponential-backoff retries.
type AgentClient struct {
	httpClient *http.Client
	maxRetries int
}

// NewAgentClient creates a new AgentClient.
func NewAgentClient(timeout time.Duration, maxRetries int) *AgentClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &AgentClient{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

// Honor posts the request to the agent and returns its reported
// status plus how many calls were made. Network faults and 5xx answers
// are retried; a well-formed answer is returned as-is.
func (c *AgentClient) Honor(ctx context.Context, agent Agent, req HonorRequest) (domain.HonoringStatus, string, int, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", "", 0, err
	}

	var resp HonorResponse

	tries := 0

	operation := func() error {
		tries++

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, agent.URL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer httpResp.Body.Close()

		if httpResp.StatusCode >= 500 {
			return fmt.Errorf("agent %s returned %d", agent.Name, httpResp.StatusCode)
		}

		if httpResp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("agent %s rejected the request with %d", agent.Name, httpResp.StatusCode))
		}

		if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
			return backoff.Permanent(fmt.Errorf("agent %s answer undecodable: %w", agent.Name, err))
		}

		return nil
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries))
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", "", tries, err
	}

	status, err := domain.ParseHonoringStatus(resp.Status)
	if err != nil {
		return "", "", tries, fmt.Errorf("agent %s: %w", agent.Name, err)
	}

	return status, resp.Detail, tries, nil
}
