package questionbank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"doubt-battle-service/internal/domain"
)

// AuthoringClient talks to the external question-authoring service used for
// custom-topic battles. The contract is "topic + count in, valid Question[]
// out"; anything else surfaces as a generation failure upstream.
type AuthoringClient struct {
	baseURL string
	client  *http.Client
}

func NewAuthoringClient(baseURL string, timeout time.Duration) *AuthoringClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AuthoringClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type composeRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type composeResponse struct {
	Questions []domain.Question `json:"questions"`
}

func (c *AuthoringClient) ComposeQuestions(ctx context.Context, topic string, count int) ([]domain.Question, error) {
	body, err := json.Marshal(composeRequest{Topic: topic, Count: count})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/questions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call authoring service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authoring service returned status %d", resp.StatusCode)
	}

	var decoded composeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded.Questions, nil
}
