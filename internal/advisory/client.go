// Package advisory implements the client for the external disease-prediction
// service. The service is strictly best-effort: a prediction enriches a
// diagnosis submission, but an unreachable, slow, or confused service must
// never fail one. Suggest therefore returns "no suggestion" on every failure
// mode (transport error, timeout, non-2xx status, malformed body, or a
// predicted name with no catalog entry) and records the reason as a
// warning-level diagnostic only.
//
// Each call is a single attempt bounded by the client timeout; there is no
// retry or backoff.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Resolver maps a predicted disease name to its catalog identifier. It
// reports false when the name is unknown locally.
type Resolver func(name string) (uint, bool)

// DefaultTimeout bounds a prediction round trip when no timeout is
// configured. A few seconds keeps the submission path responsive while
// allowing a cold model service to answer.
const DefaultTimeout = 5 * time.Second

// predictRequest is the wire payload sent to the prediction endpoint.
type predictRequest struct {
	PlantID    uint   `json:"plant_id"`
	SymptomIDs []uint `json:"symptom_ids"`
}

// predictResponse is the expected wire response. A null or empty name means
// the model declined to predict.
type predictResponse struct {
	PredictedDiseaseName *string `json:"predicted_disease_name"`
}

// Client calls the external prediction endpoint.
type Client struct {
	url     string
	http    *http.Client
	resolve Resolver
}

// NewClient returns a Client for the given endpoint URL. timeout <= 0
// selects DefaultTimeout.
func NewClient(url string, timeout time.Duration, resolve Resolver) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:     url,
		http:    &http.Client{Timeout: timeout},
		resolve: resolve,
	}
}

// Suggest asks the prediction service for a disease guess for the given
// plant and observed symptoms. It returns the catalog id of the predicted
// disease, or nil when there is no usable suggestion. It never returns an
// error: every failure degrades to nil.
func (c *Client) Suggest(ctx context.Context, plantID uint, symptomIDs []uint) *uint {
	body, err := json.Marshal(predictRequest{PlantID: plantID, SymptomIDs: symptomIDs})
	if err != nil {
		log.Warn().Err(err).Msg("advisory: encode request")
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Str("url", c.url).Msg("advisory: build request")
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", c.url).Msg("advisory: prediction service unreachable")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Str("url", c.url).
			Msg("advisory: prediction service returned non-2xx")
		return nil
	}

	// Cap the body read; the expected response is tiny.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		log.Warn().Err(err).Msg("advisory: read response")
		return nil
	}

	var pr predictResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		log.Warn().Err(err).Msg("advisory: malformed prediction response")
		return nil
	}
	if pr.PredictedDiseaseName == nil || *pr.PredictedDiseaseName == "" {
		log.Debug().Uint("plant_id", plantID).Msg("advisory: no prediction returned")
		return nil
	}

	id, ok := c.resolve(*pr.PredictedDiseaseName)
	if !ok {
		log.Warn().Str("disease", *pr.PredictedDiseaseName).
			Msg("advisory: predicted disease not in local catalog, ignoring")
		return nil
	}
	return &id
}
