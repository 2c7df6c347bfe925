// Package deepl implements the translator contract against the DeepL
// document translation API.
package deepl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
	"github.com/dharsanguruparan/LinguaDrop/internal/translator"
)

const defaultBaseURL = "https://api-free.deepl.com"

// Client talks to the DeepL document endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client. baseURL may be empty to use the free-tier API.
func New(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("deepl api key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type submitResponse struct {
	DocumentID  string `json:"document_id"`
	DocumentKey string `json:"document_key"`
}

type statusResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Submit uploads the document as multipart form data and returns the
// provider job handle.
func (c *Client) Submit(ctx context.Context, document []byte, filename, sourceLang, targetLang string) (translator.Job, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return translator.Job{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(document); err != nil {
		return translator.Job{}, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.WriteField("source_lang", sourceLang); err != nil {
		return translator.Job{}, fmt.Errorf("write source_lang: %w", err)
	}
	if err := mw.WriteField("target_lang", targetLang); err != nil {
		return translator.Job{}, fmt.Errorf("write target_lang: %w", err)
	}
	if err := mw.Close(); err != nil {
		return translator.Job{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/document", &body)
	if err != nil {
		return translator.Job{}, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return translator.Job{}, fault.Wrap(fault.ProviderUnavailable, "submit document", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusBadRequest {
		return translator.Job{}, fault.Newf(fault.InvalidInput, "provider rejected submission: %s", readErrorBody(resp.Body))
	}
	if resp.StatusCode != http.StatusOK {
		return translator.Job{}, fault.Newf(fault.ProviderUnavailable, "submit returned %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return translator.Job{}, fault.Wrap(fault.ProviderUnavailable, "decode submit response", err)
	}
	if out.DocumentID == "" || out.DocumentKey == "" {
		return translator.Job{}, fault.New(fault.ProviderUnavailable, "submit response missing document id or key")
	}
	return translator.Job{ID: out.DocumentID, Key: out.DocumentKey}, nil
}

// Poll reports the provider-side status of the job.
func (c *Client) Poll(ctx context.Context, job translator.Job) (translator.Status, error) {
	resp, err := c.postKey(ctx, fmt.Sprintf("%s/v2/document/%s", c.baseURL, job.ID), job.Key)
	if err != nil {
		return "", fault.Wrap(fault.ProviderUnavailable, "poll status", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fault.Newf(fault.ProviderUnavailable, "poll returned %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fault.Wrap(fault.ProviderUnavailable, "decode status response", err)
	}
	switch status := translator.Status(out.Status); status {
	case translator.StatusQueued, translator.StatusTranslating, translator.StatusDone, translator.StatusError:
		return status, nil
	default:
		return "", fault.Newf(fault.ProviderUnavailable, "unknown provider status %q", out.Status)
	}
}

// Fetch downloads the translated document bytes.
func (c *Client) Fetch(ctx context.Context, job translator.Job) ([]byte, error) {
	resp, err := c.postKey(ctx, fmt.Sprintf("%s/v2/document/%s/result", c.baseURL, job.ID), job.Key)
	if err != nil {
		return nil, fault.Wrap(fault.ProviderUnavailable, "fetch result", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fault.Newf(fault.ProviderUnavailable, "fetch returned %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.ProviderUnavailable, "read result body", err)
	}
	return data, nil
}

func (c *Client) postKey(ctx context.Context, endpoint, documentKey string) (*http.Response, error) {
	form := url.Values{"document_key": {documentKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.httpClient.Do(req)
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return "no detail"
	}
	return strings.TrimSpace(string(data))
}
