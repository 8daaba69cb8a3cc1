package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultTimeout bounds a single sidecar round trip when the caller's
// context carries no deadline of its own.
const defaultTimeout = 120 * time.Second

// HTTPClient talks JSON over HTTP to the Roslyn sidecar process. One
// POST endpoint per provider operation; expected non-success outcomes
// (conflicts, collisions, skips) come back as structured error bodies
// and are mapped to the package sentinels.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a sidecar client for the given base URL
// (e.g. "http://127.0.0.1:5120").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// errorBody is the sidecar's structured error payload.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// signalErrors maps sidecar error codes to the package sentinels.
var signalErrors = map[string]error{
	"workspace_gone": ErrWorkspaceGone,
	"edit_conflict":  ErrEditConflict,
	"name_collision": ErrNameCollision,
	"rule_skipped":   ErrRuleSkipped,
}

// post sends a JSON request and decodes a JSON response into out.
func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling sidecar %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Code != "" {
			if sentinel, ok := signalErrors[eb.Code]; ok {
				return sentinel
			}
			return fmt.Errorf("sidecar %s failed: %s: %s", path, eb.Code, eb.Message)
		}
		return fmt.Errorf("sidecar %s failed: HTTP %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// LoadWorkspace implements Provider.
func (c *HTTPClient) LoadWorkspace(ctx context.Context, path string) (string, error) {
	var resp struct {
		Handle string `json:"handle"`
	}
	in := map[string]string{"path": path}
	if err := c.post(ctx, "/workspace/load", in, &resp); err != nil {
		return "", err
	}
	return resp.Handle, nil
}

// FindCodeFixes implements Provider.
func (c *HTTPClient) FindCodeFixes(ctx context.Context, handle string, scope Scope) ([]Descriptor, error) {
	var resp struct {
		Fixes []Descriptor `json:"fixes"`
	}
	in := map[string]any{"handle": handle, "scope": scope}
	if err := c.post(ctx, "/fixes/find", in, &resp); err != nil {
		return nil, err
	}
	return resp.Fixes, nil
}

// FindRefactorings implements Provider.
func (c *HTTPClient) FindRefactorings(ctx context.Context, handle string, loc Location) ([]Descriptor, error) {
	var resp struct {
		Refactorings []Descriptor `json:"refactorings"`
	}
	in := map[string]any{"handle": handle, "location": loc}
	if err := c.post(ctx, "/refactorings/find", in, &resp); err != nil {
		return nil, err
	}
	return resp.Refactorings, nil
}

// FindCleanupRules implements Provider.
func (c *HTTPClient) FindCleanupRules(ctx context.Context, profile string) ([]string, error) {
	var resp struct {
		Rules []string `json:"rules"`
	}
	in := map[string]string{"profile": profile}
	if err := c.post(ctx, "/cleanup/rules", in, &resp); err != nil {
		return nil, err
	}
	return resp.Rules, nil
}

// MaterializeEdit implements Provider.
func (c *HTTPClient) MaterializeEdit(ctx context.Context, handle, descriptorRef string) (*ChangeSet, error) {
	var cs ChangeSet
	in := map[string]string{"handle": handle, "descriptorRef": descriptorRef}
	if err := c.post(ctx, "/edit/materialize", in, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

// CommitEdit implements Provider.
func (c *HTTPClient) CommitEdit(ctx context.Context, handle, changeSetRef string) (string, error) {
	var resp struct {
		Handle string `json:"handle"`
	}
	in := map[string]string{"handle": handle, "changeSetRef": changeSetRef}
	if err := c.post(ctx, "/edit/commit", in, &resp); err != nil {
		return "", err
	}
	return resp.Handle, nil
}

// ApplyCleanupRule implements Provider.
func (c *HTTPClient) ApplyCleanupRule(ctx context.Context, handle, ruleID string, scope Scope) (string, *ChangeSet, error) {
	var resp struct {
		Handle    string    `json:"handle"`
		ChangeSet ChangeSet `json:"changeSet"`
	}
	in := map[string]any{"handle": handle, "ruleId": ruleID, "scope": scope}
	if err := c.post(ctx, "/cleanup/apply", in, &resp); err != nil {
		return "", nil, err
	}
	return resp.Handle, &resp.ChangeSet, nil
}

// ComputeRename implements Provider.
func (c *HTTPClient) ComputeRename(ctx context.Context, handle, symbolID, newName string) (*ChangeSet, error) {
	var cs ChangeSet
	in := map[string]string{"handle": handle, "symbolId": symbolID, "newName": newName}
	if err := c.post(ctx, "/rename/compute", in, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}
