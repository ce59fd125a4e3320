package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const apiVersion = "7.0"

// Client is a REST client for the work-tracking service. It is safe for
// concurrent use; all state is immutable after construction.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL (the organization
// root, e.g. "https://tracker.example.com/acme"). The personal access token
// is sent via basic auth on every request.
func NewClient(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if token == "" {
		return nil, fmt.Errorf("access token cannot be empty")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{},
	}, nil
}

// listEnvelope is the service's collection response wrapper.
type listEnvelope[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

// GetWorkItem fetches a work item's full field snapshot by id.
func (c *Client) GetWorkItem(ctx context.Context, id int) (*WorkItem, error) {
	var wi WorkItem
	path := fmt.Sprintf("_apis/wit/workitems/%d", id)
	if err := c.get(ctx, path, nil, &wi); err != nil {
		return nil, fmt.Errorf("failed to fetch work item %d: %w", id, err)
	}
	return &wi, nil
}

// GetWorkItemFields fetches a work item restricted to the given field
// reference names. Used for the cheap rank lookup during reordering.
func (c *Client) GetWorkItemFields(ctx context.Context, id int, fields []string) (*WorkItem, error) {
	var wi WorkItem
	path := fmt.Sprintf("_apis/wit/workitems/%d", id)
	params := url.Values{"fields": {strings.Join(fields, ",")}}
	if err := c.get(ctx, path, params, &wi); err != nil {
		return nil, fmt.Errorf("failed to fetch fields of work item %d: %w", id, err)
	}
	return &wi, nil
}

// UpdateWorkItem applies a JSON-Patch document to a work item and returns the
// server's updated copy, which is the source of truth after any write.
func (c *Client) UpdateWorkItem(ctx context.Context, id int, ops []PatchOp) (*WorkItem, error) {
	var wi WorkItem
	path := fmt.Sprintf("_apis/wit/workitems/%d", id)
	if err := c.send(ctx, http.MethodPatch, path, nil, "application/json-patch+json", ops, &wi); err != nil {
		return nil, fmt.Errorf("failed to update work item %d: %w", id, err)
	}
	return &wi, nil
}

// wiqlRequest is the body of a query execution request.
type wiqlRequest struct {
	Query string `json:"query"`
}

// QueryByWiql executes a flat WIQL query scoped to the given project and
// returns matching work-item ids in query order.
func (c *Client) QueryByWiql(ctx context.Context, query, project string) (*QueryResult, error) {
	var result QueryResult
	path := url.PathEscape(project) + "/_apis/wit/wiql"
	if err := c.send(ctx, http.MethodPost, path, nil, "application/json", wiqlRequest{Query: query}, &result); err != nil {
		return nil, fmt.Errorf("failed to execute WIQL query: %w", err)
	}
	return &result, nil
}

// GetTeamsForAreaPath resolves the teams whose area-path associations include
// the given area path. Returns an empty slice (not an error) when no team
// owns the path.
func (c *Client) GetTeamsForAreaPath(ctx context.Context, project, areaPath string) ([]Team, error) {
	var env listEnvelope[Team]
	path := url.PathEscape(project) + "/_apis/work/teams"
	params := url.Values{"areaPath": {areaPath}}
	if err := c.get(ctx, path, params, &env); err != nil {
		return nil, fmt.Errorf("failed to resolve teams for area path %q: %w", areaPath, err)
	}
	return env.Value, nil
}

// GetBoardReferences lists a team's boards (id and name only). The full
// configuration is a separate per-board fetch.
func (c *Client) GetBoardReferences(ctx context.Context, project, team string) ([]BoardReference, error) {
	var env listEnvelope[BoardReference]
	path := url.PathEscape(project) + "/" + url.PathEscape(team) + "/_apis/work/boards"
	if err := c.get(ctx, path, nil, &env); err != nil {
		return nil, fmt.Errorf("failed to list boards for team %q: %w", team, err)
	}
	return env.Value, nil
}

// GetBoard fetches a board's full configuration: fields, columns and allowed
// mappings.
func (c *Client) GetBoard(ctx context.Context, project, team, boardID string) (*Board, error) {
	var board Board
	path := url.PathEscape(project) + "/" + url.PathEscape(team) + "/_apis/work/boards/" + url.PathEscape(boardID)
	if err := c.get(ctx, path, nil, &board); err != nil {
		return nil, fmt.Errorf("failed to fetch board %q for team %q: %w", boardID, team, err)
	}
	return &board, nil
}

// backlogLevel is one backlog level in the team's backlog configuration.
// Board names correspond to backlog level names.
type backlogLevel struct {
	Name     string `json:"name"`
	IsHidden bool   `json:"isHidden"`
}

type backlogConfiguration struct {
	Backlogs []backlogLevel `json:"backlogs"`
}

// GetEnabledBoards derives the enabled-board predicate for a team from its
// backlog configuration: a board is enabled when its backlog level is not
// hidden.
func (c *Client) GetEnabledBoards(ctx context.Context, project, team string) (EnabledBoards, error) {
	var cfg backlogConfiguration
	path := url.PathEscape(project) + "/" + url.PathEscape(team) + "/_apis/work/backlogconfiguration"
	if err := c.get(ctx, path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to fetch backlog configuration for team %q: %w", team, err)
	}
	enabled := make(EnabledBoards, len(cfg.Backlogs))
	for _, level := range cfg.Backlogs {
		enabled[level.Name] = !level.IsHidden
	}
	return enabled, nil
}

// GetWorkItemType fetches a work-item type, including its state-transition
// table.
func (c *Client) GetWorkItemType(ctx context.Context, project, typeName string) (*WorkItemType, error) {
	var wit WorkItemType
	path := url.PathEscape(project) + "/_apis/wit/workitemtypes/" + url.PathEscape(typeName)
	if err := c.get(ctx, path, nil, &wit); err != nil {
		return nil, fmt.Errorf("failed to fetch work item type %q: %w", typeName, err)
	}
	return &wit, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, params, "", nil, out)
}

// send issues one request and decodes the JSON response into out. Non-2xx
// responses become errors carrying the status and response body.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, contentType string, body, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api-version", apiVersion)
	endpoint := c.baseURL + "/" + path + "?" + params.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth("", c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned %s: %s", method, path, resp.Status, string(detail))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
