//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/jira-data-client/internal/testutil"
	"github.com/Sternrassler/jira-data-client/pkg/client"
	"github.com/Sternrassler/jira-data-client/pkg/config"
	"github.com/Sternrassler/jira-data-client/pkg/extract"
	"github.com/Sternrassler/jira-data-client/pkg/jira"
)

const (
	wiremockImage = "wiremock/wiremock:3.9.1"
	testEmail     = "integration@example.com"
	testToken     = "integration-token"
)

// wiremock is a running WireMock container acting as the Jira server.
type wiremock struct {
	baseURL string
}

// setupWireMock starts a WireMock container for integration testing.
func setupWireMock(t *testing.T) (*wiremock, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        wiremockImage,
		ExposedPorts: []string{"8080/tcp"},
		WaitingFor:   wait.ForHTTP("/__admin/mappings").WithPort("8080/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start WireMock container")

	host, err := container.Host(ctx)
	require.NoError(t, err, "container host")

	port, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err, "container port")

	cleanup := func() {
		container.Terminate(ctx)
	}

	return &wiremock{baseURL: fmt.Sprintf("http://%s:%s", host, port.Port())}, cleanup
}

// stub registers a mapping through the admin API.
func (w *wiremock) stub(t *testing.T, mapping map[string]any) {
	t.Helper()
	body, err := json.Marshal(mapping)
	require.NoError(t, err)

	resp, err := http.Post(w.baseURL+"/__admin/mappings", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

// stubSearchPage serves one /search page for startAt.
func (w *wiremock) stubSearchPage(t *testing.T, startAt int, issues []map[string]any, total *int) {
	t.Helper()
	page := map[string]any{
		"startAt":    startAt,
		"maxResults": len(issues),
		"issues":     issues,
	}
	if total != nil {
		page["total"] = *total
	}
	w.stub(t, map[string]any{
		"request": map[string]any{
			"method":  "GET",
			"urlPath": testutil.APIPrefix + "/search",
			"queryParameters": map[string]any{
				"startAt": map[string]any{"equalTo": fmt.Sprint(startAt)},
			},
			"basicAuthCredentials": map[string]any{"username": testEmail, "password": testToken},
		},
		"response": map[string]any{
			"status":   http.StatusOK,
			"jsonBody": page,
			"headers":  map[string]any{"Content-Type": "application/json"},
		},
	})
}

// searchCount returns how many /search requests WireMock received.
func (w *wiremock) searchCount(t *testing.T) int {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"method": "GET", "urlPath": testutil.APIPrefix + "/search"})
	resp, err := http.Post(w.baseURL+"/__admin/requests/count", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result.Count
}

func (w *wiremock) api(t *testing.T, token string) *jira.API {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Host = w.baseURL
	cfg.Email = testEmail
	cfg.APIToken = token

	c, err := client.New(cfg)
	require.NoError(t, err)
	return jira.New(c)
}

// TestSearchIssues_FullFlow tests pagination, extraction and auth against a real HTTP server.
func TestSearchIssues_FullFlow(t *testing.T) {
	wm, cleanup := setupWireMock(t)
	defer cleanup()

	all := testutil.SyntheticIssues("INT", 5)
	total := len(all)
	wm.stubSearchPage(t, 0, all[0:2], &total)
	wm.stubSearchPage(t, 2, all[2:4], &total)
	wm.stubSearchPage(t, 4, all[4:5], &total)

	issues, err := wm.api(t, testToken).SearchIssues(context.Background(), jira.Query{
		JQL:      "project = INT",
		Fields:   []string{"summary", "status"},
		PageSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, issues, 5)
	assert.Equal(t, "INT-1", issues[0].Key)
	assert.Equal(t, "INT-5", issues[4].Key)
	assert.Equal(t, 3, wm.searchCount(t))

	records := extract.Fields(issues, []string{"status.name", "assignee.displayName"})
	v, _ := records[2].Get("status.name")
	assert.Equal(t, "Open", v.Data)
	v, _ = records[2].Get("assignee.displayName")
	assert.False(t, v.Present)
}

// TestSearchIssues_UnknownTotal checks the extra request when the final page is full.
func TestSearchIssues_UnknownTotal(t *testing.T) {
	wm, cleanup := setupWireMock(t)
	defer cleanup()

	all := testutil.SyntheticIssues("UNK", 4)
	wm.stubSearchPage(t, 0, all[0:2], nil)
	wm.stubSearchPage(t, 2, all[2:4], nil)
	wm.stubSearchPage(t, 4, []map[string]any{}, nil)

	issues, err := wm.api(t, testToken).SearchIssues(context.Background(), jira.Query{JQL: "project = UNK", PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, issues, 4)
	assert.Equal(t, 3, wm.searchCount(t))
}

// TestSearchIssues_ServerErrorMidway tests that a failing page fails the whole search.
func TestSearchIssues_ServerErrorMidway(t *testing.T) {
	wm, cleanup := setupWireMock(t)
	defer cleanup()

	all := testutil.SyntheticIssues("ERR", 4)
	total := len(all)
	wm.stubSearchPage(t, 0, all[0:2], &total)
	wm.stub(t, map[string]any{
		"request": map[string]any{
			"method":          "GET",
			"urlPath":         testutil.APIPrefix + "/search",
			"queryParameters": map[string]any{"startAt": map[string]any{"equalTo": "2"}},
		},
		"response": map[string]any{
			"status":   http.StatusBadGateway,
			"jsonBody": map[string]any{"errorMessages": []string{"upstream unavailable"}},
		},
	})

	issues, err := wm.api(t, testToken).SearchIssues(context.Background(), jira.Query{JQL: "project = ERR", PageSize: 2})
	require.Error(t, err)
	assert.Nil(t, issues)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, client.ErrorClassServer, apiErr.ErrorClass)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

// TestAuthentication_Rejected tests that a wrong token surfaces as a client error.
func TestAuthentication_Rejected(t *testing.T) {
	wm, cleanup := setupWireMock(t)
	defer cleanup()

	wm.stub(t, map[string]any{
		"priority": 1,
		"request": map[string]any{
			"method":               "GET",
			"urlPath":              testutil.APIPrefix + "/project",
			"basicAuthCredentials": map[string]any{"username": testEmail, "password": testToken},
		},
		"response": map[string]any{
			"status":   http.StatusOK,
			"jsonBody": []map[string]any{{"id": "1", "key": "INT", "name": "Integration"}},
		},
	})
	wm.stub(t, map[string]any{
		"priority": 10,
		"request":  map[string]any{"method": "GET", "urlPath": testutil.APIPrefix + "/project"},
		"response": map[string]any{
			"status":   http.StatusUnauthorized,
			"jsonBody": map[string]any{"errorMessages": []string{"Client must be authenticated to access this resource."}},
		},
	})

	projects, err := wm.api(t, testToken).ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "INT", projects[0].Key)

	_, err = wm.api(t, "wrong-token").ListProjects(context.Background())
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, client.ErrorClassClient, apiErr.ErrorClass)
}
