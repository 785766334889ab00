// Package jira provides typed helpers over the Jira REST API: paginated JQL
// search, single-issue and changelog fetches, the field catalog, projects and
// project statuses.
package jira

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/jira-data-client/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrEmptyQuery is returned when a search is started without JQL.
	ErrEmptyQuery = errors.New("jql query is required")

	// ErrEmptyKey is returned when an issue or project key is empty.
	ErrEmptyKey = errors.New("key is required")
)

// Getter performs authenticated GET requests. *client.Client implements it.
type Getter interface {
	Get(ctx context.Context, path string, params url.Values, out any) error
}

// Query describes a JQL search.
type Query struct {
	// JQL is the query-language filter. Required.
	JQL string

	// Fields is the projection. Empty requests all fields.
	Fields []string

	// PageSize is the number of issues per request. Zero means
	// pagination.DefaultPageSize.
	PageSize int
}

// Projection returns the value sent as the fields parameter.
func (q Query) Projection() string {
	return Projection(q.Fields)
}

// Projection joins fields with commas, or returns AllFields when empty.
func Projection(fields []string) string {
	cleaned := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			cleaned = append(cleaned, f)
		}
	}
	if len(cleaned) == 0 {
		return AllFields
	}
	return strings.Join(cleaned, ",")
}

// API exposes the Jira helpers on top of a Getter.
type API struct {
	getter Getter
	logger zerolog.Logger
}

// New creates an API bound to getter.
func New(getter Getter) *API {
	return &API{
		getter: getter,
		logger: log.With().Str("component", "jira").Logger(),
	}
}

// WithLogger returns the API with a replaced logger.
func (a *API) WithLogger(logger zerolog.Logger) *API {
	a.logger = logger
	return a
}

// SearchIssues returns every issue matching q, in server order, paging
// through /search. Any page failure fails the whole search.
func (a *API) SearchIssues(ctx context.Context, q Query) ([]Issue, error) {
	if strings.TrimSpace(q.JQL) == "" {
		return nil, ErrEmptyQuery
	}

	a.logger.Info().Str("jql", q.JQL).Msg("Searching issues")

	source := pagination.PageFetcherFunc[Issue](func(ctx context.Context, startAt, maxResults int) (*pagination.Page[Issue], error) {
		return a.FetchSearchPage(ctx, q, startAt, maxResults)
	})
	fetcher := pagination.NewFetcher(source, pagination.Config{PageSize: q.PageSize}).
		WithLogger(a.logger)

	issues, err := fetcher.FetchAll(ctx, "search")
	if err != nil {
		a.logger.Error().Err(err).Str("jql", q.JQL).Msg("Error searching issues")
		return nil, fmt.Errorf("search %q: %w", q.JQL, err)
	}
	return issues, nil
}

// FetchSearchPage requests one page of q.
func (a *API) FetchSearchPage(ctx context.Context, q Query, startAt, maxResults int) (*pagination.Page[Issue], error) {
	params := url.Values{}
	params.Set("jql", q.JQL)
	params.Set("startAt", strconv.Itoa(startAt))
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("fields", q.Projection())

	var resp searchResponse
	if err := a.getter.Get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	issues := resp.Issues
	if issues == nil {
		issues = []Issue{}
	}
	return &pagination.Page[Issue]{
		StartAt:    resp.StartAt,
		MaxResults: resp.MaxResults,
		Total:      resp.Total,
		Items:      issues,
	}, nil
}

// GetIssue fetches one issue. With no fields, all fields are returned.
func (a *API) GetIssue(ctx context.Context, key string, fields ...string) (*Issue, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("get issue: %w", ErrEmptyKey)
	}

	params := url.Values{"fields": {Projection(fields)}}
	var issue Issue
	if err := a.getter.Get(ctx, "/issue/"+url.PathEscape(key), params, &issue); err != nil {
		a.logger.Error().Err(err).Str("issue", key).Msg("Error fetching issue")
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}
	return &issue, nil
}

// GetIssueChangelog fetches the change history of an issue.
// An issue without history yields an empty changelog, not nil.
func (a *API) GetIssueChangelog(ctx context.Context, key string) (*Changelog, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("get changelog: %w", ErrEmptyKey)
	}

	params := url.Values{"expand": {"changelog"}}
	var issue Issue
	if err := a.getter.Get(ctx, "/issue/"+url.PathEscape(key), params, &issue); err != nil {
		a.logger.Error().Err(err).Str("issue", key).Msg("Error fetching changelog")
		return nil, fmt.Errorf("get changelog %s: %w", key, err)
	}
	if issue.Changelog == nil {
		return &Changelog{Histories: []History{}}, nil
	}
	return issue.Changelog, nil
}

// ListFields returns the full field catalog.
func (a *API) ListFields(ctx context.Context) ([]Field, error) {
	var fields []Field
	if err := a.getter.Get(ctx, "/field", nil, &fields); err != nil {
		a.logger.Error().Err(err).Msg("Error fetching fields")
		return nil, fmt.Errorf("list fields: %w", err)
	}
	return fields, nil
}

// ListCustomFields returns the custom-defined fields of the catalog.
func (a *API) ListCustomFields(ctx context.Context) ([]Field, error) {
	fields, err := a.ListFields(ctx)
	if err != nil {
		return nil, err
	}
	custom := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Custom {
			custom = append(custom, f)
		}
	}
	return custom, nil
}

// ListProjects returns the projects visible to the authenticated user.
func (a *API) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := a.getter.Get(ctx, "/project", nil, &projects); err != nil {
		a.logger.Error().Err(err).Msg("Error fetching projects")
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetProjectStatuses returns the statuses per issue type of a project.
func (a *API) GetProjectStatuses(ctx context.Context, projectKey string) ([]IssueTypeStatuses, error) {
	if strings.TrimSpace(projectKey) == "" {
		return nil, fmt.Errorf("get project statuses: %w", ErrEmptyKey)
	}

	var statuses []IssueTypeStatuses
	path := "/project/" + url.PathEscape(projectKey) + "/statuses"
	if err := a.getter.Get(ctx, path, nil, &statuses); err != nil {
		a.logger.Error().Err(err).Str("project", projectKey).Msg("Error fetching statuses")
		return nil, fmt.Errorf("get statuses for %s: %w", projectKey, err)
	}
	return statuses, nil
}
