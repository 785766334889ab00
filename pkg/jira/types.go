package jira

// AllFields is the projection sentinel that requests every field.
const AllFields = "*all"

// Issue is a Jira issue. Fields is kept as the decoded JSON tree so that
// custom fields survive untouched; use the extract package to read it.
type Issue struct {
	ID        string         `json:"id" yaml:"id"`
	Key       string         `json:"key" yaml:"key"`
	Self      string         `json:"self,omitempty" yaml:"self,omitempty"`
	Fields    map[string]any `json:"fields" yaml:"fields"`
	Changelog *Changelog     `json:"changelog,omitempty" yaml:"changelog,omitempty"`
}

// Changelog is the change history returned with expand=changelog.
type Changelog struct {
	StartAt    int       `json:"startAt" yaml:"start_at"`
	MaxResults int       `json:"maxResults" yaml:"max_results"`
	Total      int       `json:"total" yaml:"total"`
	Histories  []History `json:"histories" yaml:"histories"`
}

// History is one change set.
type History struct {
	ID      string       `json:"id" yaml:"id"`
	Author  *User        `json:"author,omitempty" yaml:"author,omitempty"`
	Created string       `json:"created" yaml:"created"`
	Items   []ChangeItem `json:"items" yaml:"items"`
}

// ChangeItem is a single field change within a History.
type ChangeItem struct {
	Field      string `json:"field" yaml:"field"`
	FieldType  string `json:"fieldtype" yaml:"field_type"`
	FieldID    string `json:"fieldId,omitempty" yaml:"field_id,omitempty"`
	From       string `json:"from,omitempty" yaml:"from,omitempty"`
	FromString string `json:"fromString,omitempty" yaml:"from_string,omitempty"`
	To         string `json:"to,omitempty" yaml:"to,omitempty"`
	ToString   string `json:"toString,omitempty" yaml:"to_string,omitempty"`
}

// User is the subset of a Jira user shared by authors and assignees.
type User struct {
	AccountID    string `json:"accountId,omitempty" yaml:"account_id,omitempty"`
	DisplayName  string `json:"displayName" yaml:"display_name"`
	EmailAddress string `json:"emailAddress,omitempty" yaml:"email_address,omitempty"`
	Active       bool   `json:"active" yaml:"active"`
}

// Field is an entry of the field catalog.
type Field struct {
	ID          string       `json:"id" yaml:"id"`
	Key         string       `json:"key,omitempty" yaml:"key,omitempty"`
	Name        string       `json:"name" yaml:"name"`
	Custom      bool         `json:"custom" yaml:"custom"`
	Orderable   bool         `json:"orderable" yaml:"orderable"`
	Navigable   bool         `json:"navigable" yaml:"navigable"`
	Searchable  bool         `json:"searchable" yaml:"searchable"`
	ClauseNames []string     `json:"clauseNames,omitempty" yaml:"clause_names,omitempty"`
	Schema      *FieldSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// FieldSchema describes a field's value type.
type FieldSchema struct {
	Type     string `json:"type" yaml:"type"`
	Items    string `json:"items,omitempty" yaml:"items,omitempty"`
	System   string `json:"system,omitempty" yaml:"system,omitempty"`
	Custom   string `json:"custom,omitempty" yaml:"custom,omitempty"`
	CustomID int64  `json:"customId,omitempty" yaml:"custom_id,omitempty"`
}

// Project is an entry of the project list.
type Project struct {
	ID             string `json:"id" yaml:"id"`
	Key            string `json:"key" yaml:"key"`
	Name           string `json:"name" yaml:"name"`
	Self           string `json:"self,omitempty" yaml:"self,omitempty"`
	ProjectTypeKey string `json:"projectTypeKey,omitempty" yaml:"project_type_key,omitempty"`
	Simplified     bool   `json:"simplified" yaml:"simplified"`
	Style          string `json:"style,omitempty" yaml:"style,omitempty"`
}

// IssueTypeStatuses lists the statuses valid for one issue type of a project.
type IssueTypeStatuses struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Self     string   `json:"self,omitempty" yaml:"self,omitempty"`
	Subtask  bool     `json:"subtask" yaml:"subtask"`
	Statuses []Status `json:"statuses" yaml:"statuses"`
}

// Status is a workflow status.
type Status struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name" yaml:"name"`
	Description    string          `json:"description,omitempty" yaml:"description,omitempty"`
	Self           string          `json:"self,omitempty" yaml:"self,omitempty"`
	StatusCategory *StatusCategory `json:"statusCategory,omitempty" yaml:"status_category,omitempty"`
}

// StatusCategory groups statuses into To Do / In Progress / Done.
type StatusCategory struct {
	ID   int    `json:"id" yaml:"id"`
	Key  string `json:"key" yaml:"key"`
	Name string `json:"name" yaml:"name"`
}

// searchResponse is the body of GET /search.
type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}
