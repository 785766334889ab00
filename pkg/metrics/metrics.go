// Package metrics exposes the Prometheus registry used by the Jira client.
// Collectors are defined in the packages that own them (client, pagination)
// to keep those packages free of a metrics dependency cycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registerer. All collectors register
// against it via promauto.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - jira_requests_total{endpoint, status} (Counter): Requests by endpoint template and HTTP status
//   - jira_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint template
//   - jira_errors_total{class} (Counter): Errors by class (client, server, network, unexpected)
//
// Pagination Metrics (pkg/pagination):
//   - jira_pagination_pages_total{operation} (Counter): Pages fetched per paginated operation
//   - jira_pagination_items_total{operation} (Counter): Items accumulated per paginated operation
//
// Endpoint labels are templated (/issue/{key}, /project/{key}/statuses) so
// cardinality stays bounded.
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(jira_errors_total[5m])
//
//   # P95 Search Latency
//   histogram_quantile(0.95, rate(jira_request_duration_seconds_bucket{endpoint="/search"}[5m]))
//
//   # Average Issues per Search Page
//   rate(jira_pagination_items_total{operation="search"}[5m]) /
//   rate(jira_pagination_pages_total{operation="search"}[5m])
