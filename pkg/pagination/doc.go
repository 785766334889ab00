// Package pagination provides sequential offset pagination for Jira list
// endpoints that return startAt / maxResults / total.
//
// Pages are requested strictly one after another. The loop stops when a page
// comes back shorter than the requested size, or when the offset reaches the
// server-declared total. A total of zero means unknown; only the short-page
// rule applies then, so a full final page costs one extra, empty request.
//
// Example usage:
//
//	source := pagination.PageFetcherFunc[jira.Issue](func(ctx context.Context, startAt, maxResults int) (*pagination.Page[jira.Issue], error) {
//		return api.FetchSearchPage(ctx, query, startAt, maxResults)
//	})
//	issues, err := pagination.NewFetcher(source, pagination.DefaultConfig()).FetchAll(ctx, "search")
//
// The fetcher:
//   - Treats the first non-zero total as authoritative
//   - Preserves server order across pages
//   - Logs progress after every page
//   - Returns no partial data: any page error aborts the whole fetch
package pagination
