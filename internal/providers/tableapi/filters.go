package tableapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"grid-ops-service/internal/providers"
)

// encodeQuery renders a providers.Query as the backend's query-parameter
// dialect: `field=eq.value`, `field=not.is.null`, and
// `or=(a.ilike.*term*,b.ilike.*term*)` for cross-field search.
func encodeQuery(q providers.Query) string {
	params := url.Values{}

	if len(q.Columns) > 0 {
		params.Set("select", strings.Join(q.Columns, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	for _, f := range q.Filters {
		switch f.Op {
		case providers.OpEquals:
			params.Add(f.Field, "eq."+f.Value)
		case providers.OpNotNull:
			params.Add(f.Field, "not.is.null")
		}
	}

	if q.SearchTerm != "" && len(q.SearchFields) > 0 {
		clauses := make([]string, 0, len(q.SearchFields))
		pattern := "*" + escapeSearchTerm(q.SearchTerm) + "*"
		for _, field := range q.SearchFields {
			clauses = append(clauses, fmt.Sprintf("%s.ilike.%s", field, pattern))
		}
		params.Set("or", "("+strings.Join(clauses, ",")+")")
	}

	return params.Encode()
}

// escapeSearchTerm strips characters with meaning in the filter grammar so a
// user-typed term cannot break the predicate syntax.
func escapeSearchTerm(term string) string {
	replacer := strings.NewReplacer(",", " ", "(", " ", ")", " ", "*", " ")
	return strings.TrimSpace(replacer.Replace(term))
}

// parseContentRangeTotal extracts the total from a "0-24/357" style
// Content-Range header. An unknown total ("*") reports not-ok.
func parseContentRangeTotal(header string) (int, bool) {
	if header == "" {
		return 0, false
	}
	parts := strings.Split(header, "/")
	if len(parts) != 2 || parts[1] == "*" {
		return 0, false
	}
	total, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || total < 0 {
		return 0, false
	}
	return total, true
}
