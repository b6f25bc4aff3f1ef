package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"
)

type FilterParams struct {
	Query    string
	MinPrice *int
	MaxPrice *int
	Layouts  []string
	Cities   []string
	MinFloor *int
	SortBy   string
	Limit    int64
}

// FilterSearch performs advanced search with filters
func (s *SearchClient) FilterSearch(params FilterParams) ([]UnitDocument, error) {
	var filters []string

	// Price range filter
	if params.MinPrice != nil {
		filters = append(filters, fmt.Sprintf("price_jpy >= %d", *params.MinPrice))
	}
	if params.MaxPrice != nil {
		filters = append(filters, fmt.Sprintf("price_jpy <= %d", *params.MaxPrice))
	}

	// Layout filter
	if len(params.Layouts) > 0 {
		layoutFilters := make([]string, len(params.Layouts))
		for i, layout := range params.Layouts {
			layoutFilters[i] = fmt.Sprintf("layout = '%s'", layout)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(layoutFilters, " OR ")))
	}

	// City filter
	if len(params.Cities) > 0 {
		cityFilters := make([]string, len(params.Cities))
		for i, city := range params.Cities {
			cityFilters[i] = fmt.Sprintf("city_en = '%s'", city)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(cityFilters, " OR ")))
	}

	// Floor filter, e.g. min_floor=2 to skip ground-level units
	if params.MinFloor != nil {
		filters = append(filters, fmt.Sprintf("floor >= %d", *params.MinFloor))
	}

	// Default limit
	if params.Limit == 0 {
		params.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit: params.Limit,
	}

	if len(filters) > 0 {
		searchReq.Filter = strings.Join(filters, " AND ")
	}

	if params.SortBy != "" {
		searchReq.Sort = []string{params.SortBy}
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, searchReq)
	if err != nil {
		return nil, err
	}

	// Convert hits back into documents
	var docs []UnitDocument
	for _, hit := range searchRes.Hits {
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var doc UnitDocument
		if err := json.Unmarshal(hitJSON, &doc); err != nil {
			continue
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
