package search

import (
	"github.com/meilisearch/meilisearch-go"

	"unit-watcher/internal/models"
)

// UnitDocument is the searchable projection of a unit: the display
// fields plus the latest observed price and the inferred floor.
type UnitDocument struct {
	UnitID           int64    `json:"unit_id"`
	PropertyID       int64    `json:"property_id"`
	PropertyNameEN   string   `json:"property_name_en"`
	PropertyNameJA   string   `json:"property_name_ja"`
	UnitNumber       string   `json:"unit_number"`
	Layout           string   `json:"layout"`
	CityEN           string   `json:"city_en"`
	CityJA           string   `json:"city_ja"`
	SizeSquareMeters *float64 `json:"size_square_meters,omitempty"`
	PriceJPY         *int     `json:"price_jpy,omitempty"`
	Floor            *int     `json:"floor,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "units",
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "unit_id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	// Configure searchable attributes
	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"property_name_en",
		"property_name_ja",
		"unit_number",
		"layout",
		"city_en",
		"city_ja",
	})
	if err != nil {
		return err
	}

	// Configure filterable attributes
	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"unit_id",
		"property_id",
		"price_jpy",
		"layout",
		"city_en",
		"floor",
		"size_square_meters",
	})
	if err != nil {
		return err
	}

	// Configure sortable attributes
	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"price_jpy",
		"size_square_meters",
		"rating",
	})
	if err != nil {
		return err
	}

	return nil
}

// BuildDocument projects one unit and its latest availability into a
// search document.
func BuildDocument(unit models.Unit, priceJPY *int, rating *float64) UnitDocument {
	return UnitDocument{
		UnitID:           unit.UnitID,
		PropertyID:       unit.PropertyID,
		PropertyNameEN:   unit.PropertyNameEN,
		PropertyNameJA:   unit.PropertyNameJA,
		UnitNumber:       unit.UnitNumber,
		Layout:           unit.Layout,
		CityEN:           unit.CityEN,
		CityJA:           unit.CityJA,
		SizeSquareMeters: unit.SizeSquareMeters,
		PriceJPY:         priceJPY,
		Floor:            unit.Floor(),
		Rating:           rating,
	}
}

// IndexUnit indexes a single unit document
func (s *SearchClient) IndexUnit(doc UnitDocument) error {
	_, err := s.client.Index(s.index).AddDocuments([]UnitDocument{doc})
	return err
}

// IndexUnits indexes multiple unit documents
func (s *SearchClient) IndexUnits(docs []UnitDocument) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}

// Search searches for units by free text
func (s *SearchClient) Search(query string, limit int64) ([]UnitDocument, error) {
	return s.FilterSearch(FilterParams{Query: query, Limit: limit})
}
