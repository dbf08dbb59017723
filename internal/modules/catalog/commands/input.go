package commands

import (
	"bytes"
	"fmt"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"github.com/goccy/go-json"
)

type catalogFile struct {
	Categories []domain.Category `json:"categories"`
	Brands     []domain.Brand    `json:"brands"`
	Products   []domain.Product  `json:"products"`
}

// DecodeIngestFile reads either a bare array of products or an object
// holding categories, brands and products.
func DecodeIngestFile(data []byte) (IngestProductsCommand, error) {
	trimmed := bytes.TrimSpace(data)

	if bytes.HasPrefix(trimmed, []byte("[")) {
		var products []domain.Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return IngestProductsCommand{}, fmt.Errorf("invalid product list: %s: %w", err.Error(), core.ErrValidation)
		}
		return IngestProductsCommand{Products: products}, nil
	}

	var file catalogFile
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return IngestProductsCommand{}, fmt.Errorf("invalid catalog file: %s: %w", err.Error(), core.ErrValidation)
	}

	return IngestProductsCommand{
		Products:   file.Products,
		Categories: file.Categories,
		Brands:     file.Brands,
	}, nil
}
