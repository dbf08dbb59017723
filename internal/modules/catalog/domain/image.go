package domain

import (
	"fmt"
	"strings"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
)

type ProductImage struct {
	ID           int64  `json:"id,omitempty"`
	ProductID    int64  `json:"product_id,omitempty"`
	URL          string `json:"url"`
	AltText      string `json:"alt_text,omitempty"`
	DisplayOrder int    `json:"display_order"`
	IsPrimary    bool   `json:"is_primary"`
}

func (i ProductImage) Validate() error {
	if strings.TrimSpace(i.URL) == "" {
		return fmt.Errorf("image has no url: %w", core.ErrValidation)
	}
	return nil
}

// ArrangeImages puts exactly one primary image first at order 0, chosen as the
// first image flagged primary or else the first image. The rest keep their
// input order from 1.
func ArrangeImages(images []ProductImage) []ProductImage {
	if len(images) == 0 {
		return []ProductImage{}
	}

	primary := 0
	for i, image := range images {
		if image.IsPrimary {
			primary = i
			break
		}
	}

	arranged := make([]ProductImage, 0, len(images))

	first := images[primary]
	first.IsPrimary = true
	first.DisplayOrder = 0
	arranged = append(arranged, first)

	for i, image := range images {
		if i == primary {
			continue
		}

		image.IsPrimary = false
		image.DisplayOrder = len(arranged)
		arranged = append(arranged, image)
	}

	return arranged
}
