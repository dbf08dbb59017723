package commands

import (
	"testing"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DecodeIngestFile_Accepts_Bare_Product_List(t *testing.T) {
	// Arrange
	data := []byte(`
	[
		{"name": "Blue Dream", "category": "flores", "base_price": 15000, "priceVariants": [{"quantity": 1, "unit": "g", "price": 15000}]}
	]`)

	// Act
	command, err := DecodeIngestFile(data)

	// Assert
	require.NoError(t, err)
	require.Len(t, command.Products, 1)
	assert.Equal(t, "Blue Dream", command.Products[0].Name)
	assert.Equal(t, "15000", command.Products[0].BasePrice.String())
	require.Len(t, command.Products[0].PriceVariants, 1)
	assert.Empty(t, command.Categories)
}

func Test_DecodeIngestFile_Accepts_Catalog_Object(t *testing.T) {
	// Arrange
	data := []byte(`{
		"categories": [{"slug": "flores", "name": "Flores"}],
		"brands": [{"slug": "dutch-passion", "name": "Dutch Passion"}],
		"products": [{"slug": "blue-dream", "name": "Blue Dream", "category": "flores", "brand": "dutch-passion"}]
	}`)

	// Act
	command, err := DecodeIngestFile(data)

	// Assert
	require.NoError(t, err)
	assert.Len(t, command.Categories, 1)
	assert.Len(t, command.Brands, 1)
	assert.Len(t, command.Products, 1)
}

func Test_DecodeIngestFile_Rejects_Malformed_Input(t *testing.T) {
	// Act
	_, err := DecodeIngestFile([]byte(`{"products": 42}`))

	// Assert
	require.ErrorIs(t, err, core.ErrValidation)
}
