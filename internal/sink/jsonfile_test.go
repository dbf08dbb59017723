package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eskrenkovic/catalog-ingest/internal/clock"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func document(id int64, slug string, category string, featured bool) Document {
	body, _ := json.Marshal(documentKeys{ID: id, Slug: slug, Category: category, Featured: featured})
	return Document{ID: id, Slug: slug, Category: category, Featured: featured, Body: body}
}

func readEnvelope[T any](t *testing.T, dir string, name string) Envelope[T] {
	t.Helper()

	content, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	var envelope Envelope[T]
	require.NoError(t, json.Unmarshal(content, &envelope))

	return envelope
}

func Test_Put_Keeps_First_Record_For_A_Slug(t *testing.T) {
	// Arrange
	files, err := OpenJSONFile(t.TempDir(), clock.NewRealClock(), zap.NewNop())
	require.NoError(t, err)

	// Act
	first := files.Put(document(1, "blue-dream", "flores", false))
	second := files.Put(document(2, "blue-dream", "aceites", true))

	// Assert
	require.Equal(t, int64(1), first.AffectedRows)
	require.Equal(t, int64(0), second.AffectedRows)
	require.Equal(t, int64(1), second.InsertedID)
	require.Len(t, files.Products(), 1)
	require.Equal(t, "flores", files.Products()[0].Category)
}

func Test_Finalize_Writes_Three_Artifacts(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	files, err := OpenJSONFile(dir, clock.NewMockClock(now), zap.NewNop())
	require.NoError(t, err)

	files.Put(document(1, "a", "flores", true))
	files.Put(document(2, "b", "flores", false))
	files.Put(document(3, "c", "aceites", true))

	// Act
	err = files.Finalize(context.Background())

	// Assert
	require.NoError(t, err)

	all := readEnvelope[[]documentKeys](t, dir, ProductsArtifact)
	require.True(t, all.Success)
	require.Len(t, all.Data, 3)
	require.True(t, now.Equal(all.Timestamp))

	featured := readEnvelope[[]documentKeys](t, dir, FeaturedArtifact)
	require.Len(t, featured.Data, 2)

	byCategory := readEnvelope[map[string][]documentKeys](t, dir, ByCategoryArtifact)
	require.Len(t, byCategory.Data["flores"], 2)
	require.Len(t, byCategory.Data["aceites"], 1)
}

func Test_Finalize_Writes_Empty_Arrays_For_Empty_Collection(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	files, err := OpenJSONFile(dir, clock.NewRealClock(), zap.NewNop())
	require.NoError(t, err)

	// Act
	err = files.Finalize(context.Background())

	// Assert
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, FeaturedArtifact))
	require.NoError(t, err)
	require.Contains(t, string(content), `"data": []`)
}

func Test_OpenJSONFile_Seeds_From_Previous_Artifact(t *testing.T) {
	// Arrange
	dir := t.TempDir()

	previous, err := OpenJSONFile(dir, clock.NewRealClock(), zap.NewNop())
	require.NoError(t, err)
	previous.Put(document(1, "a", "flores", false))
	previous.Put(document(2, "b", "flores", false))
	require.NoError(t, previous.Finalize(context.Background()))

	// Act
	files, err := OpenJSONFile(dir, clock.NewRealClock(), zap.NewNop())

	// Assert
	require.NoError(t, err)
	require.Len(t, files.Products(), 2)

	id, found := files.Lookup("b")
	require.True(t, found)
	require.Equal(t, int64(2), id)
	require.Equal(t, int64(3), files.NextID())
}

func Test_OpenJSONFile_Ignores_Corrupt_Artifact(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProductsArtifact), []byte("{not json"), 0o600))

	// Act
	files, err := OpenJSONFile(dir, clock.NewRealClock(), zap.NewNop())

	// Assert
	require.NoError(t, err)
	require.Empty(t, files.Products())
	require.Equal(t, int64(1), files.NextID())
}

func Test_Reset_Discards_Collection(t *testing.T) {
	// Arrange
	files, err := OpenJSONFile(t.TempDir(), clock.NewRealClock(), zap.NewNop())
	require.NoError(t, err)
	files.Put(document(1, "a", "flores", false))

	// Act
	files.Reset()

	// Assert
	require.Empty(t, files.Products())
	_, found := files.Lookup("a")
	require.False(t, found)
}
