package sink

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/eskrenkovic/catalog-ingest/internal/clock"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	ProductsArtifact   = "products.json"
	FeaturedArtifact   = "featured-products.json"
	ByCategoryArtifact = "products-by-category.json"
)

// Envelope wraps every artifact the static sink writes.
type Envelope[T any] struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      T         `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Document is one stored product. Body is the serialized product and must
// carry the same id, slug, category and featured values.
type Document struct {
	ID       int64
	Slug     string
	Category string
	Featured bool
	Body     json.RawMessage
}

type documentKeys struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Category string `json:"category"`
	Featured bool   `json:"featured"`
}

// JSONFile is the static sink: an in-memory collection keyed by slug that is
// written out as three artifacts on Finalize.
type JSONFile struct {
	dir    string
	clock  clock.Clock
	logger *zap.Logger

	documents []Document
	index     map[string]int
	nextID    int64
}

// OpenJSONFile prepares dir and seeds the collection from an existing
// products artifact so that re-runs resolve known slugs.
func OpenJSONFile(dir string, clock clock.Clock, logger *zap.Logger) (*JSONFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, core.Connectivity(dir, err)
	}

	f := &JSONFile{
		dir:    dir,
		clock:  clock,
		logger: logger,
	}
	f.Reset()

	if err := f.seed(); err != nil {
		logger.Warn(
			"ignoring unreadable products artifact",
			zap.String("path", filepath.Join(dir, ProductsArtifact)),
			zap.Error(err),
		)
		f.Reset()
	}

	return f, nil
}

func (f *JSONFile) seed() error {
	content, err := os.ReadFile(filepath.Join(f.dir, ProductsArtifact))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var envelope Envelope[[]json.RawMessage]
	if err := json.Unmarshal(content, &envelope); err != nil {
		return err
	}

	for _, body := range envelope.Data {
		var keys documentKeys
		if err := json.Unmarshal(body, &keys); err != nil {
			return err
		}

		if keys.Slug == "" {
			continue
		}

		if keys.ID == 0 {
			keys.ID = f.nextID
		}

		f.Put(Document{
			ID:       keys.ID,
			Slug:     keys.Slug,
			Category: keys.Category,
			Featured: keys.Featured,
			Body:     body,
		})
	}

	f.logger.Debug("seeded static sink", zap.Int("products", len(f.documents)))

	return nil
}

func (f *JSONFile) Dir() string {
	return f.dir
}

func (f *JSONFile) Lookup(slug string) (int64, bool) {
	i, found := f.index[slug]
	if !found {
		return 0, false
	}
	return f.documents[i].ID, true
}

// NextID is the id the next new slug should be stored under.
func (f *JSONFile) NextID() int64 {
	return f.nextID
}

// Put stores doc unless its slug is already held. The first record for a slug wins.
func (f *JSONFile) Put(doc Document) Result {
	if id, found := f.Lookup(doc.Slug); found {
		return Result{AffectedRows: 0, InsertedID: id, HasInsertedID: true}
	}

	if doc.ID == 0 {
		doc.ID = f.nextID
	}

	f.index[doc.Slug] = len(f.documents)
	f.documents = append(f.documents, doc)

	if doc.ID >= f.nextID {
		f.nextID = doc.ID + 1
	}

	return Result{AffectedRows: 1, InsertedID: doc.ID, HasInsertedID: true}
}

func (f *JSONFile) Products() []Document {
	documents := make([]Document, len(f.documents))
	copy(documents, f.documents)
	return documents
}

func (f *JSONFile) Reset() {
	f.documents = nil
	f.index = make(map[string]int)
	f.nextID = 1
}

// Finalize writes the full list, the featured subset and the per-category mapping.
func (f *JSONFile) Finalize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := f.clock.Now()

	all := make([]json.RawMessage, 0, len(f.documents))
	featured := make([]json.RawMessage, 0)
	byCategory := make(map[string][]json.RawMessage)

	for _, doc := range f.documents {
		all = append(all, doc.Body)

		if doc.Featured {
			featured = append(featured, doc.Body)
		}

		byCategory[doc.Category] = append(byCategory[doc.Category], doc.Body)
	}

	if err := f.write(ProductsArtifact, Envelope[[]json.RawMessage]{
		Success:   true,
		Message:   "Products retrieved successfully",
		Data:      all,
		Timestamp: now,
	}); err != nil {
		return err
	}

	if err := f.write(FeaturedArtifact, Envelope[[]json.RawMessage]{
		Success:   true,
		Message:   "Featured products retrieved successfully",
		Data:      featured,
		Timestamp: now,
	}); err != nil {
		return err
	}

	if err := f.write(ByCategoryArtifact, Envelope[map[string][]json.RawMessage]{
		Success:   true,
		Message:   "Products by category retrieved successfully",
		Data:      byCategory,
		Timestamp: now,
	}); err != nil {
		return err
	}

	f.logger.Info(
		"static sink finalized",
		zap.String("dir", f.dir),
		zap.Int("products", len(all)),
		zap.Int("featured", len(featured)),
		zap.Int("categories", len(byCategory)),
	)

	return nil
}

func (f *JSONFile) write(name string, v any) (err error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return core.SerializationFailure(name, err)
	}

	tmp, err := os.CreateTemp(f.dir, "."+name+"-*.tmp")
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(f.dir, name))
}
