// Package qdrant implements the vectorstore.Index contract on a Qdrant
// server.
//
// Each record becomes a point whose payload carries the chunk text under the
// "text" key plus the flattened metadata fields as strings. The collection is
// created on first insert with cosine distance, so reported scores follow the
// same 1 - distance convention as the other backends.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	qd "github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"

	"github.com/doctalk-ai/doctalk/pkg/vectorstore"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "document_chunks"

const textPayloadKey = "text"

// Config holds Qdrant index configuration.
type Config struct {
	// URL of the Qdrant server, for example "http://localhost:6334".
	URL string

	// Collection name for storing chunks.
	Collection string

	// Dimension every inserted vector must have. The collection is created
	// with this size.
	Dimension int

	// Optional API key for authentication.
	APIKey string

	// Optional structured logger.
	Logger zerolog.Logger
}

// Index is a Qdrant-backed vector index.
type Index struct {
	client     *qd.Client
	collection string
	dimension  int
	logger     zerolog.Logger
}

// New creates a Qdrant index client. The server is not contacted until the
// first operation.
//
// Example:
//
//	idx, err := qdrant.New(&qdrant.Config{
//	    URL:       "http://localhost:6334",
//	    Dimension: 768,
//	})
func New(config *Config) (*Index, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", config.Dimension)
	}
	if config.Collection == "" {
		config.Collection = DefaultCollection
	}

	parsedURL, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant URL: %w", err)
	}

	port := 6334
	if parsedURL.Port() != "" {
		p, err := strconv.ParseInt(parsedURL.Port(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port: %w", err)
		}
		port = int(p)
	}

	client, err := qd.NewClient(&qd.Config{
		Host:   parsedURL.Hostname(),
		Port:   port,
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	return &Index{
		client:     client,
		collection: config.Collection,
		dimension:  config.Dimension,
		logger:     config.Logger,
	}, nil
}

// Insert upserts records as points. The collection is created on demand.
func (x *Index) Insert(ctx context.Context, records []vectorstore.Record) error {
	if x.client == nil {
		return vectorstore.ErrClosed
	}

	prepared, err := vectorstore.NormalizeRecords(records, x.dimension, x.logger)
	if err != nil {
		return err
	}
	if len(prepared) == 0 {
		x.logger.Warn().Msg("no valid records to insert")
		return nil
	}

	if err := x.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]*qd.PointStruct, 0, len(prepared))
	for _, rec := range prepared {
		payload := map[string]*qd.Value{
			textPayloadKey: qd.NewValueString(rec.Text),
		}
		for key, value := range rec.Metadata.Encode() {
			payload[key] = qd.NewValueString(value)
		}

		points = append(points, &qd.PointStruct{
			Id: &qd.PointId{
				PointIdOptions: &qd.PointId_Uuid{Uuid: rec.ID},
			},
			Vectors: &qd.Vectors{
				VectorsOptions: &qd.Vectors_Vector{
					Vector: &qd.Vector{Data: rec.Vector},
				},
			},
			Payload: payload,
		})
	}

	_, err = x.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: x.collection,
		Points:         points,
		Wait:           qd.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upserting points to collection %s: %w", x.collection, err)
	}
	x.logger.Debug().Int("records", len(points)).Msg("inserted records")
	return nil
}

// Search queries the collection and returns up to k results ranked by
// descending cosine similarity. A missing collection yields no results.
func (x *Index) Search(ctx context.Context, vector []float32, k int) ([]vectorstore.SearchResult, error) {
	if x.client == nil {
		return nil, vectorstore.ErrClosed
	}
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("query vector dimension %d, index requires %d", len(vector), x.dimension)
	}
	if k <= 0 {
		return []vectorstore.SearchResult{}, nil
	}

	exists, err := x.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []vectorstore.SearchResult{}, nil
	}

	points, err := x.client.Query(ctx, &qd.QueryPoints{
		CollectionName: x.collection,
		Query:          qd.NewQuery(vector...),
		Limit:          qd.PtrOf(uint64(k)),
		WithPayload:    qd.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", x.collection, err)
	}

	results := make([]vectorstore.SearchResult, 0, len(points))
	for _, point := range points {
		text, meta := decodePayload(point.Payload)
		results = append(results, vectorstore.SearchResult{
			Text:     text,
			Metadata: meta,
			Score:    vectorstore.ClampScore(float64(point.Score)),
		})
	}
	return results, nil
}

// Count reports the exact number of stored points.
func (x *Index) Count(ctx context.Context) (int, error) {
	if x.client == nil {
		return 0, vectorstore.ErrClosed
	}

	exists, err := x.Exists(ctx)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	count, err := x.client.Count(ctx, &qd.CountPoints{
		CollectionName: x.collection,
		Exact:          qd.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting points in collection %s: %w", x.collection, err)
	}
	return int(count), nil
}

// GetAll scrolls the full collection and returns every stored record.
func (x *Index) GetAll(ctx context.Context) ([]vectorstore.Entry, error) {
	if x.client == nil {
		return nil, vectorstore.ErrClosed
	}

	count, err := x.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []vectorstore.Entry{}, nil
	}

	points, err := x.client.Scroll(ctx, &qd.ScrollPoints{
		CollectionName: x.collection,
		Limit:          qd.PtrOf(uint32(count)),
		WithPayload:    qd.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling collection %s: %w", x.collection, err)
	}

	entries := make([]vectorstore.Entry, 0, len(points))
	for _, point := range points {
		text, meta := decodePayload(point.Payload)
		entries = append(entries, vectorstore.Entry{Text: text, Metadata: meta})
	}
	return entries, nil
}

// Clear drops the collection. It is recreated on the next insert.
func (x *Index) Clear(ctx context.Context) error {
	if x.client == nil {
		return vectorstore.ErrClosed
	}

	exists, err := x.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if err := x.client.DeleteCollection(ctx, x.collection); err != nil {
		return fmt.Errorf("deleting collection %s: %w", x.collection, err)
	}
	x.logger.Info().Str("collection", x.collection).Msg("collection cleared")
	return nil
}

// Exists reports whether the collection is present on the server.
func (x *Index) Exists(ctx context.Context) (bool, error) {
	if x.client == nil {
		return false, vectorstore.ErrClosed
	}
	exists, err := x.client.CollectionExists(ctx, x.collection)
	if err != nil {
		return false, fmt.Errorf("checking collection %s: %w", x.collection, err)
	}
	return exists, nil
}

// Close releases the gRPC connection.
func (x *Index) Close() error {
	if x.client == nil {
		return nil
	}
	err := x.client.Close()
	x.client = nil
	if err != nil {
		return fmt.Errorf("closing qdrant client: %w", err)
	}
	return nil
}

func (x *Index) ensureCollection(ctx context.Context) error {
	exists, err := x.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = x.client.CreateCollection(ctx, &qd.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
			Size:     uint64(x.dimension),
			Distance: qd.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", x.collection, err)
	}
	x.logger.Info().
		Str("collection", x.collection).
		Int("dimension", x.dimension).
		Msg("collection created")
	return nil
}

func decodePayload(payload map[string]*qd.Value) (string, vectorstore.Metadata) {
	var text string
	flat := make(map[string]string, len(payload))
	for key, value := range payload {
		if key == textPayloadKey {
			text = value.GetStringValue()
			continue
		}
		flat[key] = value.GetStringValue()
	}
	return text, vectorstore.DecodeMetadata(flat)
}
