//go:build integration

package qdrant

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/doctalk-ai/doctalk/pkg/vectorstore"
	"github.com/doctalk-ai/doctalk/pkg/vectorstore/storetest"
)

// Requires a running Qdrant server. Set QDRANT_URL to override the default
// localhost address:
//
//	go test -tags integration ./pkg/vectorstore/qdrant/
func qdrantURL() string {
	if url := os.Getenv("QDRANT_URL"); url != "" {
		return url
	}
	return "http://localhost:6334"
}

func TestIndexContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) vectorstore.Index {
		t.Helper()
		idx, err := New(&Config{
			URL:        qdrantURL(),
			Collection: fmt.Sprintf("doctalk_test_%d", time.Now().UnixNano()),
			Dimension:  storetest.Dimension,
		})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		t.Cleanup(func() {
			idx.Clear(context.Background())
			idx.Close()
		})
		return idx
	})
}
