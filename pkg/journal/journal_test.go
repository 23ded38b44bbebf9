package journal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_WritesSequencedFiles(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "orders"))
	require.NoError(t, err)
	w.nowFn = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	path, err := w.Record(OrderRecord{
		Action:        ActionPlace,
		Symbol:        "BTCUSDT",
		ClientOrderID: "cid-1",
		Request:       map[string]string{"side": "BUY"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "order_20240301_123000_place_00001.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got OrderRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, got.Success)
	assert.Equal(t, 1, got.Sequence)
	assert.Equal(t, "cid-1", got.ClientOrderID)

	path, err = w.Record(OrderRecord{Action: ActionCancel, Symbol: "BTCUSDT", OrderID: 7}, errors.New("unknown order"))
	require.NoError(t, err)
	assert.Equal(t, "order_20240301_123000_cancel_00002.json", filepath.Base(path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error_message": "unknown order"`)
	assert.Contains(t, string(data), `"success": false`)
}

func TestWriter_ConcurrentSequencesAreUnique(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	const n = 20
	paths := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := w.Write(&OrderRecord{Action: ActionPlace, Symbol: "ETHUSDT"})
			assert.NoError(t, err)
			paths <- p
		}()
	}
	wg.Wait()
	close(paths)

	seen := map[string]bool{}
	for p := range paths {
		seen[p] = true
	}
	assert.Len(t, seen, n)
}

func TestWriter_NilRecord(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	_, err = w.Write(nil)
	require.Error(t, err)
}
