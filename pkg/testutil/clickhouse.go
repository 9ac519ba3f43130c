package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scality/log-generator/pkg/clickhouse"
	"github.com/scality/log-generator/pkg/util"
)

// ClickHouseTestHelper provides utilities for testing with ClickHouse
type ClickHouseTestHelper struct {
	Client *clickhouse.Client
}

// NewClickHouseTestHelper connects to the hosts in url and targets a
// database private to the test
func NewClickHouseTestHelper(ctx context.Context, url string) (*ClickHouseTestHelper, error) {
	client, err := clickhouse.NewClient(ctx, clickhouse.Config{
		Hosts:    util.ParseCommaSeparatedHosts(url),
		Username: "default",
		Database: fmt.Sprintf("weblogs_test_%d", time.Now().UnixNano()),
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test ClickHouse: %w", err)
	}

	return &ClickHouseTestHelper{Client: client}, nil
}

// CountRows returns the number of rows in the web logs table
func (h *ClickHouseTestHelper) CountRows(ctx context.Context) (uint64, error) {
	var count uint64
	query := fmt.Sprintf("SELECT count() FROM %s.%s", h.Client.Database(), clickhouse.TableWebLogs)
	if err := h.Client.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// Close drops the test database and closes the connection
func (h *ClickHouseTestHelper) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = h.Client.DropSchema(ctx)
	return h.Client.Close()
}

// FakeInserter is an in-memory loggen.BatchInserter.
// The first FailCount calls return Err.
type FakeInserter struct {
	Err       error
	batches   map[string][]int
	mu        sync.Mutex
	FailCount int
	Calls     int
}

// InsertStructs records the batch
func (f *FakeInserter) InsertStructs(ctx context.Context, table string, rows []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	if f.FailCount > 0 {
		f.FailCount--
		return f.Err
	}
	if f.batches == nil {
		f.batches = make(map[string][]int)
	}
	f.batches[table] = append(f.batches[table], len(rows))
	return nil
}

// BatchSizes returns the sizes of the batches inserted into table
func (f *FakeInserter) BatchSizes(table string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.batches[table]...)
}
