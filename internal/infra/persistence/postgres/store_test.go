package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"labcore/pkg/domain"
)

// memConn is a stub driver connection backed by an in-process bucket map, so
// the snapshot round-trip can be exercised without a running server.
type memConn struct {
	mu      sync.Mutex
	execs   []string
	buckets map[string][]byte
}

func newMemConn() *memConn { return &memConn{buckets: make(map[string][]byte)} }

func (c *memConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare unused") }
func (c *memConn) Close() error                        { return nil }
func (c *memConn) Begin() (driver.Tx, error)           { return memTx{}, nil }

func (c *memConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, query)
	if strings.HasPrefix(query, "INSERT INTO state") {
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("bucket arg %T", args[0].Value)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("payload arg %T", args[1].Value)
		}
		c.buckets[bucket] = append([]byte(nil), payload...)
	}
	return driver.RowsAffected(1), nil
}

func (c *memConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !strings.HasPrefix(query, "SELECT bucket, payload FROM state") {
		return nil, fmt.Errorf("unexpected query %q", query)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := &memRows{}
	for bucket, payload := range c.buckets {
		rows.entries = append(rows.entries, [2]any{bucket, append([]byte(nil), payload...)})
	}
	return rows, nil
}

type memTx struct{}

func (memTx) Commit() error   { return nil }
func (memTx) Rollback() error { return nil }

type memRows struct {
	entries [][2]any
	pos     int
}

func (r *memRows) Columns() []string { return []string{"bucket", "payload"} }
func (r *memRows) Close() error      { return nil }

func (r *memRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.entries) {
		return io.EOF
	}
	dest[0] = r.entries[r.pos][0]
	dest[1] = r.entries[r.pos][1]
	r.pos++
	return nil
}

type memConnector struct{ conn *memConn }

func (c memConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c memConnector) Driver() driver.Driver                        { return nil }

func openStub(conn *memConn) func() {
	return OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.OpenDB(memConnector{conn: conn}), nil
	})
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	conn := newMemConn()
	restore := openStub(conn)
	defer restore()

	if _, err := NewStore("", domain.NewRulesEngine()); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	sawDDL := false
	for _, stmt := range conn.execs {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS state") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state-table DDL, got execs: %v", conn.execs)
	}
}

func TestRunInTransactionPersistsAndReloads(t *testing.T) {
	conn := newMemConn()
	restore := openStub(conn)
	defer restore()

	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	var plateID int64
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		config, err := tx.CreatePlateConfiguration(domain.PlateConfiguration{Description: "96-well", NumRows: 8, NumColumns: 12})
		if err != nil {
			return err
		}
		plate, err := tx.CreatePlate(domain.Plate{ExternalID: "persisted", PlateConfigurationID: config.ID})
		plateID = plate.ID
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if len(conn.buckets) == 0 {
		t.Fatal("commit wrote no snapshot buckets")
	}

	reloaded, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	plate, ok := reloaded.GetPlate(plateID)
	if !ok || plate.ExternalID != "persisted" {
		t.Fatalf("plate not reloaded: %+v", plate)
	}
}

func TestNewStorePropagatesOpenError(t *testing.T) {
	boom := errors.New("refused")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, boom })
	defer restore()

	if _, err := NewStore("", domain.NewRulesEngine()); !errors.Is(err, boom) {
		t.Fatalf("expected open error, got %v", err)
	}
}
