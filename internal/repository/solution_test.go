package repository

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
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/internal/database"
	"github.com/paigang/paigang/pkg/model"
)

// stubRecorder 记录驱动层收到的操作序列
// row 为单行查询返回的固定行，nil 表示无结果
type stubRecorder struct {
	mu  sync.Mutex
	ops []string
	row []driver.Value
}

func (r *stubRecorder) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *stubRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

type stubDriver struct{ rec *stubRecorder }

func (d *stubDriver) Open(name string) (driver.Conn, error) {
	return &stubConn{rec: d.rec}, nil
}

type stubConn struct{ rec *stubRecorder }

func (c *stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("预编译语句不支持")
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	c.rec.record("begin")
	return &stubTx{rec: c.rec}, nil
}

func (c *stubConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.rec.record("exec " + compactQuery(query))
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.rec.record("query " + compactQuery(query))
	return &stubRows{values: c.rec.row}, nil
}

type stubTx struct{ rec *stubRecorder }

func (t *stubTx) Commit() error {
	t.rec.record("commit")
	return nil
}

func (t *stubTx) Rollback() error {
	t.rec.record("rollback")
	return nil
}

type stubRows struct {
	values []driver.Value
	done   bool
}

func (r *stubRows) Columns() []string {
	return []string{
		"id", "org_id", "start_date", "end_date", "mode", "anchor_id",
		"constraint_version", "status", "incomplete",
		"assignments", "metrics", "violations", "created_at", "updated_at",
	}
}

func (r *stubRows) Close() error { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.done || r.values == nil {
		return io.EOF
	}
	copy(dest, r.values)
	r.done = true
	return nil
}

func compactQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

var stubSeq int

func newStubDB(t *testing.T, rec *stubRecorder) *database.DB {
	t.Helper()
	stubSeq++
	name := fmt.Sprintf("paigang-stub-%d", stubSeq)
	sql.Register(name, &stubDriver{rec: rec})

	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return database.NewWithConn(db)
}

func solutionRow(id, orgID uuid.UUID, status model.SolutionStatus) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id.String(), orgID.String(), "2026-09-01", "2026-09-07", "fresh", nil,
		"default-v1", string(status), false,
		[]byte("[]"), []byte("{}"), []byte("{}"), now, now,
	}
}

// 降级同组织历史生效方案和本方案生效必须在同一事务内提交
func TestSolutionRepository_MarkAppliedRunsInOneTransaction(t *testing.T) {
	id, orgID := uuid.New(), uuid.New()
	rec := &stubRecorder{row: solutionRow(id, orgID, model.SolutionDraft)}
	repo := NewSolutionRepository(newStubDB(t, rec))

	sol, err := repo.MarkApplied(context.Background(), id)
	if err != nil {
		t.Fatalf("MarkApplied() error = %v", err)
	}
	if sol == nil || !sol.IsApplied() {
		t.Fatal("Expected solution to be marked applied")
	}

	ops := rec.snapshot()
	if len(ops) != 5 {
		t.Fatalf("Expected 5 driver operations, got %d: %v", len(ops), ops)
	}
	if ops[0] != "begin" {
		t.Errorf("Expected transaction to begin before any statement, got %v", ops)
	}
	if !strings.HasPrefix(ops[1], "query") {
		t.Errorf("Expected the load to run inside the transaction, got %v", ops)
	}
	if !strings.Contains(ops[2], "org_id =") {
		t.Errorf("Expected demote statement inside the transaction, got %s", ops[2])
	}
	if !strings.Contains(ops[3], "WHERE id =") {
		t.Errorf("Expected apply statement inside the transaction, got %s", ops[3])
	}
	if ops[4] != "commit" {
		t.Errorf("Expected commit after both statements, got %v", ops)
	}
}

// 对已生效方案重复调用：幂等，不产生任何UPDATE
func TestSolutionRepository_MarkAppliedIdempotentSkipsUpdates(t *testing.T) {
	id, orgID := uuid.New(), uuid.New()
	rec := &stubRecorder{row: solutionRow(id, orgID, model.SolutionApplied)}
	repo := NewSolutionRepository(newStubDB(t, rec))

	sol, err := repo.MarkApplied(context.Background(), id)
	if err != nil {
		t.Fatalf("MarkApplied() error = %v", err)
	}
	if sol == nil || !sol.IsApplied() {
		t.Fatal("Expected applied solution to stay applied")
	}

	for _, op := range rec.snapshot() {
		if strings.HasPrefix(op, "exec") {
			t.Errorf("Expected no update for an already applied solution, got %s", op)
		}
	}
}

// 方案不存在：返回 (nil, nil)，不产生任何UPDATE
func TestSolutionRepository_MarkAppliedMissingSolution(t *testing.T) {
	rec := &stubRecorder{}
	repo := NewSolutionRepository(newStubDB(t, rec))

	sol, err := repo.MarkApplied(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("MarkApplied() error = %v", err)
	}
	if sol != nil {
		t.Errorf("Expected nil solution for missing id, got %+v", sol)
	}

	for _, op := range rec.snapshot() {
		if strings.HasPrefix(op, "exec") {
			t.Errorf("Expected no update for a missing solution, got %s", op)
		}
	}
}
