// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/model"
)

// SolutionRepositoryInterface 方案仓储接口
type SolutionRepositoryInterface interface {
	Create(ctx context.Context, sol *model.Solution) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Solution, error)
	List(ctx context.Context, filter ListFilter) ([]*model.Solution, int, error)
	MarkApplied(ctx context.Context, id uuid.UUID) (*model.Solution, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SolutionRepository 方案仓储
// 分配、指标和违反报告以JSON列随方案整体读写：
// 方案不可变，不存在对单条分配的部分更新
type SolutionRepository struct {
	db DB
}

// NewSolutionRepository 创建方案仓储
func NewSolutionRepository(db DB) *SolutionRepository {
	return &SolutionRepository{db: db}
}

// Create 创建方案
func (r *SolutionRepository) Create(ctx context.Context, sol *model.Solution) error {
	if sol.ID == uuid.Nil {
		sol.ID = uuid.New()
	}
	now := time.Now()
	sol.CreatedAt = now
	sol.UpdatedAt = now
	if sol.Status == "" {
		sol.Status = model.SolutionDraft
	}

	assignmentsJSON, _ := json.Marshal(sol.Assignments)
	metricsJSON, _ := json.Marshal(sol.Metrics)
	violationsJSON, _ := json.Marshal(sol.Violations)

	query := `
		INSERT INTO solutions (
			id, org_id, start_date, end_date, mode, anchor_id,
			constraint_version, status, incomplete,
			assignments, metrics, violations, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		sol.ID, sol.OrgID, sol.StartDate, sol.EndDate, sol.Mode, sol.AnchorID,
		sol.ConstraintVersion, sol.Status, sol.Incomplete,
		assignmentsJSON, metricsJSON, violationsJSON, sol.CreatedAt, sol.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建方案失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取方案
// 方案不存在时返回 (nil, nil)，由调用方决定是否视为错误
func (r *SolutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Solution, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *SolutionRepository) getByID(ctx context.Context, db DB, id uuid.UUID) (*model.Solution, error) {
	query := solutionColumns + ` FROM solutions WHERE id = $1 AND deleted_at IS NULL`
	sol, err := r.scanSolution(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sol, err
}

// List 列出方案
func (r *SolutionRepository) List(ctx context.Context, filter ListFilter) ([]*model.Solution, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.OrgID != nil {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argNum))
		args = append(args, *filter.OrgID)
		argNum++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("start_date >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}
	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("end_date <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM solutions " + whereClause
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计方案数量失败: %w", err)
	}

	orderBy := "created_at"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	orderDir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		orderDir = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf("%s FROM solutions %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		solutionColumns, whereClause, orderBy, orderDir, argNum, argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询方案列表失败: %w", err)
	}
	defer rows.Close()

	var solutions []*model.Solution
	for rows.Next() {
		sol, err := r.scanSolution(rows)
		if err != nil {
			return nil, 0, err
		}
		solutions = append(solutions, sol)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历方案列表失败: %w", err)
	}

	return solutions, total, nil
}

// txStarter 能开启事务的数据库句柄
type txStarter interface {
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// MarkApplied 标记方案生效
// 幂等：对已生效方案重复调用不报错、不产生额外变更。
// 降级同组织历史生效方案和本方案生效在同一事务内提交，
// 中途失败不会让组织短暂处于无生效方案的状态。
// 仓储句柄本身已在事务内时直接顺序执行
func (r *SolutionRepository) MarkApplied(ctx context.Context, id uuid.UUID) (*model.Solution, error) {
	if starter, ok := r.db.(txStarter); ok {
		var sol *model.Solution
		err := starter.Transaction(ctx, func(tx *sql.Tx) error {
			var txErr error
			sol, txErr = r.markApplied(ctx, tx, id)
			return txErr
		})
		if err != nil {
			return nil, err
		}
		return sol, nil
	}
	return r.markApplied(ctx, r.db, id)
}

func (r *SolutionRepository) markApplied(ctx context.Context, db DB, id uuid.UUID) (*model.Solution, error) {
	sol, err := r.getByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if sol == nil {
		return nil, nil
	}
	if sol.IsApplied() {
		return sol, nil
	}

	now := time.Now()

	// 降级同组织的其它生效方案
	_, err = db.ExecContext(ctx,
		`UPDATE solutions SET status = $1, updated_at = $2 WHERE org_id = $3 AND status = $4 AND deleted_at IS NULL`,
		model.SolutionDraft, now, sol.OrgID, model.SolutionApplied,
	)
	if err != nil {
		return nil, fmt.Errorf("降级历史生效方案失败: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE solutions SET status = $1, updated_at = $2 WHERE id = $3`,
		model.SolutionApplied, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("标记方案生效失败: %w", err)
	}

	sol.Status = model.SolutionApplied
	sol.UpdatedAt = now
	return sol, nil
}

// Delete 软删除方案
func (r *SolutionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE solutions SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("删除方案失败: %w", err)
	}
	return nil
}

const solutionColumns = `
	SELECT id, org_id, start_date, end_date, mode, anchor_id,
		constraint_version, status, incomplete,
		assignments, metrics, violations, created_at, updated_at`

// rowScanner 统一 *sql.Row 和 *sql.Rows 的扫描入口
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSolution 扫描方案行
func (r *SolutionRepository) scanSolution(row rowScanner) (*model.Solution, error) {
	var sol model.Solution
	var assignmentsJSON, metricsJSON, violationsJSON []byte

	err := row.Scan(
		&sol.ID, &sol.OrgID, &sol.StartDate, &sol.EndDate, &sol.Mode, &sol.AnchorID,
		&sol.ConstraintVersion, &sol.Status, &sol.Incomplete,
		&assignmentsJSON, &metricsJSON, &violationsJSON, &sol.CreatedAt, &sol.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("扫描方案行失败: %w", err)
	}

	if len(assignmentsJSON) > 0 {
		if err := json.Unmarshal(assignmentsJSON, &sol.Assignments); err != nil {
			return nil, fmt.Errorf("解析方案分配失败: %w", err)
		}
	}
	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &sol.Metrics); err != nil {
			return nil, fmt.Errorf("解析方案指标失败: %w", err)
		}
	}
	if len(violationsJSON) > 0 {
		if err := json.Unmarshal(violationsJSON, &sol.Violations); err != nil {
			return nil, fmt.Errorf("解析违反报告失败: %w", err)
		}
	}

	return &sol, nil
}
