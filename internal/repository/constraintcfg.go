// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/solver/constraint"
)

// ConstraintRepository 约束配置仓储
// 每个组织一份约束集，整体读写。版本号随每次保存更新，
// 方案记录约束版本用于事后追溯求解时的配置
type ConstraintRepository struct {
	db DB
}

// NewConstraintRepository 创建约束配置仓储
func NewConstraintRepository(db DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// GetForOrg 获取组织的约束集
// 组织未配置约束时返回默认约束集
func (r *ConstraintRepository) GetForOrg(ctx context.Context, orgID uuid.UUID) (constraint.Set, error) {
	query := `SELECT version, constraints FROM constraint_sets WHERE org_id = $1`

	var version string
	var constraintsJSON []byte
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(&version, &constraintsJSON)
	if err == sql.ErrNoRows {
		return constraint.DefaultSet(), nil
	}
	if err != nil {
		return constraint.Set{}, fmt.Errorf("查询约束集失败: %w", err)
	}

	set := constraint.Set{Version: version}
	if len(constraintsJSON) > 0 {
		if err := json.Unmarshal(constraintsJSON, &set.Constraints); err != nil {
			return constraint.Set{}, fmt.Errorf("解析约束集失败: %w", err)
		}
	}

	return set, nil
}

// Save 保存组织的约束集（整体覆盖）
func (r *ConstraintRepository) Save(ctx context.Context, orgID uuid.UUID, set constraint.Set) error {
	if err := set.Validate(); err != nil {
		return err
	}

	constraintsJSON, _ := json.Marshal(set.Constraints)

	query := `
		INSERT INTO constraint_sets (org_id, version, constraints, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id) DO UPDATE SET
			version = EXCLUDED.version,
			constraints = EXCLUDED.constraints,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, orgID, set.Version, constraintsJSON, time.Now())
	if err != nil {
		return fmt.Errorf("保存约束集失败: %w", err)
	}

	return nil
}
