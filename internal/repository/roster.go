// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/model"
)

// PersonRepository 人员仓储
// 岗位能力和不可用日期以JSON列存储，随人员整体读写
type PersonRepository struct {
	db DB
}

// NewPersonRepository 创建人员仓储
func NewPersonRepository(db DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// Create 创建人员
func (r *PersonRepository) Create(ctx context.Context, p *model.Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	rolesJSON, _ := json.Marshal(p.Roles)
	unavailableJSON, _ := json.Marshal(p.Unavailable)

	query := `
		INSERT INTO people (
			id, org_id, name, code, email, status, roles, unavailable, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OrgID, p.Name, p.Code, p.Email, p.Status, rolesJSON, unavailableJSON, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建人员失败: %w", err)
	}

	return nil
}

// Update 更新人员
func (r *PersonRepository) Update(ctx context.Context, p *model.Person) error {
	p.UpdatedAt = time.Now()

	rolesJSON, _ := json.Marshal(p.Roles)
	unavailableJSON, _ := json.Marshal(p.Unavailable)

	query := `
		UPDATE people SET
			name = $2, code = $3, email = $4, status = $5,
			roles = $6, unavailable = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Code, p.Email, p.Status, rolesJSON, unavailableJSON, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新人员失败: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("人员 %s 不存在", p.ID)
	}

	return nil
}

// GetByID 根据ID获取人员
func (r *PersonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	query := personColumns + ` FROM people WHERE id = $1 AND deleted_at IS NULL`
	p, err := r.scanPerson(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListByOrg 列出组织的全部未删除人员
// 求解名册快照使用：按ID排序保证快照顺序稳定
func (r *PersonRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*model.Person, error) {
	query := personColumns + ` FROM people WHERE org_id = $1 AND deleted_at IS NULL ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("查询人员列表失败: %w", err)
	}
	defer rows.Close()

	var people []*model.Person
	for rows.Next() {
		p, err := r.scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历人员列表失败: %w", err)
	}

	return people, nil
}

// Delete 软删除人员
func (r *PersonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE people SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("删除人员失败: %w", err)
	}
	return nil
}

const personColumns = `
	SELECT id, org_id, name, code, email, status, roles, unavailable, created_at, updated_at`

// scanPerson 扫描人员行
func (r *PersonRepository) scanPerson(row rowScanner) (*model.Person, error) {
	var p model.Person
	var rolesJSON, unavailableJSON []byte

	err := row.Scan(
		&p.ID, &p.OrgID, &p.Name, &p.Code, &p.Email, &p.Status,
		&rolesJSON, &unavailableJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("扫描人员行失败: %w", err)
	}

	if len(rolesJSON) > 0 {
		if err := json.Unmarshal(rolesJSON, &p.Roles); err != nil {
			return nil, fmt.Errorf("解析岗位能力失败: %w", err)
		}
	}
	if len(unavailableJSON) > 0 {
		if err := json.Unmarshal(unavailableJSON, &p.Unavailable); err != nil {
			return nil, fmt.Errorf("解析不可用日期失败: %w", err)
		}
	}

	return &p, nil
}

// EventRepository 活动仓储
type EventRepository struct {
	db DB
}

// NewEventRepository 创建活动仓储
func NewEventRepository(db DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create 创建活动
func (r *EventRepository) Create(ctx context.Context, ev *model.Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	now := time.Now()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	requirementsJSON, _ := json.Marshal(ev.Requirements)

	query := `
		INSERT INTO events (
			id, org_id, name, start_time, end_time, requirements, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		ev.ID, ev.OrgID, ev.Name, ev.StartTime, ev.EndTime, requirementsJSON, ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建活动失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取活动
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	query := eventColumns + ` FROM events WHERE id = $1 AND deleted_at IS NULL`
	ev, err := r.scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ev, err
}

// ListInRange 列出组织在时间范围内开始的活动
// 求解快照使用：以活动开始时间落入范围为准
func (r *EventRepository) ListInRange(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]*model.Event, error) {
	query := eventColumns + `
		FROM events
		WHERE org_id = $1 AND start_time >= $2 AND start_time < $3 AND deleted_at IS NULL
		ORDER BY start_time, id`

	rows, err := r.db.QueryContext(ctx, query, orgID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询活动列表失败: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		ev, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历活动列表失败: %w", err)
	}

	return events, nil
}

// Delete 软删除活动
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE events SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("删除活动失败: %w", err)
	}
	return nil
}

const eventColumns = `
	SELECT id, org_id, name, start_time, end_time, requirements, created_at, updated_at`

// scanEvent 扫描活动行
func (r *EventRepository) scanEvent(row rowScanner) (*model.Event, error) {
	var ev model.Event
	var requirementsJSON []byte

	err := row.Scan(
		&ev.ID, &ev.OrgID, &ev.Name, &ev.StartTime, &ev.EndTime,
		&requirementsJSON, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("扫描活动行失败: %w", err)
	}

	if len(requirementsJSON) > 0 {
		if err := json.Unmarshal(requirementsJSON, &ev.Requirements); err != nil {
			return nil, fmt.Errorf("解析岗位需求失败: %w", err)
		}
	}

	return &ev, nil
}
