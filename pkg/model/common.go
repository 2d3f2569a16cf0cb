// Package model 定义排岗求解器的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConstraintKind 约束类别
type ConstraintKind string

const (
	ConstraintHard ConstraintKind = "hard" // 硬约束（必须满足）
	ConstraintSoft ConstraintKind = "soft" // 软约束（尽量满足）
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Organization 组织/机构
type Organization struct {
	BaseModel
	Name     string  `json:"name" db:"name"`
	Code     string  `json:"code" db:"code"`
	Settings JSONMap `json:"settings" db:"settings"`
}

// JSONMap 用于存储 JSONB 数据
type JSONMap map[string]interface{}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// DateRange 日期范围
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Validate 检查日期格式和先后顺序
func (dr DateRange) Validate() error {
	start, err := time.Parse("2006-01-02", dr.StartDate)
	if err != nil {
		return fmt.Errorf("开始日期无效: %w", err)
	}
	end, err := time.Parse("2006-01-02", dr.EndDate)
	if err != nil {
		return fmt.Errorf("结束日期无效: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("结束日期 %s 早于开始日期 %s", dr.EndDate, dr.StartDate)
	}
	return nil
}

// TimeRange 将日期范围展开为时间范围（结束日含全天）
func (dr DateRange) TimeRange() (TimeRange, error) {
	if err := dr.Validate(); err != nil {
		return TimeRange{}, err
	}
	start, _ := time.Parse("2006-01-02", dr.StartDate)
	end, _ := time.Parse("2006-01-02", dr.EndDate)
	return TimeRange{Start: start, End: end.AddDate(0, 0, 1)}, nil
}
