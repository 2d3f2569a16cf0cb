// Package solver 提供排岗求解器
package solver

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/model"
)

// SlotKey 席位键
type SlotKey struct {
	EventID uuid.UUID
	Role    string
	Ordinal int
}

// String 返回席位键的字符串形式（日志和报告使用）
func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.EventID, k.Role, k.Ordinal)
}

// Slot 席位
// 席位是求解器内部的派生单位：一个 (活动, 岗位, 序号) 三元组代表一个待填座位，
// 只在求解期间存在，不落库
type Slot struct {
	SlotKey
	StartTime time.Time
	EndTime   time.Time
}

// TimeRange 返回席位对应活动的时间范围
func (s *Slot) TimeRange() model.TimeRange {
	return model.TimeRange{Start: s.StartTime, End: s.EndTime}
}

// BuildSlots 从活动列表生成全部席位
// 排序固定处理顺序：活动开始时间升序，同时刻按活动ID，再按岗位名、序号升序，
// 相同输入必然产生相同输出
func BuildSlots(events []*model.Event) []Slot {
	sorted := make([]*model.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].StartTime.Equal(sorted[j].StartTime) {
			return sorted[i].StartTime.Before(sorted[j].StartTime)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	var slots []Slot
	for _, ev := range sorted {
		for _, role := range ev.RoleNames() {
			count := ev.Requirements[role]
			for ordinal := 0; ordinal < count; ordinal++ {
				slots = append(slots, Slot{
					SlotKey:   SlotKey{EventID: ev.ID, Role: role, Ordinal: ordinal},
					StartTime: ev.StartTime,
					EndTime:   ev.EndTime,
				})
			}
		}
	}
	return slots
}

// ValidateEvents 校验活动输入
// 岗位名为空或人数非正属于配置错误，须在求解前返回；
// 没有任何人具备某岗位能力不是配置错误，只会产生未填补席位
func ValidateEvents(events []*model.Event) error {
	for _, ev := range events {
		if !ev.EndTime.After(ev.StartTime) {
			return fmt.Errorf("活动 %s 的结束时间不晚于开始时间", ev.ID)
		}
		for role, count := range ev.Requirements {
			if role == "" {
				return fmt.Errorf("活动 %s 包含空岗位名", ev.ID)
			}
			if count <= 0 {
				return fmt.Errorf("活动 %s 岗位 '%s' 的需求人数必须为正数", ev.ID, role)
			}
		}
	}
	return nil
}
