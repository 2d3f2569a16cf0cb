// Package solver 提供排岗求解器
package solver

import (
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/model"
)

// Context 求解上下文
// 求解期间的全部可变状态（滚动计数、最近分配时间、席位占用）
// 都显式挂在上下文上传递，保证求解器可重入、可单独测试
type Context struct {
	OrgID  uuid.UUID
	Range  model.TimeRange
	People []*model.Person
	Events []*model.Event

	// 索引缓存
	personMap map[uuid.UUID]*model.Person
	eventMap  map[uuid.UUID]*model.Event

	// 已提交分配：席位 -> 分配
	occupied map[SlotKey]*model.Assignment

	// 增量状态
	byPerson map[uuid.UUID][]*model.Assignment
	counts   map[uuid.UUID]int
	total    int

	// 锚定方案席位映射（稳定模式）
	anchor map[SlotKey]uuid.UUID

	activePeople int
}

// NewContext 创建求解上下文
func NewContext(orgID uuid.UUID, tr model.TimeRange, people []*model.Person, events []*model.Event) *Context {
	c := &Context{
		OrgID:     orgID,
		Range:     tr,
		People:    people,
		Events:    events,
		personMap: make(map[uuid.UUID]*model.Person, len(people)),
		eventMap:  make(map[uuid.UUID]*model.Event, len(events)),
		occupied:  make(map[SlotKey]*model.Assignment),
		byPerson:  make(map[uuid.UUID][]*model.Assignment),
		counts:    make(map[uuid.UUID]int),
		anchor:    make(map[SlotKey]uuid.UUID),
	}
	for _, p := range people {
		c.personMap[p.ID] = p
		if p.IsActive() {
			c.activePeople++
		}
	}
	for _, e := range events {
		c.eventMap[e.ID] = e
	}
	return c
}

// Fresh 创建共享输入数据的空白上下文
// 终评重放和修复阶段的换岗试算使用
func (c *Context) Fresh() *Context {
	fresh := NewContext(c.OrgID, c.Range, c.People, c.Events)
	fresh.anchor = c.anchor
	return fresh
}

// SetAnchor 载入锚定方案的席位占用
func (c *Context) SetAnchor(anchor *model.Solution) {
	for i := range anchor.Assignments {
		a := &anchor.Assignments[i]
		c.anchor[SlotKey{EventID: a.EventID, Role: a.Role, Ordinal: a.Ordinal}] = a.PersonID
	}
}

// Assign 提交席位分配并更新增量状态
func (c *Context) Assign(slot Slot, personID uuid.UUID) *model.Assignment {
	a := &model.Assignment{
		EventID:   slot.EventID,
		Role:      slot.Role,
		Ordinal:   slot.Ordinal,
		PersonID:  personID,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
	}
	c.occupied[slot.SlotKey] = a
	c.byPerson[personID] = append(c.byPerson[personID], a)
	c.counts[personID]++
	c.total++
	return a
}

// Unassign 撤销席位分配
func (c *Context) Unassign(key SlotKey) {
	a, ok := c.occupied[key]
	if !ok {
		return
	}
	delete(c.occupied, key)

	list := c.byPerson[a.PersonID]
	for i, existing := range list {
		if existing == a {
			c.byPerson[a.PersonID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	c.counts[a.PersonID]--
	c.total--
}

// Occupant 获取席位当前占用的分配
func (c *Context) Occupant(key SlotKey) (*model.Assignment, bool) {
	a, ok := c.occupied[key]
	return a, ok
}

// Person 获取人员（实现 constraint.State）
func (c *Context) Person(id uuid.UUID) *model.Person {
	return c.personMap[id]
}

// Event 获取活动
func (c *Context) Event(id uuid.UUID) *model.Event {
	return c.eventMap[id]
}

// AssignmentsFor 获取人员持有的分配（实现 constraint.State）
func (c *Context) AssignmentsFor(id uuid.UUID) []*model.Assignment {
	return c.byPerson[id]
}

// Count 获取人员分配次数（实现 constraint.State）
func (c *Context) Count(id uuid.UUID) int {
	return c.counts[id]
}

// TotalAssigned 获取已提交分配总数（实现 constraint.State）
func (c *Context) TotalAssigned() int {
	return c.total
}

// PeopleCount 获取可参与排岗的人员总数（实现 constraint.State）
// 停用人员不进候选池，也不计入次数均衡的人头基数
func (c *Context) PeopleCount() int {
	return c.activePeople
}

// LastEndBefore 获取人员在指定时间前最近一次分配的结束时间（实现 constraint.State）
func (c *Context) LastEndBefore(id uuid.UUID, t time.Time) (time.Time, bool) {
	var last time.Time
	found := false
	for _, a := range c.byPerson[id] {
		if a.EndTime.After(t) {
			continue
		}
		if !found || a.EndTime.After(last) {
			last = a.EndTime
			found = true
		}
	}
	return last, found
}

// AnchorPerson 获取锚定方案同席位的人员（实现 constraint.State）
func (c *Context) AnchorPerson(eventID uuid.UUID, role string, ordinal int) (uuid.UUID, bool) {
	id, ok := c.anchor[SlotKey{EventID: eventID, Role: role, Ordinal: ordinal}]
	return id, ok
}
