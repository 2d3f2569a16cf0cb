// Package service 提供排岗业务编排
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/internal/config"
	"github.com/paigang/paigang/internal/metrics"
	"github.com/paigang/paigang/internal/repository"
	"github.com/paigang/paigang/pkg/errors"
	"github.com/paigang/paigang/pkg/logger"
	"github.com/paigang/paigang/pkg/model"
	"github.com/paigang/paigang/pkg/solver"
	"github.com/paigang/paigang/pkg/solver/constraint"
	"github.com/paigang/paigang/pkg/stats"
	"github.com/paigang/paigang/pkg/validator"
)

// SolutionStore 方案存储接口
type SolutionStore interface {
	Create(ctx context.Context, sol *model.Solution) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Solution, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*model.Solution, int, error)
	MarkApplied(ctx context.Context, id uuid.UUID) (*model.Solution, error)
}

// PersonStore 人员存储接口
type PersonStore interface {
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*model.Person, error)
}

// EventStore 活动存储接口
type EventStore interface {
	ListInRange(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]*model.Event, error)
}

// ConstraintStore 约束配置存储接口
type ConstraintStore interface {
	GetForOrg(ctx context.Context, orgID uuid.UUID) (constraint.Set, error)
}

// orgLocks 组织级求解互斥
// 同一组织同时只允许一个求解任务，不排队：后到者立即拒绝
type orgLocks struct {
	mu   sync.Mutex
	busy map[uuid.UUID]bool
}

func newOrgLocks() *orgLocks {
	return &orgLocks{busy: make(map[uuid.UUID]bool)}
}

// TryLock 尝试获取组织锁
func (l *orgLocks) TryLock(orgID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy[orgID] {
		return false
	}
	l.busy[orgID] = true
	return true
}

// Unlock 释放组织锁
func (l *orgLocks) Unlock(orgID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.busy, orgID)
}

// SolveRequest 求解请求
// People/Events/Constraints 为可选内联数据：提供时覆盖存储中的名册，
// 便于试算"如果名册是这样会排成什么样"
type SolveRequest struct {
	OrgID       uuid.UUID
	Range       model.DateRange
	Mode        model.SolveMode
	AnchorID    *uuid.UUID
	People      []*model.Person
	Events      []*model.Event
	Constraints *constraint.Set
}

// SolveService 排岗求解服务
type SolveService struct {
	solutions   SolutionStore
	people      PersonStore
	events      EventStore
	constraints ConstraintStore
	cfg         config.SolverConfig
	analyzer    *stats.Analyzer
	auditor     *validator.Auditor
	locks       *orgLocks
	log         *logger.SolverLogger
}

// NewSolveService 创建求解服务
func NewSolveService(
	solutions SolutionStore,
	people PersonStore,
	events EventStore,
	constraints ConstraintStore,
	cfg config.SolverConfig,
) *SolveService {
	return &SolveService{
		solutions:   solutions,
		people:      people,
		events:      events,
		constraints: constraints,
		cfg:         cfg,
		analyzer:    stats.NewAnalyzer(),
		auditor:     validator.NewAuditor(),
		locks:       newOrgLocks(),
		log:         logger.NewSolverLogger(),
	}
}

// Solve 执行排岗求解并持久化方案
func (s *SolveService) Solve(ctx context.Context, req *SolveRequest) (*model.Solution, error) {
	if req.OrgID == uuid.Nil {
		return nil, errors.InvalidInput("org_id", "不能为空")
	}
	if !req.Mode.Valid() {
		return nil, errors.InvalidInput("mode", "必须为 fresh 或 stabilize")
	}
	tr, err := req.Range.TimeRange()
	if err != nil {
		return nil, errors.InvalidInput("range", err.Error())
	}

	if !s.locks.TryLock(req.OrgID) {
		return nil, errors.SolveInProgress(req.OrgID.String())
	}
	defer s.locks.Unlock(req.OrgID)

	startTime := time.Now()

	set, err := s.loadConstraints(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	people, events, err := s.loadRoster(ctx, req, tr)
	if err != nil {
		return nil, err
	}
	if err := solver.ValidateEvents(events); err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	sctx := solver.NewContext(req.OrgID, tr, people, events)

	anchor, err := s.loadAnchor(ctx, req)
	if err != nil {
		return nil, err
	}
	if anchor != nil {
		sctx.SetAnchor(anchor)
	}

	// 求解超时只作用于求解阶段，持久化不受影响
	solveCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.DefaultTimeout > 0 {
		solveCtx, cancel = context.WithTimeout(ctx, s.cfg.DefaultTimeout)
		defer cancel()
	}

	g := solver.NewGreedy(set)
	if s.cfg.MaxRepairIterations > 0 {
		g.SetMaxRepairIterations(s.cfg.MaxRepairIterations)
	}
	result := g.Solve(solveCtx, sctx)

	sol := s.buildSolution(req, set, result, people)

	// 独立复核：审计失败说明求解器有缺陷，方案仍然落库供排查
	if issues := s.auditor.Audit(sol, people); len(issues) > 0 {
		for _, issue := range issues {
			logger.Error().
				Str("org_id", req.OrgID.String()).
				Str("type", string(issue.Type)).
				Str("slot", issue.Slot).
				Msg("方案审计发现问题: " + issue.Message)
		}
	}

	if err := s.solutions.Create(ctx, sol); err != nil {
		metrics.RecordSolve(string(req.Mode), false, time.Since(startTime))
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "持久化方案失败")
	}

	metrics.RecordSolve(string(req.Mode), true, time.Since(startTime))
	metrics.RecordSolveOutcome(req.OrgID.String(),
		sol.Metrics.HealthScore, sol.Metrics.FairnessStdDev, result.Statistics.FillRate,
		len(result.Unfilled), result.Statistics.RepairSwaps)

	s.log.SolveComplete(req.OrgID.String(), time.Since(startTime),
		sol.Metrics.HealthScore, sol.Metrics.HardViolations)

	return sol, nil
}

// loadConstraints 加载约束集（内联优先）
func (s *SolveService) loadConstraints(ctx context.Context, req *SolveRequest) (constraint.Set, error) {
	if req.Constraints != nil {
		return *req.Constraints, nil
	}
	set, err := s.constraints.GetForOrg(ctx, req.OrgID)
	if err != nil {
		return constraint.Set{}, errors.Wrap(err, errors.CodeDatabaseError, "加载约束集失败")
	}
	return set, nil
}

// loadRoster 加载名册快照（内联优先）
func (s *SolveService) loadRoster(ctx context.Context, req *SolveRequest, tr model.TimeRange) ([]*model.Person, []*model.Event, error) {
	people := req.People
	if people == nil {
		var err error
		people, err = s.people.ListByOrg(ctx, req.OrgID)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CodeDatabaseError, "加载人员名册失败")
		}
	}

	events := req.Events
	if events == nil {
		var err error
		events, err = s.events.ListInRange(ctx, req.OrgID, tr.Start, tr.End)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CodeDatabaseError, "加载活动列表失败")
		}
	}

	return people, events, nil
}

// loadAnchor 加载锚定方案
// 稳定模式必须提供锚定方案ID，且锚定方案必须存在并属于同一组织
func (s *SolveService) loadAnchor(ctx context.Context, req *SolveRequest) (*model.Solution, error) {
	if req.Mode != model.ModeStabilize {
		return nil, nil
	}
	if req.AnchorID == nil {
		return nil, errors.InvalidInput("anchor_id", "稳定模式必须提供锚定方案ID")
	}

	anchor, err := s.solutions.GetByID(ctx, *req.AnchorID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载锚定方案失败")
	}
	if anchor == nil || anchor.OrgID != req.OrgID {
		return nil, errors.AnchorNotFound(req.AnchorID.String())
	}

	return anchor, nil
}

// buildSolution 组装方案记录
func (s *SolveService) buildSolution(req *SolveRequest, set constraint.Set, result *solver.Result, people []*model.Person) *model.Solution {
	return &model.Solution{
		BaseModel:         model.NewBaseModel(),
		OrgID:             req.OrgID,
		StartDate:         req.Range.StartDate,
		EndDate:           req.Range.EndDate,
		Mode:              req.Mode,
		AnchorID:          req.AnchorID,
		ConstraintVersion: set.Version,
		Status:            model.SolutionDraft,
		Incomplete:        result.Incomplete,
		Assignments:       result.Assignments,
		Metrics:           s.analyzer.Compute(people, result.Assignments, len(result.Unfilled), result.SoftScore),
		Violations: model.ViolationReport{
			Unfilled: result.Unfilled,
			Soft:     result.Soft,
		},
	}
}

// GetSolution 获取方案
func (s *SolveService) GetSolution(ctx context.Context, id uuid.UUID) (*model.Solution, error) {
	sol, err := s.solutions.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询方案失败")
	}
	if sol == nil {
		return nil, errors.NotFound("方案", id.String())
	}
	return sol, nil
}

// ListSolutions 列出方案
func (s *SolveService) ListSolutions(ctx context.Context, filter repository.ListFilter) ([]*model.Solution, int, error) {
	solutions, total, err := s.solutions.List(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeDatabaseError, "查询方案列表失败")
	}
	return solutions, total, nil
}

// ApplySolution 标记方案生效
// 幂等：重复调用返回相同结果
func (s *SolveService) ApplySolution(ctx context.Context, id uuid.UUID) (*model.Solution, error) {
	sol, err := s.solutions.MarkApplied(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "标记方案生效失败")
	}
	if sol == nil {
		return nil, errors.NotFound("方案", id.String())
	}

	metrics.RecordSolutionApplied(sol.OrgID.String())
	return sol, nil
}
