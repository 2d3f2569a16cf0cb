// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/paigang/paigang/internal/repository"
	"github.com/paigang/paigang/internal/service"
	"github.com/paigang/paigang/pkg/errors"
	"github.com/paigang/paigang/pkg/model"
	"github.com/paigang/paigang/pkg/solver/constraint"
)

// SolveHandler 排岗求解处理器
type SolveHandler struct {
	svc *service.SolveService
}

// NewSolveHandler 创建求解处理器
func NewSolveHandler(svc *service.SolveService) *SolveHandler {
	return &SolveHandler{svc: svc}
}

// SolveRequestBody 求解请求体
// people/events/constraints 可选：提供时作为内联名册试算，
// 省略时使用组织在库中的数据
type SolveRequestBody struct {
	OrgID       string          `json:"org_id"`
	StartDate   string          `json:"start_date"` // YYYY-MM-DD
	EndDate     string          `json:"end_date"`   // YYYY-MM-DD
	Mode        string          `json:"mode,omitempty"`
	AnchorID    string          `json:"anchor_id,omitempty"`
	People      []*model.Person `json:"people,omitempty"`
	Events      []*model.Event  `json:"events,omitempty"`
	Constraints *constraint.Set `json:"constraints,omitempty"`
}

// SolveResponse 求解响应
type SolveResponse struct {
	Success  bool            `json:"success"`
	Solution *model.Solution `json:"solution,omitempty"`
}

// Solve 执行排岗求解
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var body SolveRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	orgID, err := uuid.Parse(body.OrgID)
	if err != nil {
		respondError(w, errors.InvalidInput("org_id", "无效的UUID格式"))
		return
	}

	mode := model.SolveMode(body.Mode)
	if body.Mode == "" {
		mode = model.ModeFresh
	}

	req := &service.SolveRequest{
		OrgID:       orgID,
		Range:       model.DateRange{StartDate: body.StartDate, EndDate: body.EndDate},
		Mode:        mode,
		People:      body.People,
		Events:      body.Events,
		Constraints: body.Constraints,
	}

	if body.AnchorID != "" {
		anchorID, err := uuid.Parse(body.AnchorID)
		if err != nil {
			respondError(w, errors.InvalidInput("anchor_id", "无效的UUID格式"))
			return
		}
		req.AnchorID = &anchorID
	}

	sol, err := h.svc.Solve(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SolveResponse{Success: true, Solution: sol})
}

// Get 获取方案
func (h *SolveHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, errors.InvalidInput("id", "无效的UUID格式"))
		return
	}

	sol, err := h.svc.GetSolution(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SolveResponse{Success: true, Solution: sol})
}

// ListResponse 方案列表响应
type ListResponse struct {
	Success   bool              `json:"success"`
	Total     int               `json:"total"`
	Solutions []*model.Solution `json:"solutions"`
}

// List 列出方案
func (h *SolveHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	filter := repository.DefaultListFilter()
	q := r.URL.Query()

	if v := q.Get("org_id"); v != "" {
		orgID, err := uuid.Parse(v)
		if err != nil {
			respondError(w, errors.InvalidInput("org_id", "无效的UUID格式"))
			return
		}
		filter = filter.WithOrgID(orgID)
	}
	if v := q.Get("status"); v != "" {
		filter = filter.WithStatus(v)
	}
	filter = filter.WithDateRange(q.Get("start_date"), q.Get("end_date"))

	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter = filter.WithLimit(limit)
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset >= 0 {
			filter = filter.WithOffset(offset)
		}
	}

	solutions, total, err := h.svc.ListSolutions(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Success: true, Total: total, Solutions: solutions})
}

// Apply 标记方案生效
func (h *SolveHandler) Apply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, errors.InvalidInput("id", "无效的UUID格式"))
		return
	}

	sol, err := h.svc.ApplySolution(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SolveResponse{Success: true, Solution: sol})
}
