// Package metrics 提供Prometheus监控指标
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry 指标注册表
type Registry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter 计数器
type Counter struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge 仪表盘
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	mu      sync.RWMutex
}

var (
	registry *Registry
	once     sync.Once
)

// GetRegistry 获取全局注册表
func GetRegistry() *Registry {
	once.Do(func() {
		registry = &Registry{
			counters:   make(map[string]*Counter),
			gauges:     make(map[string]*Gauge),
			histograms: make(map[string]*Histogram),
		}
		initDefaultMetrics()
	})
	return registry
}

// initDefaultMetrics 初始化默认指标
func initDefaultMetrics() {
	// 请求计数器
	registry.NewCounter("paigang_http_requests_total", "HTTP请求总数", []string{"method", "path", "status"})

	// 请求延迟直方图
	registry.NewHistogram("paigang_http_request_duration_seconds", "HTTP请求延迟",
		[]string{"method", "path"},
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0})

	// 求解计数器
	registry.NewCounter("paigang_solve_total", "排岗求解次数", []string{"mode", "status"})

	// 求解延迟
	registry.NewHistogram("paigang_solve_duration_seconds", "排岗求解延迟",
		[]string{"mode"},
		[]float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0})

	// 未填补席位计数器
	registry.NewCounter("paigang_unfilled_slots_total", "未填补席位数", []string{"org_id"})

	// 修复换岗计数器
	registry.NewCounter("paigang_repair_swaps_total", "修复阶段换岗次数", []string{"org_id"})

	// 方案健康分
	registry.NewGauge("paigang_solution_health_score", "最近方案健康分", []string{"org_id"})

	// 公平性标准差
	registry.NewGauge("paigang_fairness_std_dev", "最近方案分配次数标准差", []string{"org_id"})

	// 席位填补率
	registry.NewGauge("paigang_fill_rate", "最近方案席位填补率", []string{"org_id"})

	// 方案落地计数器
	registry.NewCounter("paigang_solution_applied_total", "方案落地次数", []string{"org_id"})
}

// NewCounter 创建计数器
func (r *Registry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter := &Counter{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.counters[name] = counter
	return counter
}

// NewGauge 创建仪表盘
func (r *Registry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	gauge := &Gauge{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.gauges[name] = gauge
	return gauge
}

// NewHistogram 创建直方图
func (r *Registry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	histogram := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = histogram
	return histogram
}

// GetCounter 获取计数器
func (r *Registry) GetCounter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// GetGauge 获取仪表盘
func (r *Registry) GetGauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// GetHistogram 获取直方图
func (r *Registry) GetHistogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc 增加计数
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add 增加指定值
func (c *Counter) Add(value float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[labelKey(labelValues)] += value
}

// Set 设置值
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] = value
}

// Add 增加指定值
func (g *Gauge) Add(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] += value
}

// Observe 记录观测值
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)
	if _, exists := h.counts[key]; !exists {
		h.counts[key] = make([]int, len(h.Buckets)+1)
	}

	for i, bucket := range h.Buckets {
		if value <= bucket {
			h.counts[key][i]++
		}
	}
	h.counts[key][len(h.Buckets)]++ // +Inf bucket

	h.sums[key] += value
}

// labelKey 生成标签键
func labelKey(labels []string) string {
	return strings.Join(labels, ",")
}

// formatLabels 格式化标签
func formatLabels(names []string, key string) string {
	vals := strings.Split(key, ",")
	parts := make([]string, 0, len(names))
	for i, name := range names {
		val := ""
		if i < len(vals) {
			val = vals[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, val))
	}
	return strings.Join(parts, ",")
}

// sortedKeys 排序后的映射键（输出顺序稳定）
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Handler 返回Prometheus格式的指标HTTP处理器
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		reg := GetRegistry()
		reg.mu.RLock()
		defer reg.mu.RUnlock()

		for _, counter := range reg.counters {
			fmt.Fprintf(w, "# HELP %s %s\n", counter.Name, counter.Help)
			fmt.Fprintf(w, "# TYPE %s counter\n", counter.Name)

			counter.mu.RLock()
			for _, key := range sortedKeys(counter.values) {
				writeSample(w, counter.Name, counter.Labels, key, counter.values[key])
			}
			counter.mu.RUnlock()
		}

		for _, gauge := range reg.gauges {
			fmt.Fprintf(w, "# HELP %s %s\n", gauge.Name, gauge.Help)
			fmt.Fprintf(w, "# TYPE %s gauge\n", gauge.Name)

			gauge.mu.RLock()
			for _, key := range sortedKeys(gauge.values) {
				writeSample(w, gauge.Name, gauge.Labels, key, gauge.values[key])
			}
			gauge.mu.RUnlock()
		}

		for _, histogram := range reg.histograms {
			fmt.Fprintf(w, "# HELP %s %s\n", histogram.Name, histogram.Help)
			fmt.Fprintf(w, "# TYPE %s histogram\n", histogram.Name)

			histogram.mu.RLock()
			for key, counts := range histogram.counts {
				writeHistogram(w, histogram, key, counts)
			}
			histogram.mu.RUnlock()
		}
	})
}

// writeSample 输出单个样本行
func writeSample(w http.ResponseWriter, name string, labels []string, key string, value float64) {
	if key == "" {
		fmt.Fprintf(w, "%s %f\n", name, value)
		return
	}
	fmt.Fprintf(w, "%s{%s} %f\n", name, formatLabels(labels, key), value)
}

// writeHistogram 输出直方图样本
func writeHistogram(w http.ResponseWriter, h *Histogram, key string, counts []int) {
	cumulative := 0
	for i, bucket := range h.Buckets {
		cumulative += counts[i]
		if key == "" {
			fmt.Fprintf(w, "%s_bucket{le=\"%f\"} %d\n", h.Name, bucket, cumulative)
		} else {
			fmt.Fprintf(w, "%s_bucket{%s,le=\"%f\"} %d\n", h.Name, formatLabels(h.Labels, key), bucket, cumulative)
		}
	}
	cumulative += counts[len(h.Buckets)]
	if key == "" {
		fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", h.Name, cumulative)
		fmt.Fprintf(w, "%s_sum %f\n", h.Name, h.sums[key])
		fmt.Fprintf(w, "%s_count %d\n", h.Name, cumulative)
	} else {
		fmt.Fprintf(w, "%s_bucket{%s,le=\"+Inf\"} %d\n", h.Name, formatLabels(h.Labels, key), cumulative)
		fmt.Fprintf(w, "%s_sum{%s} %f\n", h.Name, formatLabels(h.Labels, key), h.sums[key])
		fmt.Fprintf(w, "%s_count{%s} %d\n", h.Name, formatLabels(h.Labels, key), cumulative)
	}
}

// RecordRequestMetrics 记录请求指标
func RecordRequestMetrics(method, path string, status int, duration time.Duration) {
	reg := GetRegistry()

	if counter := reg.GetCounter("paigang_http_requests_total"); counter != nil {
		counter.Inc(method, path, fmt.Sprintf("%d", status))
	}
	if histogram := reg.GetHistogram("paigang_http_request_duration_seconds"); histogram != nil {
		histogram.Observe(duration.Seconds(), method, path)
	}
}

// RecordSolve 记录求解指标
func RecordSolve(mode string, success bool, duration time.Duration) {
	reg := GetRegistry()

	status := "success"
	if !success {
		status = "failure"
	}

	if counter := reg.GetCounter("paigang_solve_total"); counter != nil {
		counter.Inc(mode, status)
	}
	if histogram := reg.GetHistogram("paigang_solve_duration_seconds"); histogram != nil {
		histogram.Observe(duration.Seconds(), mode)
	}
}

// RecordSolveOutcome 记录方案质量指标
func RecordSolveOutcome(orgID string, health, fairness, fillRate float64, unfilled, swaps int) {
	reg := GetRegistry()

	if gauge := reg.GetGauge("paigang_solution_health_score"); gauge != nil {
		gauge.Set(health, orgID)
	}
	if gauge := reg.GetGauge("paigang_fairness_std_dev"); gauge != nil {
		gauge.Set(fairness, orgID)
	}
	if gauge := reg.GetGauge("paigang_fill_rate"); gauge != nil {
		gauge.Set(fillRate, orgID)
	}
	if counter := reg.GetCounter("paigang_unfilled_slots_total"); counter != nil {
		counter.Add(float64(unfilled), orgID)
	}
	if counter := reg.GetCounter("paigang_repair_swaps_total"); counter != nil {
		counter.Add(float64(swaps), orgID)
	}
}

// RecordSolutionApplied 记录方案落地
func RecordSolutionApplied(orgID string) {
	reg := GetRegistry()
	if counter := reg.GetCounter("paigang_solution_applied_total"); counter != nil {
		counter.Inc(orgID)
	}
}
