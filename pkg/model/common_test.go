package model

import (
	"testing"
	"time"
)

func TestTimeRange_Overlaps(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a    TimeRange
		b    TimeRange
		want bool
	}{
		{
			name: "部分重叠",
			a:    TimeRange{Start: base, End: base.Add(2 * time.Hour)},
			b:    TimeRange{Start: base.Add(time.Hour), End: base.Add(3 * time.Hour)},
			want: true,
		},
		{
			name: "完全包含",
			a:    TimeRange{Start: base, End: base.Add(4 * time.Hour)},
			b:    TimeRange{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)},
			want: true,
		},
		{
			name: "首尾相接不算重叠",
			a:    TimeRange{Start: base, End: base.Add(time.Hour)},
			b:    TimeRange{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)},
			want: false,
		},
		{
			name: "完全分离",
			a:    TimeRange{Start: base, End: base.Add(time.Hour)},
			b:    TimeRange{Start: base.Add(5 * time.Hour), End: base.Add(6 * time.Hour)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// 重叠关系对称
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateRange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		dr      DateRange
		wantErr bool
	}{
		{"正常范围", DateRange{StartDate: "2026-09-01", EndDate: "2026-09-30"}, false},
		{"单日范围", DateRange{StartDate: "2026-09-01", EndDate: "2026-09-01"}, false},
		{"结束早于开始", DateRange{StartDate: "2026-09-30", EndDate: "2026-09-01"}, true},
		{"开始日期格式错误", DateRange{StartDate: "2026/09/01", EndDate: "2026-09-30"}, true},
		{"结束日期为空", DateRange{StartDate: "2026-09-01", EndDate: ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dr.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestDateRange_TimeRangeIncludesEndDay(t *testing.T) {
	dr := DateRange{StartDate: "2026-09-01", EndDate: "2026-09-07"}

	tr, err := dr.TimeRange()
	if err != nil {
		t.Fatalf("TimeRange() error = %v", err)
	}

	// 结束日当天的活动必须落在范围内
	endDayEvening := time.Date(2026, 9, 7, 20, 0, 0, 0, time.UTC)
	if !tr.Contains(endDayEvening) {
		t.Error("Expected end date evening to be inside the range")
	}
	nextDay := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	if tr.Contains(nextDay) {
		t.Error("Expected the day after end date to be outside the range")
	}
}

func TestAssignment_OverlapsWith(t *testing.T) {
	base := time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)

	a := &Assignment{StartTime: base, EndTime: base.Add(2 * time.Hour)}
	b := &Assignment{StartTime: base.Add(time.Hour), EndTime: base.Add(3 * time.Hour)}
	c := &Assignment{StartTime: base.Add(2 * time.Hour), EndTime: base.Add(3 * time.Hour)}

	if !a.OverlapsWith(b) {
		t.Error("Expected overlapping assignments to report overlap")
	}
	if a.OverlapsWith(c) {
		t.Error("Expected back-to-back assignments to not overlap")
	}
}
