package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sala-digital/attendance-api/internal/attendance"
	"github.com/sala-digital/attendance-api/internal/dto"
	"github.com/sala-digital/attendance-api/internal/models"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
)

const dashboardCachePrefix = "dashboard:summary"

// DashboardService assembles the school-wide attendance overview for today.
type DashboardService struct {
	events    attendanceEventRepository
	roster    rosterRepository
	config    engineConfigSource
	cache     *CacheService
	logger    *zap.Logger
	policy    attendance.Policy
	threshold int
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewDashboardService constructs the dashboard service. threshold is the
// consecutive-absence count at which a student is flagged.
func NewDashboardService(events attendanceEventRepository, roster rosterRepository, config engineConfigSource, cache *CacheService, logger *zap.Logger, policy attendance.Policy, threshold int, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = 3
	}
	return &DashboardService{
		events:    events,
		roster:    roster,
		config:    config,
		cache:     cache,
		logger:    logger,
		policy:    policy,
		threshold: threshold,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

func tally(counts *dto.DashboardCounts, status attendance.Status) {
	counts.Total++
	switch status {
	case attendance.StatusPresent:
		counts.Present++
	case attendance.StatusLate:
		counts.Late++
	case attendance.StatusAbsent:
		counts.Absent++
	case attendance.StatusPending:
		counts.Pending++
	case attendance.StatusNotApplicable:
		counts.NotApplicable++
	case attendance.StatusConfigMissing:
		counts.ConfigMissing++
	}
}

// Summary builds today's dashboard: per-status counts, per-class breakdown
// and streak alerts. Results are cached per date.
func (s *DashboardService) Summary(ctx context.Context, includeStatuses bool) (*dto.DashboardResponse, error) {
	now := s.now().In(s.policy.Location)
	today := attendance.DateKey(now)

	cacheKey := fmt.Sprintf("%s:%s:%t", dashboardCachePrefix, today, includeStatuses)
	var cached dto.DashboardResponse
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	active := true
	students, _, err := s.roster.List(ctx, models.StudentFilter{Active: &active, PageSize: 1000})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	ids := make([]string, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}
	// The fetch window must cover both the streak lookback and the current
	// month so the month-to-date table works from one query.
	lookbackStart := now.AddDate(0, 0, -s.policy.LookbackDays)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.policy.Location)
	fetchFrom := lookbackStart
	if monthStart.Before(fetchFrom) {
		fetchFrom = monthStart
	}
	eventsByStudent, err := s.events.ListForStudents(ctx, ids, attendance.DateKey(fetchFrom), today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}

	schedules, holidays, err := s.config.EngineConfig(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class configuration")
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.policy.Location)
	resp := &dto.DashboardResponse{
		Date:         today,
		PerClass:     make(map[string]dto.DashboardCounts),
		StreakAlerts: []dto.StreakAlert{},
	}

	for _, student := range students {
		sub := subjectFor(&student)
		events := engineEvents(eventsByStudent[student.ID])

		var todayEvent *attendance.Event
		for i := range events {
			if events[i].Date == today {
				todayEvent = &events[i]
				break
			}
		}

		status := attendance.Evaluate(sub, day, todayEvent, schedules, holidays, s.policy, now)
		tally(&resp.Counts, status)
		classCounts := resp.PerClass[student.ClassKey]
		tally(&classCounts, status)
		resp.PerClass[student.ClassKey] = classCounts

		streak := attendance.ConsecutiveAbsences(sub, events, schedules, holidays, s.policy, now)
		if streak.Count >= s.threshold {
			resp.StreakAlerts = append(resp.StreakAlerts, dto.StreakAlert{
				StudentID:   student.ID,
				FullName:    student.FullName,
				ClassKey:    student.ClassKey,
				ShiftKey:    student.ShiftKey,
				Consecutive: streak.Count,
				AbsentDates: streak.Dates,
			})
		}

		monthly := attendance.MonthlyAbsences(sub, events, now.Year(), now.Month(), schedules, holidays, s.policy, now)
		lates := attendance.MonthlyLates(sub, events, now.Year(), now.Month(), s.policy, now)
		if monthly.Count > 0 || lates.Count > 0 {
			resp.MonthToDate = append(resp.MonthToDate, dto.StudentMonthSummary{
				StudentID:   student.ID,
				FullName:    student.FullName,
				ClassKey:    student.ClassKey,
				Absences:    monthly.Count,
				AbsentDates: monthly.AbsentDates,
				Lates:       lates.Count,
			})
		}

		if includeStatuses {
			var recordedAt *time.Time
			if todayEvent != nil {
				ts := todayEvent.RecordedAt
				recordedAt = &ts
			}
			resp.Statuses = append(resp.Statuses, models.DailyStudentStatus{
				Student:    student,
				Date:       today,
				Status:     status,
				RecordedAt: recordedAt,
			})
		}
	}

	if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return resp, nil
}

// InvalidateCache drops every cached dashboard summary. Called after writes
// that change today's picture.
func (s *DashboardService) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCachePrefix+":*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
