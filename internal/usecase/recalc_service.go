package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/challengefit/workout-challenge/internal/domain/recalc"

	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/points"
	"github.com/challengefit/workout-challenge/internal/domain/scoring"
	"github.com/challengefit/workout-challenge/internal/platform/cache"
	"github.com/challengefit/workout-challenge/internal/platform/resilience"
)

const (
	recalcScheduleKey       = "recalc:last_scheduled"
	recalcScheduleStateTTL  = 10 * time.Minute
	recalcStatusSuccess     = "success"
	recalcStatusFailed      = "failed"
	defaultRecalcDebounce   = 30 * time.Second
	defaultRecalcDrainDelay = 10 * time.Second
	defaultRecalcRunBudget  = 30 * time.Minute
	defaultRecalcRetries    = 3
	defaultRecalcWorkers    = 4
)

// RecalcConfig tunes the drain job. Zero values fall back to the defaults.
type RecalcConfig struct {
	DebounceWindow time.Duration
	DrainDelay     time.Duration
	RunBudget      time.Duration
	MaxRetries     int
	MaxWorkers     int
}

func DefaultRecalcConfig() RecalcConfig {
	return RecalcConfig{
		DebounceWindow: defaultRecalcDebounce,
		DrainDelay:     defaultRecalcDrainDelay,
		RunBudget:      defaultRecalcRunBudget,
		MaxRetries:     defaultRecalcRetries,
		MaxWorkers:     defaultRecalcWorkers,
	}
}

func normalizeRecalcConfig(cfg RecalcConfig) RecalcConfig {
	def := DefaultRecalcConfig()
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = def.DebounceWindow
	}
	if cfg.DrainDelay < 0 {
		cfg.DrainDelay = def.DrainDelay
	}
	if cfg.RunBudget <= 0 {
		cfg.RunBudget = def.RunBudget
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = def.MaxWorkers
	}
	return cfg
}

// BatchCompletionNotifier is told about finished recalculation runs.
// Notification failures never fail the run.
type BatchCompletionNotifier interface {
	NotifyBatchCompleted(ctx context.Context, report RecalcRunReport) error
}

type RecalcRunReport struct {
	Skipped      bool                `json:"skipped"`
	MarkerCount  int                 `json:"marker_count"`
	GroupCount   int                 `json:"group_count"`
	SuccessCount int                 `json:"success_count"`
	FailedCount  int                 `json:"failed_count"`
	DurationMs   int64               `json:"duration_ms"`
	Groups       []RecalcGroupResult `json:"groups,omitempty"`
}

type RecalcGroupResult struct {
	UserID       string    `json:"user_id"`
	GoalID       string    `json:"goal_id"`
	AffectedFrom time.Time `json:"affected_from"`
	PointCount   int       `json:"point_count"`
	Status       string    `json:"status"`
	Message      string    `json:"message,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
}

type recalcGroup struct {
	UserID       string
	GoalID       string
	AffectedFrom time.Time
}

// RecalcService owns the marker queue: mutations enqueue (user, goal,
// affected-from) markers, a debounced background drain coalesces them and
// replays capped scoring per group. At most one run executes at a time.
type RecalcService struct {
	markerRepo recalc.Repository
	pointsRepo points.Repository
	goalRepo   goal.Repository
	notifier   BatchCompletionNotifier
	logger     *slog.Logger
	cfg        RecalcConfig
	now        func() time.Time

	running        atomic.Bool
	scheduleFlight resilience.SingleFlight
	scheduleState  *cache.Store
	background     *conc.WaitGroup
}

func NewRecalcService(
	markerRepo recalc.Repository,
	pointsRepo points.Repository,
	goalRepo goal.Repository,
	notifier BatchCompletionNotifier,
	cfg RecalcConfig,
	logger *slog.Logger,
) *RecalcService {
	if logger == nil {
		logger = slog.Default()
	}

	return &RecalcService{
		markerRepo:    markerRepo,
		pointsRepo:    pointsRepo,
		goalRepo:      goalRepo,
		notifier:      notifier,
		logger:        logger,
		cfg:           normalizeRecalcConfig(cfg),
		now:           time.Now,
		scheduleState: cache.NewStore(recalcScheduleStateTTL),
		background:    conc.NewWaitGroup(),
	}
}

// Enqueue records a staleness marker. Markers are append-only rows; the
// drain job coalesces duplicates per (user, goal).
func (s *RecalcService) Enqueue(ctx context.Context, userID, goalID string, affectedFrom time.Time) error {
	return s.markerRepo.Create(ctx, recalc.Marker{
		UserID:       userID,
		GoalID:       goalID,
		AffectedFrom: affectedFrom.UTC(),
		CreatedAt:    s.now().UTC(),
	})
}

// ScheduleDrain arms a delayed background drain unless one was scheduled
// inside the debounce window. Concurrent callers share a single arming.
func (s *RecalcService) ScheduleDrain(ctx context.Context) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.ScheduleDrain")
	defer span.End()

	if s.recentlyScheduled(ctx) {
		return
	}

	s.scheduleFlight.Do(recalcScheduleKey, func() (any, error) {
		if s.recentlyScheduled(ctx) {
			return nil, nil
		}
		s.scheduleState.Set(ctx, recalcScheduleKey, s.now().UTC())

		delay := s.cfg.DrainDelay
		s.background.Go(func() {
			if delay > 0 {
				time.Sleep(delay)
			}
			// Detached from the request context on purpose; the drain
			// outlives the mutation that armed it.
			report, err := s.Run(context.Background())
			switch {
			case err != nil:
				s.logger.Error("recalculation drain failed", "error", err)
			case report.Skipped:
				s.logger.Info("recalculation drain skipped, run already in progress")
			default:
				s.logger.Info("recalculation drain finished",
					"markers", report.MarkerCount,
					"groups", report.GroupCount,
					"failed", report.FailedCount,
					"duration_ms", report.DurationMs,
				)
			}
		})
		return nil, nil
	})
}

func (s *RecalcService) recentlyScheduled(ctx context.Context) bool {
	value, ok := s.scheduleState.Get(ctx, recalcScheduleKey)
	if !ok {
		return false
	}
	last, ok := value.(time.Time)
	if !ok {
		return false
	}
	return s.now().Sub(last) < s.cfg.DebounceWindow
}

// Wait blocks until background drains finish. Used on shutdown.
func (s *RecalcService) Wait() {
	s.background.Wait()
}

// Run drains the marker queue once. A second caller while a run is in
// flight gets a report with Skipped set instead of a concurrent run.
func (s *RecalcService) Run(ctx context.Context) (RecalcRunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.Run")
	defer span.End()

	if !s.running.CompareAndSwap(false, true) {
		return RecalcRunReport{Skipped: true}, nil
	}
	defer s.running.Store(false)

	started := s.now()
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunBudget)
	defer cancel()

	markers, err := s.markerRepo.ListPending(runCtx)
	if err != nil {
		return RecalcRunReport{}, fmt.Errorf("list pending recalc markers: %w", err)
	}

	report := RecalcRunReport{MarkerCount: len(markers)}
	if len(markers) == 0 {
		report.DurationMs = s.now().Sub(started).Milliseconds()
		return report, nil
	}

	groups := coalesceMarkers(markers)
	report.GroupCount = len(groups)

	workerCount := s.cfg.MaxWorkers
	if workerCount > len(groups) {
		workerCount = len(groups)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return report, fmt.Errorf("create recalc worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan RecalcGroupResult, len(groups))
	var workers sync.WaitGroup
	var success, failed atomic.Int32

	for _, group := range groups {
		group := group
		workers.Add(1)
		submitErr := pool.Submit(func() {
			defer workers.Done()

			groupStarted := time.Now()
			row := RecalcGroupResult{
				UserID:       group.UserID,
				GoalID:       group.GoalID,
				AffectedFrom: group.AffectedFrom,
			}

			count, runErr := s.rescoreGroupWithRetry(runCtx, group)
			row.PointCount = count
			row.DurationMs = time.Since(groupStarted).Milliseconds()
			if runErr != nil {
				row.Status = recalcStatusFailed
				row.Message = runErr.Error()
				failed.Add(1)
				s.logger.ErrorContext(runCtx, "rescore group failed",
					"user_id", group.UserID,
					"goal_id", group.GoalID,
					"error", runErr,
				)
			} else {
				row.Status = recalcStatusSuccess
				success.Add(1)
			}
			results <- row
		})
		if submitErr != nil {
			workers.Done()
			failed.Add(1)
			results <- RecalcGroupResult{
				UserID:       group.UserID,
				GoalID:       group.GoalID,
				AffectedFrom: group.AffectedFrom,
				Status:       recalcStatusFailed,
				Message:      submitErr.Error(),
			}
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		report.Groups = append(report.Groups, row)
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		if report.Groups[i].UserID != report.Groups[j].UserID {
			return report.Groups[i].UserID < report.Groups[j].UserID
		}
		return report.Groups[i].GoalID < report.Groups[j].GoalID
	})
	report.SuccessCount = int(success.Load())
	report.FailedCount = int(failed.Load())

	// Consumed markers are removed even when a group failed; failed
	// sequences stay stale until the next mutation re-enqueues them.
	ids := make([]int64, 0, len(markers))
	for _, m := range markers {
		ids = append(ids, m.ID)
	}
	if err := s.markerRepo.DeleteByIDs(runCtx, ids); err != nil {
		return report, fmt.Errorf("delete consumed recalc markers: %w", err)
	}

	report.DurationMs = s.now().Sub(started).Milliseconds()

	if s.notifier != nil {
		if err := s.notifier.NotifyBatchCompleted(runCtx, report); err != nil {
			s.logger.WarnContext(runCtx, "batch completion notify failed", "error", err)
		}
	}
	return report, nil
}

func (s *RecalcService) rescoreGroupWithRetry(ctx context.Context, group recalcGroup) (int, error) {
	var lastErr error
	count := 0
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		n, err := s.rescoreGroup(ctx, group)
		if err == nil {
			return n, nil
		}
		count = n
		lastErr = err
	}
	return count, lastErr
}

// rescoreGroup replays the threshold ladder over the group's point sequence
// in ascending workout order, starting from the coalesced affected-from.
func (s *RecalcService) rescoreGroup(ctx context.Context, group recalcGroup) (int, error) {
	g, ok, err := s.goalRepo.GetByID(ctx, group.GoalID)
	if err != nil {
		return 0, fmt.Errorf("get goal for rescore: %w", err)
	}
	if !ok {
		// Goal deleted after the marker was written.
		return 0, nil
	}

	pts, err := s.pointsRepo.ListByUserGoalFrom(ctx, group.UserID, group.GoalID, group.AffectedFrom)
	if err != nil {
		return 0, fmt.Errorf("list points for rescore: %w", err)
	}

	scorer := scoring.NewScorer(g)
	for _, p := range pts {
		earned := scorer.Score(p.Raw, p.WorkoutStartAt)
		if earned == p.Capped {
			continue
		}
		if err := s.pointsRepo.UpdateCapped(ctx, p.ID, earned); err != nil {
			return len(pts), fmt.Errorf("update capped points: %w", err)
		}
	}
	return len(pts), nil
}

// coalesceMarkers folds markers into one group per (user, goal) keeping the
// earliest affected-from, ordered deterministically.
func coalesceMarkers(markers []recalc.Marker) []recalcGroup {
	byPair := make(map[points.UserGoalPair]time.Time, len(markers))
	for _, m := range markers {
		pair := points.UserGoalPair{UserID: m.UserID, GoalID: m.GoalID}
		from, ok := byPair[pair]
		if !ok || m.AffectedFrom.Before(from) {
			byPair[pair] = m.AffectedFrom
		}
	}

	groups := make([]recalcGroup, 0, len(byPair))
	for pair, from := range byPair {
		groups = append(groups, recalcGroup{UserID: pair.UserID, GoalID: pair.GoalID, AffectedFrom: from})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].UserID != groups[j].UserID {
			return groups[i].UserID < groups[j].UserID
		}
		return groups[i].GoalID < groups[j].GoalID
	})
	return groups
}
