package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/drivesynth/internal/config"
	"github.com/langchou/drivesynth/internal/generator"
	"github.com/langchou/drivesynth/internal/models"
	"github.com/langchou/drivesynth/internal/repository"
	"github.com/langchou/drivesynth/internal/state"
	"github.com/langchou/drivesynth/pkg/ws"
)

var (
	// ErrRunNotFound 任务不存在
	ErrRunNotFound = errors.New("run not found")
	// ErrRunNotReady 任务尚未成功完成，没有结果表
	ErrRunNotReady = errors.New("run not ready")
)

// runEntry 内存中的任务及其结果
type runEntry struct {
	run   *models.Run
	table *models.ResultTable
}

// RunService 生成任务服务
type RunService struct {
	cfg          *config.Config
	logger       *zap.Logger
	generator    *generator.Generator
	runRepo      *repository.RunRepository    // 为 nil 时不落库
	sampleRepo   *repository.SampleRepository // 为 nil 时不落库
	stateManager *state.Manager
	wsHub        *ws.Hub // WebSocket Hub，可为 nil

	mu    sync.RWMutex
	runs  map[string]*runEntry
	order []string // 按创建顺序
}

// NewRunService 创建任务服务
func NewRunService(
	cfg *config.Config,
	logger *zap.Logger,
	gen *generator.Generator,
	runRepo *repository.RunRepository,
	sampleRepo *repository.SampleRepository,
	wsHub *ws.Hub,
) *RunService {
	svc := &RunService{
		cfg:        cfg,
		logger:     logger,
		generator:  gen,
		runRepo:    runRepo,
		sampleRepo: sampleRepo,
		wsHub:      wsHub,
		runs:       make(map[string]*runEntry),
	}

	// 创建状态管理器
	svc.stateManager = state.NewManager(svc.onStateChange)

	return svc
}

// persistent 是否配置了数据库
func (s *RunService) persistent() bool {
	return s.runRepo != nil && s.sampleRepo != nil
}

// Submit 同步执行一次生成任务
// 场景非法时直接返回错误，不创建任务记录。
func (s *RunService) Submit(ctx context.Context, sc models.Scenario) (*models.Run, error) {
	if _, _, err := s.generator.Resolve(sc); err != nil {
		return nil, err
	}

	// 记录实际使用的种子，便于复现
	seed := s.generator.SeedFor(sc)
	sc.Seed = &seed

	run := &models.Run{
		ID:          uuid.NewString(),
		TestID:      sc.TestID(),
		VehicleType: sc.VehicleType,
		ProfileType: sc.ProfileType,
		Duration:    sc.Duration,
		Seed:        &seed,
		State:       state.StatePending,
		CreatedAt:   time.Now(),
	}

	machine := s.stateManager.Create(run.ID, run.TestID)
	s.store(run, nil)

	if s.persistent() {
		if err := s.runRepo.Create(ctx, run); err != nil {
			s.fail(ctx, machine, run, err)
			return run, fmt.Errorf("create run: %w", err)
		}
	}

	s.transition(ctx, machine, run, state.EventStart)

	table, err := s.generator.Generate(sc)
	if err != nil {
		s.fail(ctx, machine, run, err)
		return run, err
	}
	s.mu.Lock()
	summarize(run, table)
	s.mu.Unlock()
	s.store(run, table)

	if s.persistent() {
		s.transition(ctx, machine, run, state.EventPersist)
		if err := s.sampleRepo.NewSink(run.ID).Write(ctx, table); err != nil {
			err = fmt.Errorf("%w: %w", generator.ErrSinkFailure, err)
			s.fail(ctx, machine, run, err)
			return run, err
		}
	}

	now := time.Now()
	s.mu.Lock()
	run.CompletedAt = &now
	s.mu.Unlock()
	s.transition(ctx, machine, run, state.EventComplete)
	if s.persistent() {
		if err := s.runRepo.Complete(ctx, run); err != nil {
			s.logger.Error("Failed to save completed run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	s.streamSamples(run.ID, table)

	s.logger.Info("Run completed",
		zap.String("run_id", run.ID),
		zap.String("test_id", run.TestID),
		zap.Int("samples", run.SampleCount),
		zap.Uint64("seed", seed),
	)
	return run, nil
}

// Get 获取任务
func (s *RunService) Get(ctx context.Context, id string) (*models.Run, error) {
	s.mu.RLock()
	entry, ok := s.runs[id]
	s.mu.RUnlock()
	if ok {
		runCopy := *entry.run
		return &runCopy, nil
	}

	if !s.persistent() {
		return nil, ErrRunNotFound
	}
	run, err := s.runRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// List 按创建时间倒序列出任务，返回总数
func (s *RunService) List(ctx context.Context, limit, offset int) ([]*models.Run, int, error) {
	offset = max(offset, 0)
	if s.persistent() {
		runs, err := s.runRepo.List(ctx, limit, offset)
		if err != nil {
			return nil, 0, err
		}
		total, err := s.runRepo.Count(ctx)
		if err != nil {
			return nil, 0, err
		}
		return runs, total, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.order)
	runs := []*models.Run{}
	for i := total - 1 - offset; i >= 0 && len(runs) < limit; i-- {
		runCopy := *s.runs[s.order[i]].run
		runs = append(runs, &runCopy)
	}
	return runs, total, nil
}

// Samples 分页获取任务的采样点
func (s *RunService) Samples(ctx context.Context, id string, limit, offset int) ([]models.Sample, int, error) {
	offset = max(offset, 0)
	limit = max(limit, 0)
	s.mu.RLock()
	entry, ok := s.runs[id]
	s.mu.RUnlock()
	if ok && entry.table != nil {
		total := entry.table.Len()
		start := min(offset, total)
		end := start + min(limit, total-start)
		return slices.Clone(entry.table.Samples[start:end]), total, nil
	}

	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if !s.persistent() {
		return []models.Sample{}, 0, nil
	}
	samples, err := s.sampleRepo.ListByRunID(ctx, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return samples, run.SampleCount, nil
}

// Table 获取任务的完整结果表
func (s *RunService) Table(ctx context.Context, id string) (*models.ResultTable, error) {
	s.mu.RLock()
	entry, ok := s.runs[id]
	s.mu.RUnlock()
	if ok && entry.table != nil {
		return entry.table, nil
	}

	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.State != state.StateCompleted || !s.persistent() {
		return nil, fmt.Errorf("%w: run %s is %s", ErrRunNotReady, id, run.State)
	}
	samples, err := s.sampleRepo.ListByRunID(ctx, id, run.SampleCount, 0)
	if err != nil {
		return nil, err
	}
	return &models.ResultTable{
		VehicleType: run.VehicleType,
		ProfileType: run.ProfileType,
		Samples:     samples,
	}, nil
}

// States 内存中所有任务的状态
func (s *RunService) States() map[string]*state.RunState {
	return s.stateManager.GetAllStates()
}

// store 保存任务，超出保留数量时淘汰最早结束的任务
func (s *RunService) store(run *models.Run, table *models.ResultTable) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.runs[run.ID]; ok {
		entry.table = table
		return
	}
	s.runs[run.ID] = &runEntry{run: run, table: table}
	s.order = append(s.order, run.ID)

	for len(s.order) > s.cfg.MaxRetainedRuns {
		idx := slices.IndexFunc(s.order, func(id string) bool {
			m, ok := s.stateManager.Get(id)
			return !ok || m.IsFinal()
		})
		if idx < 0 {
			break
		}
		evicted := s.order[idx]
		s.order = slices.Delete(s.order, idx, idx+1)
		delete(s.runs, evicted)
		s.stateManager.Remove(evicted)
	}
}

// transition 触发状态事件并推送
func (s *RunService) transition(ctx context.Context, machine *state.Machine, run *models.Run, event string) {
	if err := machine.Trigger(event); err != nil {
		s.logger.Error("Invalid run transition", zap.String("run_id", run.ID), zap.Error(err))
		return
	}

	s.mu.Lock()
	run.State = machine.CurrentState()
	s.mu.Unlock()

	if s.persistent() && event != state.EventComplete && event != state.EventFail {
		if err := s.runRepo.UpdateState(ctx, run.ID, run.State); err != nil {
			s.logger.Warn("Failed to update run state", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	if s.wsHub != nil {
		s.wsHub.BroadcastRunMessage(run.ID, ws.MsgTypeRunState, machine.GetState())
	}
}

// fail 标记任务失败
func (s *RunService) fail(ctx context.Context, machine *state.Machine, run *models.Run, cause error) {
	msg := cause.Error()
	machine.UpdateState(func(st *state.RunState) { st.Error = msg })

	now := time.Now()
	s.mu.Lock()
	run.Error = &msg
	run.CompletedAt = &now
	s.mu.Unlock()

	s.transition(ctx, machine, run, state.EventFail)
	s.logger.Error("Run failed", zap.String("run_id", run.ID), zap.String("test_id", run.TestID), zap.Error(cause))

	if s.persistent() {
		if err := s.runRepo.Complete(ctx, run); err != nil {
			s.logger.Warn("Failed to save failed run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
}

// streamSamples 分批推送采样点
func (s *RunService) streamSamples(runID string, table *models.ResultTable) {
	if s.wsHub == nil || s.wsHub.ClientCount() == 0 {
		return
	}
	batch := s.cfg.StreamBatchSize
	for start := 0; start < table.Len(); start += batch {
		end := min(start+batch, table.Len())
		s.wsHub.BroadcastRunMessage(runID, ws.MsgTypeSamples, newSampleBatch(table, start, end))
	}
}

// SampleBatch samples 消息内容
type SampleBatch struct {
	TestID  string          `json:"test_id"`
	Offset  int             `json:"offset"`
	Total   int             `json:"total"`
	Samples []models.Sample `json:"samples"`
}

func newSampleBatch(table *models.ResultTable, start, end int) SampleBatch {
	return SampleBatch{
		TestID:  table.TestID(),
		Offset:  start,
		Total:   table.Len(),
		Samples: table.Samples[start:end],
	}
}

// onStateChange 状态变化回调，在状态机锁内执行，不能回调状态机
func (s *RunService) onStateChange(runID string, from, to string) {
	s.logger.Debug("Run state changed",
		zap.String("run_id", runID),
		zap.String("from", from),
		zap.String("to", to),
	)
}
