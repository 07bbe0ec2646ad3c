package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 任务状态常量
const (
	StatePending    = "pending"
	StateGenerating = "generating"
	StatePersisting = "persisting"
	StateCompleted  = "completed"
	StateFailed     = "failed"
)

// 事件常量
const (
	EventStart    = "start"
	EventPersist  = "persist"
	EventComplete = "complete"
	EventFail     = "fail"
)

// RunState 任务状态快照
type RunState struct {
	RunID        string    `json:"run_id"`
	TestID       string    `json:"test_id"`
	CurrentState string    `json:"state"`
	Since        time.Time `json:"since"`
	SampleCount  int       `json:"sample_count"`
	Error        string    `json:"error,omitempty"`
}

// Machine 任务状态机
type Machine struct {
	mu            sync.RWMutex
	runID         string
	fsm           *fsm.FSM
	state         *RunState
	onStateChange func(runID string, from, to string)
}

// NewMachine 创建状态机，初始状态为 pending
func NewMachine(runID, testID string, onStateChange func(runID string, from, to string)) *Machine {
	m := &Machine{
		runID:         runID,
		onStateChange: onStateChange,
		state: &RunState{
			RunID:        runID,
			TestID:       testID,
			CurrentState: StatePending,
			Since:        time.Now(),
		},
	}

	m.fsm = fsm.NewFSM(
		StatePending,
		fsm.Events{
			{Name: EventStart, Src: []string{StatePending}, Dst: StateGenerating},
			{Name: EventPersist, Src: []string{StateGenerating}, Dst: StatePersisting},
			{Name: EventComplete, Src: []string{StateGenerating, StatePersisting}, Dst: StateCompleted},
			{Name: EventFail, Src: []string{StatePending, StateGenerating, StatePersisting}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(m.runID, e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// CurrentState 获取当前状态
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// GetState 获取状态快照
func (m *Machine) GetState() *RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stateCopy := *m.state
	stateCopy.CurrentState = m.fsm.Current()
	return &stateCopy
}

// UpdateState 更新状态数据
func (m *Machine) UpdateState(update func(s *RunState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	update(m.state)
}

// Trigger 触发事件
func (m *Machine) Trigger(event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}

	m.state.CurrentState = m.fsm.Current()
	m.state.Since = time.Now()
	return nil
}

// CanTransition 检查是否可以转换
func (m *Machine) CanTransition(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}

// IsFinal 是否已结束
func (m *Machine) IsFinal() bool {
	s := m.CurrentState()
	return s == StateCompleted || s == StateFailed
}

// Manager 状态机管理器
type Manager struct {
	mu       sync.RWMutex
	machines map[string]*Machine
	onChange func(runID string, from, to string)
}

// NewManager 创建管理器
func NewManager(onChange func(runID string, from, to string)) *Manager {
	return &Manager{
		machines: make(map[string]*Machine),
		onChange: onChange,
	}
}

// Create 为新任务创建状态机
func (m *Manager) Create(runID, testID string) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if machine, ok := m.machines[runID]; ok {
		return machine
	}

	machine := NewMachine(runID, testID, m.onChange)
	m.machines[runID] = machine
	return machine
}

// Get 获取状态机
func (m *Manager) Get(runID string) (*Machine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	machine, ok := m.machines[runID]
	return machine, ok
}

// Remove 移除状态机
func (m *Manager) Remove(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.machines, runID)
}

// GetAllStates 获取所有任务状态
func (m *Manager) GetAllStates() map[string]*RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[string]*RunState, len(m.machines))
	for runID, machine := range m.machines {
		states[runID] = machine.GetState()
	}
	return states
}
