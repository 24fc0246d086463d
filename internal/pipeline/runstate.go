package pipeline

import "sync/atomic"

// RunState 一次运行的共享状态。中断标志由信号协程写入，其余字段只由控制循环访问
type RunState struct {
	interrupted atomic.Bool

	SpentBudget  float64
	InputTokens  int
	OutputTokens int

	FilesOK      int
	FilesFailed  int
	FilesSkipped int
}

// NewRunState 创建运行状态
func NewRunState() *RunState {
	return &RunState{}
}

// RequestStop 请求在当前请求完成后停止
func (s *RunState) RequestStop() {
	s.interrupted.Store(true)
}

// Interrupted 是否已请求停止
func (s *RunState) Interrupted() bool {
	return s.interrupted.Load()
}

func (s *RunState) addUsage(in, out int, cost float64) {
	s.InputTokens += in
	s.OutputTokens += out
	s.SpentBudget += cost
}
