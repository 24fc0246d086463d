package pipeline

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

// WatchInterrupts 监听 SIGINT / SIGTERM。第一次信号请求停止，正在进行的请求不会被取消；
// 第二次信号调用 forceExit(1)。返回的 stop 用于取消监听。
func WatchInterrupts(ctx context.Context, state *RunState, logger *zap.Logger, forceExit func(int)) (stop func()) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if forceExit == nil {
		forceExit = os.Exit
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go watchSignals(ctx, sigCh, done, state, logger, forceExit)

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
		})
	}
}

func watchSignals(ctx context.Context, sigCh <-chan os.Signal, done <-chan struct{}, state *RunState, logger *zap.Logger, forceExit func(int)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case sig := <-sigCh:
			if state.Interrupted() {
				logger.Warn("再次收到中断信号，立即退出", zap.String("signal", sig.String()))
				forceExit(1)
				return
			}
			state.RequestStop()
			logger.Warn("收到中断信号，当前请求完成后停止，再按一次 Ctrl+C 强制退出",
				zap.String("signal", sig.String()))
		}
	}
}
