package pipeline

import (
	"context"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/BUPT-a-out/test-script/internal/config"
	"github.com/BUPT-a-out/test-script/internal/model"
	"github.com/BUPT-a-out/test-script/internal/runner"
)

// ExecutionStage 在模拟器下运行链接好的可执行文件
type ExecutionStage struct {
	runner runner.Runner
	logger *zap.Logger
}

func NewExecutionStage(r runner.Runner, logger *zap.Logger) *ExecutionStage {
	return &ExecutionStage{runner: r, logger: logger}
}

// Execute 运行程序。先确认模拟器能在 PATH 中解析到，
// 找不到直接返回 EmulatorNotFoundError，不会尝试启动。
// 交互模式下进程直接接到终端，约定返回空的捕获流；
// 非交互模式经由 Runner 捕获输出并记录墙钟耗时。
func (s *ExecutionStage) Execute(ctx context.Context, exePath, stdin, simulator string, interactive bool) (model.ExecutionOutcome, error) {
	if _, err := exec.LookPath(simulator); err != nil {
		s.logger.Info("simulator not found in PATH", zap.String("simulator", simulator))
		return model.ExecutionOutcome{}, &EmulatorNotFoundError{Name: simulator}
	}

	if interactive {
		return s.executeInteractive(exePath, simulator)
	}

	start := time.Now()
	res := s.runner.Run(ctx, []string{simulator, exePath}, stdin, config.GlobalConfig.RunTimeout())
	duration := time.Since(start)

	s.logger.Debug("program finished",
		zap.String("exe", exePath),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", duration))

	return model.ExecutionOutcome{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Duration: duration,
	}, nil
}

// executeInteractive 交互式运行，不捕获也不设超时，
// 会话由使用者自己结束。
func (s *ExecutionStage) executeInteractive(exePath, simulator string) (model.ExecutionOutcome, error) {
	cmd := exec.Command(simulator, exePath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		} else {
			exitCode = runner.SentinelExitCode
		}
	}

	return model.ExecutionOutcome{
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}
