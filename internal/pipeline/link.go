package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/BUPT-a-out/test-script/internal/config"
	"github.com/BUPT-a-out/test-script/internal/runner"
)

// LinkStage 用固定的目标工具链把汇编文件和运行时库
// 链接成 RISC-V 静态可执行文件
type LinkStage struct {
	runner runner.Runner
	logger *zap.Logger
}

func NewLinkStage(r runner.Runner, logger *zap.Logger) *LinkStage {
	return &LinkStage{runner: r, logger: logger}
}

// Link 汇编并链接。debug 为真时附加 -g -O0：
// 可调试的产物不做优化。
func (s *LinkStage) Link(ctx context.Context, asmPath, libPath, exePath string, debug bool) error {
	tc := config.GlobalConfig.Toolchain

	argv := []string{tc.Linker}
	argv = append(argv, tc.LinkFlags...)
	if debug {
		argv = append(argv, tc.DebugFlags...)
	}
	argv = append(argv, asmPath, libPath, "-o", exePath)

	s.logger.Debug("assembling and linking",
		zap.String("asm", asmPath),
		zap.String("lib", libPath),
		zap.Bool("debug", debug))

	res := s.runner.Run(ctx, argv, "", config.GlobalConfig.LinkTimeout())
	if res.ExitCode != 0 {
		s.logger.Info("linking failed",
			zap.String("asm", asmPath),
			zap.Int("exit_code", res.ExitCode))
		return &LinkError{ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	return nil
}
