package pipeline

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/BUPT-a-out/test-script/internal/config"
	"github.com/BUPT-a-out/test-script/internal/model"
	"github.com/BUPT-a-out/test-script/internal/runner"
)

// CompileStage 调用被测编译器，把源文件编译成汇编文件
type CompileStage struct {
	runner runner.Runner
	logger *zap.Logger
}

func NewCompileStage(r runner.Runner, logger *zap.Logger) *CompileStage {
	return &CompileStage{runner: r, logger: logger}
}

// Compile 执行 command ++ [sourcePath, -o, asmPath]。
// 退出码非零，或退出码为零但汇编文件不存在，都算编译失败，
// 后者防住了报成功却不产出文件的编译器。
func (s *CompileStage) Compile(ctx context.Context, command model.CompilerInvocation, sourcePath, asmPath string) error {
	argv := append(command.Clone(), sourcePath, "-o", asmPath)

	s.logger.Debug("compiling source file",
		zap.String("source", sourcePath),
		zap.String("command", model.CompilerInvocation(argv).String()))

	res := s.runner.Run(ctx, argv, "", config.GlobalConfig.CompileTimeout())
	if res.ExitCode != 0 {
		s.logger.Info("compilation failed",
			zap.String("source", sourcePath),
			zap.Int("exit_code", res.ExitCode))
		return &CompileError{ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	if _, err := os.Stat(asmPath); err != nil {
		s.logger.Info("compiler reported success but produced no output",
			zap.String("source", sourcePath),
			zap.String("asm", asmPath))
		return &CompileError{ExitCode: 0, Stderr: "compiler exited successfully but no assembly file was generated"}
	}

	return nil
}
