// Package judge 把编译、链接、运行、参考输出和比较各阶段
// 组合成单测试点的判定，并在其上提供批量测试和性能对比。
package judge

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/BUPT-a-out/test-script/internal/compare"
	"github.com/BUPT-a-out/test-script/internal/config"
	"github.com/BUPT-a-out/test-script/internal/model"
	"github.com/BUPT-a-out/test-script/internal/oracle"
	"github.com/BUPT-a-out/test-script/internal/pipeline"
)

// Service 单测试点编排器。状态流转：
// 编译 → 链接 → (调试交接 | 运行) → 比较 → 通过/失败。
// 任何阶段失败直接转为 Failed 并中止后续阶段，不做重试。
type Service struct {
	compile *pipeline.CompileStage
	link    *pipeline.LinkStage
	execute *pipeline.ExecutionStage
	oracle  *oracle.Oracle
	logger  *zap.Logger
}

func NewService(compile *pipeline.CompileStage, link *pipeline.LinkStage, execute *pipeline.ExecutionStage, ora *oracle.Oracle, logger *zap.Logger) *Service {
	return &Service{
		compile: compile,
		link:    link,
		execute: execute,
		oracle:  ora,
		logger:  logger,
	}
}

// Options 单测试点的执行选项
type Options struct {
	Compiler  model.CompilerInvocation
	LibPath   string
	Simulator string
	// Debug 为真时不做结果比较：可执行文件复制到本地
	// 固定路径后交给交互式调试器。
	Debug bool
	// AllowInteractive 没有输入和期望输出文件时允许进入
	// 交互模式（只在单文件 run 下成立，批量和性能测试从不交互）。
	AllowInteractive bool
}

// RunCase 执行一个测试点。所有流水线错误都在这里收口成
// Failed 结果，不会向上抛出中断兄弟测试点。
// 中间产物放在测试点独占的临时目录里，无论成败都会清理。
func (s *Service) RunCase(ctx context.Context, tc model.TestCase, opts Options) model.CaseResult {
	tempDir, err := os.MkdirTemp("", "syt-*")
	if err != nil {
		return failed(fmt.Sprintf("failed to create temp dir: %v", err))
	}
	defer os.RemoveAll(tempDir)

	base := tc.BaseName()
	asmPath := filepath.Join(tempDir, base+".s")
	exePath := filepath.Join(tempDir, base)

	// 调试模式给被测编译器补上 -g
	compilerCmd := opts.Compiler
	if opts.Debug && !compilerCmd.Contains("-g") {
		compilerCmd = append(compilerCmd.Clone(), "-g")
	}

	if err := s.compile.Compile(ctx, compilerCmd, tc.SourcePath, asmPath); err != nil {
		return failed(err.Error())
	}

	if err := s.link.Link(ctx, asmPath, opts.LibPath, exePath, opts.Debug); err != nil {
		return failed(err.Error())
	}

	if opts.Debug {
		return s.debugHandoff(exePath, base)
	}

	stdin := ""
	if tc.InputPath != "" {
		data, err := os.ReadFile(tc.InputPath)
		if err != nil {
			return failed(fmt.Sprintf("failed to read input file: %v", err))
		}
		stdin = string(data)
	}

	interactive := opts.AllowInteractive && tc.InputPath == "" && tc.ExpectedPath == ""

	outcome, err := s.execute.Execute(ctx, exePath, stdin, opts.Simulator, interactive)
	if err != nil {
		return failed(err.Error())
	}

	// 交互模式不做任何比较，跑完即通过
	if interactive {
		return model.CaseResult{Status: model.StatusPassed, Duration: outcome.Duration}
	}

	expected, ok := s.obtainExpected(ctx, tc, stdin)
	if !ok {
		// 参考输出不可用，降级为只检查退出码
		if outcome.ExitCode != 0 {
			return model.CaseResult{
				Status:   model.StatusFailed,
				Reason:   fmt.Sprintf("program exited with code %d", outcome.ExitCode),
				Duration: outcome.Duration,
			}
		}
		return model.CaseResult{Status: model.StatusPassed, Duration: outcome.Duration}
	}

	return s.compareOutcome(expected, outcome)
}

// obtainExpected 期望结果的来源，优先级：期望输出文件 > 参考输出。
// 两者都拿不到时返回 ok=false，调用方降级处理。
func (s *Service) obtainExpected(ctx context.Context, tc model.TestCase, stdin string) (model.ExpectedResult, bool) {
	if tc.ExpectedPath != "" {
		data, err := os.ReadFile(tc.ExpectedPath)
		if err != nil {
			s.logger.Warn("failed to read expected output file",
				zap.String("path", tc.ExpectedPath), zap.Error(err))
			return model.ExpectedResult{}, false
		}
		return compare.ParseExpected(string(data)), true
	}

	expected, err := s.oracle.Synthesize(ctx, tc.SourcePath, stdin)
	if err != nil {
		s.logger.Info("reference output unavailable, falling back to exit-code check",
			zap.String("source", tc.SourcePath), zap.Error(err))
		return model.ExpectedResult{}, false
	}
	return expected, true
}

// compareOutcome 两个独立的判定条件：标准输出全等（忽略结尾换行）
// 和退出码一致，任一不满足即失败。
func (s *Service) compareOutcome(expected model.ExpectedResult, outcome model.ExecutionOutcome) model.CaseResult {
	stdoutOK := compare.StdoutEqual(expected.Stdout, outcome.Stdout)
	codeOK := compare.ExitCodeMatches(expected.ExitCode, outcome.ExitCode)

	if stdoutOK && codeOK {
		return model.CaseResult{Status: model.StatusPassed, Duration: outcome.Duration}
	}

	var reasons []string
	diff := ""
	if !stdoutOK {
		reason := "output mismatch"
		actual := strings.TrimRight(outcome.Stdout, "\n")
		if len(expected.Stdout) < 50 && len(actual) < 50 {
			reason += fmt.Sprintf(" (expected: %q, actual: %q)", expected.Stdout, actual)
		}
		reasons = append(reasons, reason)
		diff = compare.Diff(expected.Stdout, outcome.Stdout)
	}
	if !codeOK {
		reasons = append(reasons, fmt.Sprintf("exit code mismatch (expected: %s, actual: %d)", expected.ExitCode, outcome.ExitCode))
	}

	return model.CaseResult{
		Status:   model.StatusFailed,
		Reason:   strings.Join(reasons, "; "),
		Diff:     diff,
		Duration: outcome.Duration,
	}
}

// debugHandoff 调试交接：可执行文件复制到当前目录的固定路径，
// 然后把控制权交给交互式调试器。这条路径只保证"存在且可调用"，
// 不做正确性验证。
func (s *Service) debugHandoff(exePath, base string) model.CaseResult {
	debugPath := base + "_debug"
	if err := copyFile(exePath, debugPath); err != nil {
		return failed(fmt.Sprintf("failed to copy debug binary: %v", err))
	}

	debugger := config.GlobalConfig.Toolchain.Debugger
	s.logger.Info("handing over to debugger",
		zap.String("binary", debugPath), zap.String("debugger", debugger))

	cmd := exec.Command(debugger, debugPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	_ = cmd.Run()

	return model.CaseResult{Status: model.StatusDebugged, Reason: debugPath}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func failed(reason string) model.CaseResult {
	return model.CaseResult{Status: model.StatusFailed, Reason: reason}
}
