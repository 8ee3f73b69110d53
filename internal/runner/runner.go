package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// SentinelExitCode 超时或进程无法启动时返回的合成退出码，
// 与真实进程的退出码区分开。
const SentinelExitCode = -1

// Result 一次外部命令执行的结果
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner 外部进程执行器。每次调用恰好派生一个子进程，
// 非零退出不视为错误，失败信息通过 Result 返回。
type Runner interface {
	Run(ctx context.Context, argv []string, stdin string, timeout time.Duration) Result
}

// LocalRunner 在本机直接执行命令
type LocalRunner struct{}

func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

func (r *LocalRunner) Run(ctx context.Context, argv []string, stdin string, timeout time.Duration) Result {
	if len(argv) == 0 {
		return Result{ExitCode: SentinelExitCode, Stderr: "empty command"}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	// 超时：进程已被终止，返回哨兵退出码和超时说明
	if runCtx.Err() == context.DeadlineExceeded {
		return Result{
			ExitCode: SentinelExitCode,
			Stdout:   stdout.String(),
			Stderr:   fmt.Sprintf("command timed out after %v", timeout),
		}
	}

	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return Result{
				ExitCode: exitError.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}
		}
		// 进程没能启动（二进制不存在、权限不足等）
		return Result{
			ExitCode: SentinelExitCode,
			Stdout:   stdout.String(),
			Stderr:   err.Error(),
		}
	}

	return Result{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
}
