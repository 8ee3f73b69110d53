// Package oracle 在没有期望输出文件时，用可信的主机编译器
// 编译同一份源文件并本机运行，拿它的输出和退出码当作基准。
package oracle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/BUPT-a-out/test-script/internal/config"
	"github.com/BUPT-a-out/test-script/internal/model"
	"github.com/BUPT-a-out/test-script/internal/runner"
)

// UnavailableError 无法生成参考输出。调用方应降级为
// 只检查退出码，而不是把测试点判为失败。
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("reference output unavailable: %s", e.Reason)
}

// externRewrites sylib.h 里四行全局变量定义到 extern 声明的固定替换。
// sylib.c 这个编译单元已经定义了这些全局变量，参考程序把头文件和
// 库源码一起编译，不改写会产生重复定义的链接错误。
// 这是和运行库头文件布局的耦合约定，不做通用解析；
// 任何一行找不到说明头文件变了，直接报错而不是悄悄跳过。
var externRewrites = [4][2]string{
	{
		"struct timeval _sysy_start, _sysy_end;",
		"extern struct timeval _sysy_start, _sysy_end;",
	},
	{
		"int _sysy_l1[_SYSY_N], _sysy_l2[_SYSY_N];",
		"extern int _sysy_l1[_SYSY_N], _sysy_l2[_SYSY_N];",
	},
	{
		"int _sysy_h[_SYSY_N], _sysy_m[_SYSY_N], _sysy_s[_SYSY_N], _sysy_us[_SYSY_N];",
		"extern int _sysy_h[_SYSY_N], _sysy_m[_SYSY_N], _sysy_s[_SYSY_N], _sysy_us[_SYSY_N];",
	},
	{
		"int _sysy_idx;",
		"extern int _sysy_idx;",
	},
}

// Oracle 参考输出生成器
type Oracle struct {
	runner runner.Runner
	logger *zap.Logger
	libDir string
}

func New(r runner.Runner, logger *zap.Logger, libDir string) *Oracle {
	return &Oracle{runner: r, logger: logger, libDir: libDir}
}

// Synthesize 合成参考结果：构造临时编译单元（sylib.h 在前，
// 源文件内容原样跟在后面，模拟目标流水线隐式可见的运行库声明），
// 用主机编译器连同 sylib.c 一起编译，以相同的 stdin 本机运行。
// 链条上的任何失败都返回 UnavailableError。
func (o *Oracle) Synthesize(ctx context.Context, sourcePath, stdin string) (model.ExpectedResult, error) {
	sylibC := filepath.Join(o.libDir, "sylib.c")
	sylibH := filepath.Join(o.libDir, "sylib.h")
	for _, p := range []string{sylibC, sylibH} {
		if _, err := os.Stat(p); err != nil {
			return model.ExpectedResult{}, &UnavailableError{Reason: fmt.Sprintf("runtime support file missing: %s", p)}
		}
	}

	compiler, err := o.findHostCompiler()
	if err != nil {
		return model.ExpectedResult{}, err
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return model.ExpectedResult{}, &UnavailableError{Reason: fmt.Sprintf("failed to read source file: %v", err)}
	}

	tempDir, err := os.MkdirTemp("", "syt-oracle-*")
	if err != nil {
		return model.ExpectedResult{}, &UnavailableError{Reason: fmt.Sprintf("failed to create temp dir: %v", err)}
	}
	defer os.RemoveAll(tempDir)

	tempC := filepath.Join(tempDir, "temp_program.c")
	unit := "#include \"sylib.h\"\n" + string(source)
	if err := os.WriteFile(tempC, []byte(unit), 0644); err != nil {
		return model.ExpectedResult{}, &UnavailableError{Reason: fmt.Sprintf("failed to write translation unit: %v", err)}
	}

	header, err := os.ReadFile(sylibH)
	if err != nil {
		return model.ExpectedResult{}, &UnavailableError{Reason: fmt.Sprintf("failed to read sylib.h: %v", err)}
	}
	rewritten, err := rewriteHeader(string(header))
	if err != nil {
		return model.ExpectedResult{}, err
	}
	if err := os.WriteFile(filepath.Join(tempDir, "sylib.h"), []byte(rewritten), 0644); err != nil {
		return model.ExpectedResult{}, &UnavailableError{Reason: fmt.Sprintf("failed to write rewritten sylib.h: %v", err)}
	}

	tempProgram := filepath.Join(tempDir, "temp_program")
	compileArgv := []string{compiler, tempC, sylibC, "-o", tempProgram, "-lm"}

	o.logger.Debug("compiling reference program",
		zap.String("compiler", compiler),
		zap.String("source", sourcePath))

	res := o.runner.Run(ctx, compileArgv, "", config.GlobalConfig.OracleTimeout())
	if res.ExitCode != 0 {
		o.logger.Info("reference program compilation failed",
			zap.String("compiler", compiler),
			zap.Int("exit_code", res.ExitCode))
		return model.ExpectedResult{}, &UnavailableError{Reason: fmt.Sprintf("host compiler failed: %s", firstLine(res.Stderr))}
	}

	run := o.runner.Run(ctx, []string{tempProgram}, stdin, config.GlobalConfig.OracleTimeout())
	if run.ExitCode == runner.SentinelExitCode {
		return model.ExpectedResult{}, &UnavailableError{Reason: fmt.Sprintf("reference program did not run: %s", firstLine(run.Stderr))}
	}

	o.logger.Debug("reference program finished", zap.Int("exit_code", run.ExitCode))

	return model.ExpectedResult{
		Stdout:   strings.TrimRight(run.Stdout, "\n"),
		ExitCode: strconv.Itoa(run.ExitCode),
	}, nil
}

// findHostCompiler 按固定优先级探测主机编译器
func (o *Oracle) findHostCompiler() (string, error) {
	candidates := config.GlobalConfig.Oracle.Compilers
	for _, name := range candidates {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", &UnavailableError{Reason: fmt.Sprintf("no host compiler found (tried: %s)", strings.Join(candidates, ", "))}
}

// rewriteHeader 执行四行固定替换，把全局变量定义改成 extern 声明
func rewriteHeader(header string) (string, error) {
	for _, r := range externRewrites {
		if !strings.Contains(header, r[0]) {
			return "", &UnavailableError{Reason: fmt.Sprintf("sylib.h layout changed: definition not found: %q", r[0])}
		}
		header = strings.Replace(header, r[0], r[1], 1)
	}
	return header, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
