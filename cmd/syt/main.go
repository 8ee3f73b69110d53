package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BUPT-a-out/test-script/internal/config"
	"github.com/BUPT-a-out/test-script/internal/judge"
	"github.com/BUPT-a-out/test-script/internal/model"
	"github.com/BUPT-a-out/test-script/internal/oracle"
	"github.com/BUPT-a-out/test-script/internal/pipeline"
	"github.com/BUPT-a-out/test-script/internal/report"
	"github.com/BUPT-a-out/test-script/internal/runner"
)

// cliArgs 解析后的命令行参数。--in/--out 覆盖自动探测的输入
// 输出文件，"--" 之后的内容原样作为被测编译器命令行转发。
type cliArgs struct {
	command      string
	source       string
	configFile   string
	libPath      string
	simulator    string
	runs         int
	inputFile    string
	outputFile   string
	verbose      bool
	compilerArgs []string
}

func main() {
	os.Exit(run())
}

func run() int {
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, report.Colored("错误: "+err.Error(), report.Red))
		usage()
		return 1
	}

	if err := config.LoadConfig(args.configFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger := newLogger(args.verbose)
	defer logger.Sync()

	if args.libPath == "" {
		args.libPath = resolvePath(config.GlobalConfig.Toolchain.LibPath)
	}
	if args.simulator == "" {
		args.simulator = config.GlobalConfig.Toolchain.Simulator
	}

	localRunner := runner.NewLocalRunner()
	svc := judge.NewService(
		pipeline.NewCompileStage(localRunner, logger),
		pipeline.NewLinkStage(localRunner, logger),
		pipeline.NewExecutionStage(localRunner, logger),
		oracle.New(localRunner, logger, resolvePath(config.GlobalConfig.Oracle.LibDir)),
		logger,
	)

	ctx := context.Background()
	opts := judge.Options{
		LibPath:   args.libPath,
		Simulator: args.simulator,
	}

	// 目录参数走批量测试，只有 run 命令支持
	if info, err := os.Stat(args.source); err == nil && info.IsDir() {
		if args.command != "run" {
			fmt.Fprintln(os.Stderr, report.Colored(fmt.Sprintf("错误: %s模式不支持批量运行", args.command), report.Red))
			return 1
		}
		return runBatch(ctx, svc, args, opts)
	}

	if _, err := os.Stat(args.source); err != nil {
		fmt.Fprintln(os.Stderr, report.Colored("错误: 源文件不存在: "+args.source, report.Red))
		return 1
	}

	if args.command == "bench" {
		return runBench(ctx, svc, args, opts)
	}
	return runSingle(ctx, svc, args, opts)
}

func runSingle(ctx context.Context, svc *judge.Service, args *cliArgs, opts judge.Options) int {
	tc := model.NewTestCase(args.source, args.inputFile, args.outputFile)
	if tc.InputPath != "" && args.inputFile == "" {
		fmt.Printf("%s 自动检测到输入文件: %s\n", report.Icon("info"), report.Colored(tc.InputPath, report.Dim))
	}
	if tc.ExpectedPath != "" && args.outputFile == "" {
		fmt.Printf("%s 自动检测到输出文件: %s\n", report.Icon("info"), report.Colored(tc.ExpectedPath, report.Dim))
	}

	opts.Compiler = args.compilerArgs
	opts.Debug = args.command == "debug"
	opts.AllowInteractive = args.command == "run"

	if opts.AllowInteractive && tc.InputPath == "" && tc.ExpectedPath == "" {
		fmt.Println(report.Colored("进入交互模式 (输入完成后按Ctrl+D结束):", report.Cyan))
	}

	res := svc.RunCase(ctx, tc, opts)
	report.PrintCaseResult(tc.BaseName(), res)
	if res.Passed() {
		return 0
	}
	return 1
}

func runBatch(ctx context.Context, svc *judge.Service, args *cliArgs, opts judge.Options) int {
	pattern := filepath.Join(args.source, "*.sy")
	files, err := filepath.Glob(pattern)
	if err != nil {
		fmt.Fprintln(os.Stderr, report.Colored("错误: "+err.Error(), report.Red))
		return 1
	}
	sort.Strings(files)

	if len(files) == 0 {
		fmt.Println(report.Colored("目录中没有找到.sy文件: "+args.source, report.Red))
	}

	cases := make([]model.TestCase, 0, len(files))
	for _, f := range files {
		cases = append(cases, model.NewTestCase(f, "", ""))
	}

	report.PrintBatchHeader(args.source, len(cases))

	opts.Compiler = args.compilerArgs
	printer := report.BatchHookPrinter{}
	result := svc.RunBatch(ctx, cases, opts, judge.BatchHooks{
		OnCaseStart:  printer.OnCaseStart,
		OnCaseResult: printer.OnCaseResult,
	})

	report.PrintBatchSummary(result)
	if result.Success() {
		return 0
	}
	return 1
}

func runBench(ctx context.Context, svc *judge.Service, args *cliArgs, opts judge.Options) int {
	variants := splitVariants(args.compilerArgs)

	inputFile := args.inputFile
	if inputFile == "" {
		tc := model.NewTestCase(args.source, "", "")
		inputFile = tc.InputPath
	}

	fmt.Println(report.Colored("性能对比测试: "+args.source, report.Magenta+report.Bold))
	fmt.Println(report.Colored(fmt.Sprintf("运行次数: %d", args.runs), report.Blue))
	fmt.Println(report.Colored(fmt.Sprintf("对比编译器数量: %d", len(variants)), report.Blue))

	hooks := judge.BenchHooks{
		OnVariantStart: func(index, total int, cmd model.CompilerInvocation) {
			fmt.Printf("\n%s\n", report.Colored(fmt.Sprintf("测试 编译器%d: %s", index+1, cmd.String()), report.Cyan+report.Bold))
		},
		OnRun: func(run, total int, duration time.Duration, ok bool) {
			if ok {
				fmt.Printf("  第 %d 次运行: %s\n", run+1, report.Colored(fmt.Sprintf("%.3fs", duration.Seconds()), report.Green))
			} else {
				fmt.Printf("  第 %d 次运行: %s\n", run+1, report.Colored("失败", report.Red))
			}
		},
	}

	stats, err := svc.RunBenchmark(ctx, args.source, inputFile, variants, opts, args.runs, hooks)
	if err != nil {
		fmt.Fprintln(os.Stderr, report.Colored("错误: "+err.Error(), report.Red))
		return 1
	}

	report.PrintBenchReport(stats)
	return 0
}

// parseArgs 手工解析：命令和源文件是前两个位置参数，
// "--" 之后全部转发给被测编译器。
func parseArgs(argv []string) (*cliArgs, error) {
	args := &cliArgs{
		configFile: "config.yaml",
		runs:       3,
	}

	var positionals []string
	i := 0
	for i < len(argv) {
		arg := argv[i]
		switch arg {
		case "--":
			args.compilerArgs = append(args.compilerArgs, argv[i+1:]...)
			i = len(argv)
		case "--config":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("--config 需要参数")
			}
			args.configFile = argv[i+1]
			i += 2
		case "--lib":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("--lib 需要参数")
			}
			args.libPath = argv[i+1]
			i += 2
		case "--simulator":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("--simulator 需要参数")
			}
			args.simulator = argv[i+1]
			i += 2
		case "--runs":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("--runs 需要参数")
			}
			n, err := strconv.Atoi(argv[i+1])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("--runs 需要正整数")
			}
			args.runs = n
			i += 2
		case "--in":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("--in 需要参数")
			}
			args.inputFile = argv[i+1]
			i += 2
		case "--out":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("--out 需要参数")
			}
			args.outputFile = argv[i+1]
			i += 2
		case "--verbose":
			args.verbose = true
			i++
		case "--help", "-h":
			usage()
			os.Exit(0)
		default:
			positionals = append(positionals, arg)
			i++
		}
	}

	if len(positionals) < 2 {
		return nil, fmt.Errorf("需要命令和源文件参数")
	}
	args.command = positionals[0]
	args.source = positionals[1]
	// 位置参数多出来的部分也视作编译器参数（未用 "--" 分隔的写法）
	args.compilerArgs = append(positionals[2:], args.compilerArgs...)

	switch args.command {
	case "run", "debug", "bench":
	default:
		return nil, fmt.Errorf("未知命令: %s (支持 run/debug/bench)", args.command)
	}
	return args, nil
}

// splitVariants 用 ";" 把转发的编译器参数切成多条候选命令行
func splitVariants(compilerArgs []string) []model.CompilerInvocation {
	var variants []model.CompilerInvocation
	var current model.CompilerInvocation
	for _, arg := range compilerArgs {
		if arg == ";" {
			if len(current) > 0 {
				variants = append(variants, current)
				current = nil
			}
			continue
		}
		current = append(current, arg)
	}
	if len(current) > 0 {
		variants = append(variants, current)
	}
	return variants
}

// resolvePath 相对路径先按当前目录找，找不到再按可执行文件
// 所在目录找，方便在任意目录下调用安装好的工具。
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	candidate := filepath.Join(filepath.Dir(exe), path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func usage() {
	fmt.Println(`用法: syt <run|debug|bench> <源文件或目录> [选项] -- <编译器命令>

命令:
  run    编译、运行并比较输出
  debug  编译后交给调试器（不做结果比较）
  bench  多个编译器命令性能对比，命令之间用 ";" 分隔（至少两个）

选项:
  --lib <path>        运行时静态库路径
  --simulator <name>  模拟器 (默认: qemu-riscv64)
  --runs <int>        bench运行次数 (默认: 3)
  --in <path>         输入文件（默认自动探测同名 .in）
  --out <path>        期望输出文件（默认自动探测同名 .out）
  --config <path>     配置文件 (默认: config.yaml)
  --verbose           输出调试日志

示例:
  syt run tests/functional -- ./compiler -S
  syt bench program.sy --runs 5 -- ./compiler -O0 ";" ./compiler -O2`)
}
