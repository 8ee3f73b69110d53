package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfig 全局配置单例
var GlobalConfig Config

// Config 总配置结构
type Config struct {
	Toolchain ToolchainConfig `yaml:"toolchain"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Oracle    OracleConfig    `yaml:"oracle"`
}

// ToolchainConfig 目标工具链配置
type ToolchainConfig struct {
	Linker     string   `yaml:"linker"`      // 汇编链接器 (riscv64-linux-gnu-gcc)
	LinkFlags  []string `yaml:"link_flags"`  // 固定链接参数
	DebugFlags []string `yaml:"debug_flags"` // 调试模式额外参数
	Simulator  string   `yaml:"simulator"`   // 默认模拟器
	Debugger   string   `yaml:"debugger"`    // 调试器
	LibPath    string   `yaml:"lib_path"`    // 运行时静态库默认路径
}

// TimeoutConfig 各阶段超时时间（秒）
type TimeoutConfig struct {
	Compile int `yaml:"compile"`
	Link    int `yaml:"link"`
	Run     int `yaml:"run"`
	Oracle  int `yaml:"oracle"`
}

// OracleConfig 参考输出生成配置
type OracleConfig struct {
	Compilers []string `yaml:"compilers"` // 主机编译器候选，按优先级排列
	LibDir    string   `yaml:"lib_dir"`   // sylib.c / sylib.h 所在目录
}

// LoadConfig 加载配置文件。文件不存在时只应用默认值，
// 文件存在但解析失败视为错误。
func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			setDefaults()
			return nil
		}
		return fmt.Errorf("failed to read config file: %v", err)
	}

	if err := yaml.Unmarshal(data, &GlobalConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %v", err)
	}

	setDefaults()
	return nil
}

func setDefaults() {
	if GlobalConfig.Toolchain.Linker == "" {
		GlobalConfig.Toolchain.Linker = "riscv64-linux-gnu-gcc"
	}
	if len(GlobalConfig.Toolchain.LinkFlags) == 0 {
		GlobalConfig.Toolchain.LinkFlags = []string{"-static", "-march=rv64gc"}
	}
	if len(GlobalConfig.Toolchain.DebugFlags) == 0 {
		// 调试产物不做优化，牺牲运行速度换取可调试性
		GlobalConfig.Toolchain.DebugFlags = []string{"-g", "-O0"}
	}
	if GlobalConfig.Toolchain.Simulator == "" {
		GlobalConfig.Toolchain.Simulator = "qemu-riscv64"
	}
	if GlobalConfig.Toolchain.Debugger == "" {
		GlobalConfig.Toolchain.Debugger = "riscv64-linux-gnu-gdb"
	}
	if GlobalConfig.Toolchain.LibPath == "" {
		GlobalConfig.Toolchain.LibPath = "lib/libsysy_riscv.a"
	}
	if GlobalConfig.Timeouts.Compile == 0 {
		GlobalConfig.Timeouts.Compile = 60
	}
	if GlobalConfig.Timeouts.Link == 0 {
		GlobalConfig.Timeouts.Link = 60
	}
	if GlobalConfig.Timeouts.Run == 0 {
		GlobalConfig.Timeouts.Run = 60
	}
	if GlobalConfig.Timeouts.Oracle == 0 {
		GlobalConfig.Timeouts.Oracle = 30
	}
	if len(GlobalConfig.Oracle.Compilers) == 0 {
		GlobalConfig.Oracle.Compilers = []string{"clang", "gcc"}
	}
	if GlobalConfig.Oracle.LibDir == "" {
		GlobalConfig.Oracle.LibDir = "lib"
	}
}

// CompileTimeout 编译阶段超时
func (c Config) CompileTimeout() time.Duration {
	return time.Duration(c.Timeouts.Compile) * time.Second
}

// LinkTimeout 链接阶段超时
func (c Config) LinkTimeout() time.Duration {
	return time.Duration(c.Timeouts.Link) * time.Second
}

// RunTimeout 运行阶段超时
func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.Timeouts.Run) * time.Second
}

// OracleTimeout 参考程序编译和运行超时
func (c Config) OracleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Oracle) * time.Second
}
