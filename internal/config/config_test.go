package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	GlobalConfig = Config{}
	err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "riscv64-linux-gnu-gcc", GlobalConfig.Toolchain.Linker)
	assert.Equal(t, []string{"-static", "-march=rv64gc"}, GlobalConfig.Toolchain.LinkFlags)
	assert.Equal(t, []string{"-g", "-O0"}, GlobalConfig.Toolchain.DebugFlags)
	assert.Equal(t, "qemu-riscv64", GlobalConfig.Toolchain.Simulator)
	assert.Equal(t, []string{"clang", "gcc"}, GlobalConfig.Oracle.Compilers)
	assert.Equal(t, 60, GlobalConfig.Timeouts.Compile)
	assert.Equal(t, 30, GlobalConfig.Timeouts.Oracle)
}

func TestLoadConfigOverrides(t *testing.T) {
	GlobalConfig = Config{}
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `toolchain:
  simulator: spike
timeouts:
  run: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, LoadConfig(path))

	assert.Equal(t, "spike", GlobalConfig.Toolchain.Simulator)
	assert.Equal(t, 10, GlobalConfig.Timeouts.Run)
	// 未覆盖的项仍是默认值
	assert.Equal(t, "riscv64-linux-gnu-gcc", GlobalConfig.Toolchain.Linker)
	assert.Equal(t, 60, GlobalConfig.Timeouts.Compile)
}

func TestLoadConfigMalformed(t *testing.T) {
	GlobalConfig = Config{}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("toolchain: ["), 0644))
	assert.Error(t, LoadConfig(path))
}

func TestTimeoutAccessors(t *testing.T) {
	GlobalConfig = Config{}
	require.NoError(t, LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Equal(t, GlobalConfig.CompileTimeout().Seconds(), 60.0)
	assert.Equal(t, GlobalConfig.OracleTimeout().Seconds(), 30.0)
}
