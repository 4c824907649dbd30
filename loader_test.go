package devwatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
# dev server
language: js
port: "3000"
watch:
  paths: [./src, ./config]
  extensions: [.js, mjs]
  ignore:
    - "**/dist/**"
  debounce_ms: 250
command:
  cwd: ./app
  env:
    LOG_LEVEL: debug
    API_URL: http://localhost:4000
`

const tomlConfig = `
language = "ts"
env = "test"

[watch]
paths = ["./lib"]
debounce_ms = 0

[command]
program = "bun"
args = ["--watch", "./lib/main.ts"]
`

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "devwatch.yaml"), []byte(yamlConfig), 0644))

	fc, path, err := LoadConfig(dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "devwatch.yaml"), path)

	watch, cmd, err := fc.Resolve(Overrides{})
	require.NoError(t, err)

	assert.Equal(t, []string{"./src", "./config"}, watch.Paths)
	assert.Equal(t, []string{"js", "mjs"}, watch.Extensions)
	assert.Equal(t, []string{"**/dist/**"}, watch.IgnorePatterns)
	assert.Equal(t, 250*time.Millisecond, watch.Debounce)

	assert.Equal(t, "node", cmd.Program)
	assert.Equal(t, []string{"./src/server.js"}, cmd.Args)
	assert.Equal(t, "./app", cmd.Dir)
	assert.Equal(t, []EnvVar{
		{Key: "NODE_ENV", Value: "development"},
		{Key: "PORT", Value: "3000"},
		{Key: "API_URL", Value: "http://localhost:4000"},
		{Key: "LOG_LEVEL", Value: "debug"},
	}, cmd.Env)
}

func TestLoadConfigTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlConfig), 0644))

	fc, got, err := LoadConfig("", path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	watch, cmd, err := fc.Resolve(Overrides{Port: "9000"})
	require.NoError(t, err)

	assert.Equal(t, []string{"./lib"}, watch.Paths)
	assert.Equal(t, DefaultExtensions, watch.Extensions)
	assert.Equal(t, DefaultIgnorePatterns, watch.IgnorePatterns)
	assert.Equal(t, time.Duration(0), watch.Debounce)

	assert.Equal(t, "bun", cmd.Program)
	assert.Equal(t, []string{"--watch", "./lib/main.ts"}, cmd.Args)
	assert.Equal(t, []EnvVar{
		{Key: "NODE_ENV", Value: "test"},
		{Key: "PORT", Value: "9000"},
	}, cmd.Env)
}

// TestLoadConfigDefaults 没有配置文件时使用默认值
func TestLoadConfigDefaults(t *testing.T) {
	fc, path, err := LoadConfig(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, path)

	watch, cmd, err := fc.Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, DefaultWatchConfig(), watch)
	assert.Equal(t, DefaultCommandConfig("ts", "", ""), cmd)
	assert.Equal(t, "ts-node", cmd.Program)
	assert.Equal(t, []string{"./src/server.ts"}, cmd.Args)
	assert.Equal(t, 500*time.Millisecond, watch.Debounce)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadConfig(dir, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("watch:\n  pathz: [./src]\n"), 0644))
	_, _, err = LoadConfig(dir, bad)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, bad, perr.Path)

	badToml := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(badToml, []byte("language = \n"), 0644))
	_, _, err = LoadConfig(dir, badToml)
	require.ErrorAs(t, err, &perr)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	fc, _, err := LoadConfig(dir, empty)
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, fc)
}

func TestResolveOverrides(t *testing.T) {
	fc := FileConfig{Language: "ts", Env: "staging", Port: "3000"}

	_, cmd, err := fc.Resolve(Overrides{Language: "bun", Env: "production"})
	require.NoError(t, err)
	assert.Equal(t, "bun", cmd.Program)
	assert.Equal(t, []string{"run", "./src/server.js"}, cmd.Args)
	assert.Equal(t, []EnvVar{
		{Key: "NODE_ENV", Value: "production"},
		{Key: "PORT", Value: "3000"},
	}, cmd.Env)

	negative := int64(-1)
	fc = FileConfig{Watch: FileWatchConfig{DebounceMs: &negative}}
	_, _, err = fc.Resolve(Overrides{})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.ErrorIs(t, CommandConfig{}.Validate(), ErrNoProgram)
	assert.NoError(t, DefaultCommandConfig("js", "", "").Validate())
	assert.Error(t, WatchConfig{}.Validate())
	assert.NoError(t, DefaultWatchConfig().Validate())
	assert.Equal(t, "PORT=8080", EnvVar{Key: "PORT", Value: "8080"}.String())
}

// TestResolveRun run 子命令运行构建产物，按运行时选择解释器
func TestResolveRun(t *testing.T) {
	cases := []struct {
		language string
		program  string
		args     []string
	}{
		{"ts", "ts-node", []string{"./app/src/server.js"}},
		{"js", "node", []string{"./app/src/server.js"}},
		{"bun", "bun", []string{"run", "./app/src/server.js"}},
	}
	for _, c := range cases {
		cmd, err := FileConfig{}.ResolveRun(Overrides{Language: c.language, Port: "3000"})
		require.NoError(t, err)
		assert.Equal(t, c.program, cmd.Program, c.language)
		assert.Equal(t, c.args, cmd.Args, c.language)
		assert.Equal(t, []EnvVar{{Key: "NODE_ENV", Value: DefaultEnv}, {Key: "PORT", Value: "3000"}}, cmd.Env)
	}

	fc := FileConfig{Command: FileCommand{Program: "deno", Args: []string{"run", "main.ts"}, Env: map[string]string{"DEBUG": "1"}}}
	cmd, err := fc.ResolveRun(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "deno", cmd.Program)
	assert.Equal(t, []string{"run", "main.ts"}, cmd.Args)
	assert.Equal(t, EnvVar{Key: "DEBUG", Value: "1"}, cmd.Env[len(cmd.Env)-1])
}
