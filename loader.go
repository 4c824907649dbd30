package devwatch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ConfigFileNames 是未指定 --config 时在工作目录中依次查找的文件
var ConfigFileNames = []string{"devwatch.yaml", "devwatch.yml", "devwatch.toml"}

// FileConfig 是项目配置文件的内容，未填写的字段使用默认值
type FileConfig struct {
	Language string          `yaml:"language" toml:"language"`
	Env      string          `yaml:"env" toml:"env"`
	Port     string          `yaml:"port" toml:"port"`
	Watch    FileWatchConfig `yaml:"watch" toml:"watch"`
	Command  FileCommand     `yaml:"command" toml:"command"`
}

// FileWatchConfig 对应配置文件中的 watch 段
type FileWatchConfig struct {
	Paths      []string `yaml:"paths" toml:"paths"`
	Extensions []string `yaml:"extensions" toml:"extensions"`
	Ignore     []string `yaml:"ignore" toml:"ignore"`
	DebounceMs *int64   `yaml:"debounce_ms" toml:"debounce_ms"`
}

// FileCommand 对应配置文件中的 command 段
type FileCommand struct {
	Program string            `yaml:"program" toml:"program"`
	Args    []string          `yaml:"args" toml:"args"`
	Dir     string            `yaml:"cwd" toml:"cwd"`
	Env     map[string]string `yaml:"env" toml:"env"`
}

// ParseError 表示配置文件无法解析
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadConfig 读取配置文件
//
// path 为空时在 dir 中按 ConfigFileNames 查找，找不到返回空的 FileConfig（全部使用默认值）；
// 显式指定的 path 不存在则返回错误。格式按扩展名判断：.toml 使用 TOML，其余使用 YAML。
func LoadConfig(dir, path string) (FileConfig, string, error) {
	if path == "" {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return FileConfig{}, "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, path, fmt.Errorf("reading config file %s: %w", path, err)
	}

	fc, err := ParseConfig(path, data)
	return fc, path, err
}

// ParseConfig 按 name 的扩展名解析配置内容
func ParseConfig(name string, data []byte) (FileConfig, error) {
	var fc FileConfig
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&fc)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&fc)
		// 空文件
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return FileConfig{}, &ParseError{Path: name, Err: err}
	}
	return fc, nil
}

// Overrides 是命令行上对配置文件的覆盖，空字符串表示不覆盖
type Overrides struct {
	Language string
	Env      string
	Port     string
}

// Resolve 把配置文件与命令行覆盖合并为最终的 WatchConfig / CommandConfig
//
// 优先级：命令行 > 配置文件 > 默认值。
// NODE_ENV 与 PORT 总是注入，command.env 中的同名项会覆盖它们。
func (fc FileConfig) Resolve(ov Overrides) (WatchConfig, CommandConfig, error) {
	language := firstNonEmpty(ov.Language, fc.Language, "ts")
	env := firstNonEmpty(ov.Env, fc.Env, DefaultEnv)
	port := firstNonEmpty(ov.Port, fc.Port, DefaultPort)

	watch := DefaultWatchConfig()
	if len(fc.Watch.Paths) > 0 {
		watch.Paths = fc.Watch.Paths
	}
	if len(fc.Watch.Extensions) > 0 {
		watch.Extensions = make([]string, len(fc.Watch.Extensions))
		for i, e := range fc.Watch.Extensions {
			watch.Extensions[i] = strings.TrimPrefix(e, ".")
		}
	}
	if fc.Watch.Ignore != nil {
		watch.IgnorePatterns = fc.Watch.Ignore
	}
	if fc.Watch.DebounceMs != nil {
		watch.Debounce = time.Duration(*fc.Watch.DebounceMs) * time.Millisecond
	}

	cmd := fc.command(DefaultCommandConfig(language, env, port))

	if err := watch.Validate(); err != nil {
		return WatchConfig{}, CommandConfig{}, err
	}
	if err := cmd.Validate(); err != nil {
		return WatchConfig{}, CommandConfig{}, err
	}
	return watch, cmd, nil
}

// ResolveRun 合并出 run 子命令使用的 CommandConfig
//
// 默认命令来自 DefaultRunCommandConfig（运行构建产物），
// 配置文件中的 command 段与 Resolve 一样覆盖默认值。
func (fc FileConfig) ResolveRun(ov Overrides) (CommandConfig, error) {
	language := firstNonEmpty(ov.Language, fc.Language, "ts")
	env := firstNonEmpty(ov.Env, fc.Env, DefaultEnv)
	port := firstNonEmpty(ov.Port, fc.Port, DefaultPort)

	cmd := fc.command(DefaultRunCommandConfig(language, env, port))
	if err := cmd.Validate(); err != nil {
		return CommandConfig{}, err
	}
	return cmd, nil
}

// command 把配置文件中的 command 段叠加到 cmd 上
func (fc FileConfig) command(cmd CommandConfig) CommandConfig {
	if fc.Command.Program != "" {
		cmd.Program = fc.Command.Program
		cmd.Args = fc.Command.Args
	} else if fc.Command.Args != nil {
		cmd.Args = fc.Command.Args
	}
	if fc.Command.Dir != "" {
		cmd.Dir = fc.Command.Dir
	}
	keys := make([]string, 0, len(fc.Command.Env))
	for k := range fc.Command.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Env = append(cmd.Env, EnvVar{Key: k, Value: fc.Command.Env[k]})
	}
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
