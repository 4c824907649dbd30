package devwatch

import (
	"errors"
	"fmt"
	"time"
)

// WatchConfig 描述需要监控的文件树以及触发重启的条件
//
// Paths：需要递归监控的根路径（按顺序注册）
// Extensions：允许触发重启的扩展名，不带前导点，如 "ts"
// IgnorePatterns：忽略规则（glob，支持 **）
// Debounce：两次被接受的重启之间的最小间隔，0 表示不限制
type WatchConfig struct {
	Paths          []string
	Extensions     []string
	IgnorePatterns []string
	Debounce       time.Duration
}

// EnvVar 表示一个注入到子进程中的环境变量
type EnvVar struct {
	Key   string
	Value string
}

// String 返回 KEY=VALUE 形式
func (e EnvVar) String() string {
	return e.Key + "=" + e.Value
}

// CommandConfig 描述被托管的子进程
//
// Program：可执行文件名或路径
// Args：命令行参数
// Dir：工作目录，空字符串表示当前目录
// Env：叠加在继承环境变量之上的覆盖项，后出现的同名变量生效
type CommandConfig struct {
	Program string
	Args    []string
	Dir     string
	Env     []EnvVar
}

var (
	// ErrNoProgram 表示 CommandConfig 未指定要运行的程序
	ErrNoProgram = errors.New("no program configured")
)

// Validate 检查 WatchConfig 是否可用
func (c WatchConfig) Validate() error {
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", c.Debounce)
	}
	if len(c.Paths) == 0 {
		return errors.New("no watch paths configured")
	}
	return nil
}

// Validate 检查 CommandConfig 是否可用
func (c CommandConfig) Validate() error {
	if c.Program == "" {
		return ErrNoProgram
	}
	return nil
}

// DefaultIgnorePatterns 是开发服务器常见的忽略规则
var DefaultIgnorePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/.#*",
	"**/*~",
	"**/*.swp",
	"**/*.swx",
	"**/.DS_Store",
}

// DefaultExtensions 是默认触发重启的扩展名
var DefaultExtensions = []string{"ts", "js", "json"}

const (
	// DefaultDebounce 默认的重启最小间隔
	DefaultDebounce = 500 * time.Millisecond

	// DefaultEnv 默认的 NODE_ENV
	DefaultEnv = "development"

	// DefaultPort 默认的 PORT
	DefaultPort = "8080"
)

// DefaultWatchConfig 返回监控 ./src 的默认配置
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Paths:          []string{"./src"},
		Extensions:     append([]string(nil), DefaultExtensions...),
		IgnorePatterns: append([]string(nil), DefaultIgnorePatterns...),
		Debounce:       DefaultDebounce,
	}
}

// DefaultCommandConfig 根据语言/运行时选择启动命令
//
// "ts" 使用 ts-node 运行 ./src/server.ts
// "bun" 使用 bun run 运行 ./src/server.js
// 其它情况使用 node 运行 ./src/server.js
func DefaultCommandConfig(language, env, port string) CommandConfig {
	if env == "" {
		env = DefaultEnv
	}
	if port == "" {
		port = DefaultPort
	}

	cmd := CommandConfig{
		Program: "node",
		Args:    []string{"./src/server.js"},
		Dir:     ".",
		Env: []EnvVar{
			{Key: "NODE_ENV", Value: env},
			{Key: "PORT", Value: port},
		},
	}
	switch language {
	case "ts":
		cmd.Program = "ts-node"
		cmd.Args = []string{"./src/server.ts"}
	case "bun":
		cmd.Program = "bun"
		cmd.Args = []string{"run", "./src/server.js"}
	}
	return cmd
}

// DefaultRunCommandConfig 返回一次性运行构建产物的命令
//
// 与 DefaultCommandConfig 不同，入口固定为构建输出 ./app/src/server.js：
// "bun" 使用 bun run，"ts" 使用 ts-node，其它情况使用 node。
func DefaultRunCommandConfig(language, env, port string) CommandConfig {
	cmd := DefaultCommandConfig("", env, port)
	cmd.Args = []string{"./app/src/server.js"}
	switch language {
	case "ts":
		cmd.Program = "ts-node"
	case "bun":
		cmd.Program = "bun"
		cmd.Args = []string{"run", "./app/src/server.js"}
	}
	return cmd
}
