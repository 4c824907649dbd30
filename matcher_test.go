package devwatch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPathMatcher 测试常见忽略规则
func TestPathMatcher(t *testing.T) {
	m := NewPathMatcher(DefaultIgnorePatterns)

	cases := []struct {
		path   string
		ignore bool
	}{
		{"node_modules/pkg/index.js", true},
		{"src/node_modules/pkg/index.js", true},
		{"./src/node_modules/pkg/index.js", true},
		{"/home/dev/app/node_modules/pkg/index.js", true},
		{"src/.git/HEAD", true},
		{"src/.#server.ts", true},
		{"src/server.ts~", true},
		{"src/.server.ts.swp", true},
		{"src/.DS_Store", true},
		{"src/server.ts", false},
		{"./src/routes/user.js", false},
		{"src/node_modules_backup.js", false},
	}

	for _, c := range cases {
		assert.Equal(t, c.ignore, m.Match(c.path), "Match(%s)", c.path)
		assert.Equal(t, c.ignore, MatchAny(c.path, DefaultIgnorePatterns), "MatchAny(%s)", c.path)
	}
}

// TestPathMatcherInvalidPattern 无效规则被跳过而不是报错
func TestPathMatcherInvalidPattern(t *testing.T) {
	m := NewPathMatcher([]string{"src/[a-", "**/*.log", ""})

	assert.Equal(t, []string{"**/*.log"}, m.Patterns())
	assert.Equal(t, []string{"src/[a-", ""}, m.Skipped())
	assert.True(t, m.Match("src/debug.log"))
	assert.False(t, m.Match("src/[a-"))

	assert.False(t, MatchAny("src/app.ts", []string{"src/[a-"}))
	assert.True(t, MatchAny("src/debug.log", []string{"src/[a-", "**/*.log"}))
}

// TestPathMatcherSeparators 平台分隔符在匹配前统一为 /
func TestPathMatcherSeparators(t *testing.T) {
	m := NewPathMatcher([]string{"src/generated/**"})

	assert.True(t, m.Match(filepath.Join("src", "generated", "types.ts")))
	assert.False(t, m.Match(filepath.Join("src", "types.ts")))
}

func TestPathMatcherEmpty(t *testing.T) {
	var nilMatcher *PathMatcher
	assert.False(t, nilMatcher.Match("anything.ts"))
	assert.False(t, NewPathMatcher(nil).Match("anything.ts"))
	assert.False(t, MatchAny("anything.ts", nil))
}

// TestPathMatcherStarCrossesSeparators 单独的 * 可以跨越目录，** 仍可匹配零层目录
func TestPathMatcherStarCrossesSeparators(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		ignore  bool
	}{
		{"*.log", "debug.log", true},
		{"*.log", "src/logs/debug.log", true},
		{"*.log", "./src/logs/debug.log", true},
		{"*.log", "src/app.ts", false},
		{"dist/*", "dist/b.js", true},
		{"dist/*", "dist/a/b.js", true},
		{"dist/*", "src/dist.js", false},
		{"src/dist/*", "src/dist/a/b.js", true},
		{"src/*.ts", "src/routes/user.ts", true},
		{"src/*.ts", "lib/user.ts", false},
		{"src/a*b.js", "src/a/x/b.js", true},
		{"**/node_modules/**", "node_modules/pkg/index.js", true},
		{"**/node_modules/**", "src/node_modules/pkg/index.js", true},
		{"src/[*].ts", "src/*.ts", true},
		{"src/[*].ts", "src/a/b.ts", false},
	}

	for _, c := range cases {
		m := NewPathMatcher([]string{c.pattern})
		assert.Equal(t, c.ignore, m.Match(c.path), "Match(%s, %s)", c.pattern, c.path)
		assert.Equal(t, c.ignore, MatchAny(c.path, []string{c.pattern}), "MatchAny(%s, %s)", c.pattern, c.path)
	}
}

func TestCrossingForms(t *testing.T) {
	assert.Equal(t, []string{"**/node_modules/**"}, crossingForms("**/node_modules/**"))
	assert.Equal(t, []string{"*.log", "*/**/*.log"}, crossingForms("*.log"))
	assert.Equal(t, []string{`src/\*.ts`}, crossingForms(`src/\*.ts`))
	assert.Len(t, crossingForms("*a*b*"), 8)
	assert.LessOrEqual(t, len(crossingForms("*a*b*c*d*e*f*g*h")), maxCrossingForms)
}
