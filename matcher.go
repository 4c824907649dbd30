package devwatch

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// PathMatcher 判断路径是否命中忽略规则
//
// 规则按顺序保存；无法解析的规则在构造时被跳过（记录警告），
// 因此一条写错的规则不会让整个监控停下来。
// 单独的 * 可以跨越目录分隔符（"*.log" 命中 "src/logs/debug.log"），
// "**/" 仍然可以匹配零层目录。
// 构造完成后只读，可以并发使用。
type PathMatcher struct {
	patterns []string
	forms    [][]string
	skipped  []string
}

// maxCrossingForms 限制单条规则展开后的写法数量
const maxCrossingForms = 64

// MatcherOption 配置 PathMatcher
type MatcherOption func(*matcherOptions)

type matcherOptions struct {
	logger *log.Logger
}

// WithMatcherLogger 指定记录无效规则时使用的 logger
func WithMatcherLogger(l *log.Logger) MatcherOption {
	return func(o *matcherOptions) {
		o.logger = l
	}
}

// NewPathMatcher 编译一组忽略规则
func NewPathMatcher(patterns []string, opts ...MatcherOption) *PathMatcher {
	o := matcherOptions{logger: discardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	m := &PathMatcher{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if p == "" || !doublestar.ValidatePattern(p) {
			o.logger.Warn("skipping invalid ignore pattern", "pattern", p)
			m.skipped = append(m.skipped, p)
			continue
		}
		m.patterns = append(m.patterns, p)
		m.forms = append(m.forms, crossingForms(p))
	}
	return m
}

// Match 返回 path 是否命中任意一条规则
//
// 匹配前统一为 / 分隔；带有 "./" 或 "/" 前缀的路径也会去掉前缀再试一次。
func (m *PathMatcher) Match(path string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	candidates := matchCandidates(path)
	for _, forms := range m.forms {
		if matchForms(forms, candidates) {
			return true
		}
	}
	return false
}

// Patterns 返回生效的规则
func (m *PathMatcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Skipped 返回被跳过的无效规则
func (m *PathMatcher) Skipped() []string {
	return append([]string(nil), m.skipped...)
}

// MatchAny 是 PathMatcher 的无状态形式，每次调用都会重新校验规则
func MatchAny(path string, patterns []string) bool {
	candidates := matchCandidates(path)
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if p == "" || !doublestar.ValidatePattern(p) {
			continue
		}
		if matchForms(crossingForms(p), candidates) {
			return true
		}
	}
	return false
}

func matchForms(forms, candidates []string) bool {
	for _, f := range forms {
		for _, c := range candidates {
			// 规则已经校验过，这里不会返回 ErrBadPattern
			if ok, _ := doublestar.Match(f, c); ok {
				return true
			}
		}
	}
	return false
}

// crossingForms 把不属于 ** 的每个 * 展开为 "*" 与 "*/**/*" 两种写法
//
// 后者允许 * 吞掉若干层目录。转义字符与 [...] 中的 * 保持原样；
// 展开数量达到 maxCrossingForms 后，剩余的 * 不再展开。
func crossingForms(p string) []string {
	forms := []string{""}
	appendAll := func(s string) {
		for i := range forms {
			forms[i] += s
		}
	}

	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\' && i+1 < len(p):
			appendAll(p[i : i+2])
			i++
			continue
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '*':
			j := i
			for j < len(p) && p[j] == '*' {
				j++
			}
			if j-i > 1 || len(forms)*2 > maxCrossingForms {
				appendAll(p[i:j])
				i = j - 1
				continue
			}
			next := make([]string, 0, len(forms)*2)
			for _, f := range forms {
				next = append(next, f+"*", f+"*/**/*")
			}
			forms = next
			continue
		}
		appendAll(string(c))
	}
	return forms
}

func matchCandidates(path string) []string {
	slashed := filepath.ToSlash(path)
	trimmed := strings.TrimLeft(strings.TrimPrefix(slashed, "./"), "/")
	if trimmed == slashed || trimmed == "" {
		return []string{slashed}
	}
	return []string{slashed, trimmed}
}
