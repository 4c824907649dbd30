package devwatch

// ChangeFilter 判断一个文件系统事件是否值得重启
//
// 只有 Create / Modify 事件有资格；事件中的路径依次检查：
// 命中忽略规则的跳过，否则扩展名（区分大小写）在允许列表中即通过。
// 第一个通过的路径即返回 true，后续路径不再检查。
type ChangeFilter struct {
	ignore     *PathMatcher
	extensions map[string]struct{}
}

// NewChangeFilter 根据 WatchConfig 创建过滤器，忽略规则只编译一次
func NewChangeFilter(cfg WatchConfig, opts ...MatcherOption) *ChangeFilter {
	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[e] = struct{}{}
	}
	return &ChangeFilter{
		ignore:     NewPathMatcher(cfg.IgnorePatterns, opts...),
		extensions: exts,
	}
}

// Qualifies 返回事件是否应触发重启
func (f *ChangeFilter) Qualifies(ev Event) bool {
	if ev.Kind != EventCreate && ev.Kind != EventModify {
		return false
	}
	for _, p := range ev.Paths {
		if f.ignore.Match(p) {
			continue
		}
		ext := extension(p)
		if ext == "" {
			continue
		}
		if _, ok := f.extensions[ext]; ok {
			return true
		}
	}
	return false
}

// Ignored 返回路径是否命中忽略规则
func (f *ChangeFilter) Ignored(path string) bool {
	return f.ignore.Match(path)
}

// Qualifies 是 ChangeFilter 的无状态形式
func Qualifies(ev Event, cfg WatchConfig) bool {
	return NewChangeFilter(cfg).Qualifies(ev)
}
