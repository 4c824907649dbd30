package devwatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testWatchConfig() WatchConfig {
	return WatchConfig{
		Paths:          []string{"./src"},
		Extensions:     []string{"ts", "js", "json"},
		IgnorePatterns: []string{"**/node_modules/**", "**/*.swp"},
		Debounce:       DefaultDebounce,
	}
}

// TestChangeFilterKinds 只有 Create / Modify 有资格
func TestChangeFilterKinds(t *testing.T) {
	f := NewChangeFilter(testWatchConfig())

	cases := []struct {
		kind EventKind
		want bool
	}{
		{EventCreate, true},
		{EventModify, true},
		{EventRemove, false},
		{EventRename, false},
		{EventMetadata, false},
		{EventUnknown, false},
	}
	for _, c := range cases {
		ev := Event{Kind: c.kind, Paths: []string{"src/app.ts"}}
		assert.Equal(t, c.want, f.Qualifies(ev), "kind %s", c.kind)
	}
}

// TestChangeFilterIgnored 命中忽略规则的路径无论扩展名都不触发
func TestChangeFilterIgnored(t *testing.T) {
	cfg := testWatchConfig()
	f := NewChangeFilter(cfg)

	ev := Event{Kind: EventModify, Paths: []string{"node_modules/pkg/index.js"}}
	assert.False(t, f.Qualifies(ev))
	assert.False(t, Qualifies(ev, cfg))

	ev = Event{Kind: EventCreate, Paths: []string{"src/.app.ts.swp"}}
	assert.False(t, f.Qualifies(ev))
	assert.True(t, f.Ignored("src/node_modules/a/b.json"))
}

func TestChangeFilterExtensions(t *testing.T) {
	f := NewChangeFilter(testWatchConfig())

	cases := []struct {
		path string
		want bool
	}{
		{"src/app.ts", true},
		{"src/config.json", true},
		{"src/server.js", true},
		{"src/APP.TS", false}, // 区分大小写
		{"src/styles.css", false},
		{"src/Makefile", false},
		{"src/.env", false},
		{"src/trailing.", false},
		{"src/archive.tar.ts", true},
	}
	for _, c := range cases {
		ev := Event{Kind: EventModify, Paths: []string{c.path}}
		assert.Equal(t, c.want, f.Qualifies(ev), c.path)
	}
}

// TestChangeFilterMultiplePaths 任意一个路径通过即可
func TestChangeFilterMultiplePaths(t *testing.T) {
	f := NewChangeFilter(testWatchConfig())

	ev := Event{Kind: EventCreate, Paths: []string{"node_modules/x/index.js", "src/README", "src/app.ts"}}
	assert.True(t, f.Qualifies(ev))

	ev = Event{Kind: EventCreate, Paths: []string{"node_modules/x/index.js", "src/README"}}
	assert.False(t, f.Qualifies(ev))

	assert.False(t, f.Qualifies(Event{Kind: EventModify}))
}

// TestChangeFilterNestedIgnore 用户规则中的 * 覆盖更深层的文件
func TestChangeFilterNestedIgnore(t *testing.T) {
	cfg := testWatchConfig()
	cfg.IgnorePatterns = []string{"src/dist/*", "*.test.ts"}
	f := NewChangeFilter(cfg)

	assert.False(t, f.Qualifies(Event{Kind: EventModify, Paths: []string{"src/dist/a/b.js"}}))
	assert.False(t, f.Qualifies(Event{Kind: EventModify, Paths: []string{"src/routes/user.test.ts"}}))
	assert.True(t, f.Qualifies(Event{Kind: EventModify, Paths: []string{"src/routes/user.ts"}}))
}
