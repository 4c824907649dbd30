package devwatch

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventKind 是文件系统事件的类型
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCreate
	EventModify
	EventRemove
	EventRename
	EventMetadata
)

// String 返回事件类型名
func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	case EventMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Event 是交给 ChangeFilter 判断的原始事件
//
// 一个事件可能关联多个路径（例如重命名的新旧路径）。
type Event struct {
	Kind  EventKind
	Paths []string
}

// fromFsnotify 把 fsnotify 事件转换为 Event
//
// fsnotify 的 Op 是位掩码，同时带多个位时按 Create > Write > Remove > Rename > Chmod 取一个。
func fromFsnotify(ev fsnotify.Event) Event {
	kind := EventUnknown
	switch {
	case ev.Op.Has(fsnotify.Create):
		kind = EventCreate
	case ev.Op.Has(fsnotify.Write):
		kind = EventModify
	case ev.Op.Has(fsnotify.Remove):
		kind = EventRemove
	case ev.Op.Has(fsnotify.Rename):
		kind = EventRename
	case ev.Op.Has(fsnotify.Chmod):
		kind = EventMetadata
	}
	return Event{Kind: kind, Paths: []string{ev.Name}}
}

// extension 返回不带点的扩展名，没有扩展名时返回 ""
// ".env" 这类只有前导点的文件名视为没有扩展名
func extension(path string) string {
	base := filepath.Base(filepath.ToSlash(path))
	ext := filepath.Ext(base)
	if ext == base {
		return ""
	}
	return strings.TrimPrefix(ext, ".")
}
