package devwatch

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// NewLogger 创建带 "devwatch" 前缀与时间戳的 logger
//
// level 取值 debug / info / warn / error，空字符串等同 info
func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "devwatch",
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})

	styles := log.DefaultStyles()
	styles.Prefix = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styles.Keys["run"] = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	logger.SetStyles(styles)

	return logger, nil
}

// discardLogger 是库内部未指定 logger 时的默认值
func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
