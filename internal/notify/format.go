package notify

import (
	"fmt"

	"github.com/tartampluch/go-waifu-birthday/internal/config"
)

// Formatter renders the texts of an alert. The UI injects a localized one.
type Formatter interface {
	Title(kind Kind, name string) string
	Body(kind Kind, name string) string
}

// DefaultFormatter renders the English fallback texts.
type DefaultFormatter struct{}

// Title implements Formatter.
func (DefaultFormatter) Title(kind Kind, name string) string {
	switch kind {
	case KindToday:
		return fmt.Sprintf(config.FallbackTodayTitle, name)
	case KindTomorrow:
		return config.FallbackSoonTitle
	default:
		return config.FallbackOnlineTitle
	}
}

// Body implements Formatter.
func (DefaultFormatter) Body(kind Kind, name string) string {
	switch kind {
	case KindToday:
		return config.FallbackTodayBody
	case KindTomorrow:
		return fmt.Sprintf(config.FallbackSoonBody, name)
	default:
		return config.FallbackOnlineBody
	}
}
