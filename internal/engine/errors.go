package engine

import (
	"errors"
	"fmt"

	"github.com/tartampluch/go-waifu-birthday/internal/config"
)

// Error classes surfaced by the core. Callers match them with errors.Is.
var (
	ErrNetwork                = errors.New(config.ErrNetwork)
	ErrServer                 = errors.New(config.ErrServer)
	ErrValidation             = errors.New(config.ErrValidation)
	ErrPermissionDenied       = errors.New(config.ErrPermissionDenied)
	ErrUnsupportedEnvironment = errors.New(config.ErrUnsupportedEnv)
)

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d", config.ErrServer, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", config.ErrServer, e.Code, e.Detail)
}

// Is makes every StatusError match ErrServer.
func (e *StatusError) Is(target error) bool {
	return target == ErrServer
}
