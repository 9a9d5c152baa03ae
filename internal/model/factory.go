package model

import (
	"fmt"
	"time"

	"cancer-diagnosis/internal/diagnosis"
)

const (
	BackendFile   = "file"
	BackendRemote = "http"
)

// NewRepository picks the backend named in the configuration.
func NewRepository(backend, dir, serverURL string, timeout time.Duration) (diagnosis.ModelRepository, error) {
	switch backend {
	case "", BackendFile:
		return NewFileRepository(dir), nil
	case BackendRemote:
		if serverURL == "" {
			return nil, fmt.Errorf("model backend %q requires a server URL", backend)
		}
		return NewRemoteRepository(serverURL, timeout), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", backend)
	}
}
