package ports

import "go.trai.ch/quill/internal/core/domain"

// ConfigLoader defines the interface for loading the compilation configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration from the given directory.
	// A directory without a configuration file yields the defaults.
	Load(dir string) (domain.Config, error)
}
