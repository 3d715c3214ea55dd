package storage

import (
	"fmt"

	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSFTP   = "sftp"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Path    string
	SFTP    SFTPConfig
}

// Open creates the configured backend.
func Open(cfg Config, log *zap.SugaredLogger) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		log.Warn("using in-memory storage, nothing will be persisted")
		return NewMemoryStore(), nil
	case BackendBolt, "":
		log.Infof("using bolt storage at %s", cfg.Path)
		return NewBoltStore(cfg.Path)
	case BackendSFTP:
		log.Infof("using sftp storage at %s@%s:%s", cfg.SFTP.User, cfg.SFTP.Host, cfg.SFTP.Dir)
		return DialSFTP(cfg.SFTP, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
