package history

import "codeberg.org/mutker/faultwatch/internal/errors"

const (
	// File system permissions and paths
	defaultDirPerm      = 0o755
	defaultDBPath       = "/var/lib/faultwatch/history.db"
	defaultBackupDir    = "/var/lib/faultwatch/backups"
	defaultBatchSize    = 10
	defaultBatchTimeout = 60
)

type Config struct {
	DBPath          string
	BackupDir       string
	BatchSize       int
	BatchTimeout    int // seconds
	BackupOnMigrate bool
	Enabled         bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:          defaultDBPath,
		BackupDir:       defaultBackupDir,
		BatchSize:       defaultBatchSize,
		BatchTimeout:    defaultBatchTimeout,
		BackupOnMigrate: true,
		Enabled:         false, // Disabled by default
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate paths if history is enabled
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 || c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			BatchSize    int
			BatchTimeout int
		}{
			BatchSize:    c.BatchSize,
			BatchTimeout: c.BatchTimeout,
		})
	}
	if c.BackupOnMigrate && c.BackupDir == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "backup directory is empty")
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
