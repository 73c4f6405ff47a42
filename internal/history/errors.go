package history

import "codeberg.org/mutker/faultwatch/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("history_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("history_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("history_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("history_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("history_transaction_failed")

	// Storage Errors
	ErrStorageAccess = errors.ErrorCode("history_storage_access_failed")
	ErrStorageInit   = errors.ErrInitFailed
	ErrStorageClose  = errors.ErrShutdownFailed

	// Service Errors
	ErrServiceShutdown = errors.ErrShutdownFailed

	// Recording Errors
	ErrRecord       = errors.ErrorCode("history_record_failed")
	ErrInvalidEntry = errors.ErrorCode("history_invalid_entry")

	// Operation Errors
	ErrOperationTimeout = errors.ErrTimeout
)

func init() {
	errors.Register(map[errors.ErrorCode]string{
		ErrInvalidDBPath:          "History database path is empty",
		ErrSchemaInitFailed:       "Failed to initialize history schema",
		ErrSchemaValidationFailed: "Failed to validate history schema",
		ErrSchemaMigrationFailed:  "Failed to migrate history schema",
		ErrTransactionFailed:      "History transaction failed",
		ErrStorageAccess:          "Failed to access history storage",
		ErrRecord:                 "Failed to record cycle",
		ErrInvalidEntry:           "Invalid history entry",
	})
}
