package constant

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

type DatabaseDriver string

const (
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

type StorageDriver string

const (
	StorageDriverLocal StorageDriver = "local"
	StorageDriverMinIO StorageDriver = "minio"
)

// TranscriptionPlaceholder is replaced by the stored transcription inside a
// completion prompt template.
const TranscriptionPlaceholder = "{transcription}"

const (
	TranscriptionExchange   = "transcription_exchange"
	TranscriptionQueue      = "transcription_queue"
	TranscriptionRoutingKey = "transcription.request"
	TranscriptionDLX        = "transcription_exchange_dlx"
	TranscriptionDLQ        = "transcription_queue_dlq"
	TranscriptionDLQKey     = "dlq.transcription.request"
)
