package models

// Phase represents the lifecycle phase of a fetch pipeline
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// MaxTrendingLimit caps the number of entries in a trending list
const MaxTrendingLimit = 50

// StoreDriver selects the backend of the trending store
type StoreDriver string

const (
	StoreDriverBolt   StoreDriver = "bolt"   // Embedded bbolt file (default)
	StoreDriverSQLite StoreDriver = "sqlite" // SQLite via gorm
	StoreDriverRedis  StoreDriver = "redis"  // Redis sorted set
)

// Valid reports whether the driver is one of the known backends
func (d StoreDriver) Valid() bool {
	switch d {
	case StoreDriverBolt, StoreDriverSQLite, StoreDriverRedis:
		return true
	default:
		return false
	}
}
