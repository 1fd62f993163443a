package main

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
)

// Change feed drivers accepted by CHANGE_FEED.
const (
	FeedMemory = "memory"
	FeedRedis  = "redis"
)

type appConfig struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Name string `env:"APP_NAME" envDefault:"bookingd"`

	StoreDriver    string `env:"STORE_DRIVER" envDefault:"memory"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"./tmp/bookings.db"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"bookings"`

	ChangeFeed        string `env:"CHANGE_FEED" envDefault:"memory"`
	ChangeFeedChannel string `env:"CHANGE_FEED_CHANNEL" envDefault:"bookings:changes"`
	ChangeFeedBuffer  int    `env:"CHANGE_FEED_BUFFER" envDefault:"64"`
}
