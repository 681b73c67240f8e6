package rediswr

import "time"

// Config holds Redis connection settings.
type Config struct {
	// Addrs is a comma separated list of "host:port" addresses.
	Addrs         string        `yaml:"addrs"           validate:"required"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"                             mask:"true"`
	DB            int           `yaml:"db"`
	IsClusterMode bool          `yaml:"is_cluster_mode"`
	DialTimeout   time.Duration `yaml:"dial_timeout"    default:"5s"`

	// KeyPrefix namespaces the keys written by Cache.
	KeyPrefix string `yaml:"key_prefix"`
}
