package config

// Configfile represents the structure of the txlog.yaml configuration file.
type Configfile struct {
	Cache CacheDTO `yaml:"cache"`
	Store StoreDTO `yaml:"store"`
	Log   LogDTO   `yaml:"log"`
}

// CacheDTO represents the cache section. ExpireDuration is in seconds.
type CacheDTO struct {
	ExpireDuration int `yaml:"expireDuration"`
	MaxEntries     int `yaml:"maxEntries"`
	Shards         int `yaml:"shards"`
}

// StoreDTO represents the store section.
type StoreDTO struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	Address   string `yaml:"address"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// LogDTO represents the log section.
type LogDTO struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}
