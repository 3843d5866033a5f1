package config

// Config holds app configuration
type Config struct {
	InputFile  string `mapstructure:"input"`
	OutputFile string `mapstructure:"output"`
	OutputDir  string `mapstructure:"output_dir"`

	// MipLevel selects which mipmap level extract renders (0 is full size)
	MipLevel int `mapstructure:"mip_level"`

	// Match and Exclude are glob rules applied to texture names
	// Matching is case-insensitive; an empty Match list selects everything
	Match   []string `mapstructure:"match"`
	Exclude []string `mapstructure:"exclude"`

	// BackupKeep is how many compressed backups rewrite keeps when writing in place
	// 0 disables backups
	BackupKeep int `mapstructure:"backup_keep"`

	// CacheSize bounds the number of rendered images kept in memory
	CacheSize int `mapstructure:"cache_size"`

	DryRun       bool   `mapstructure:"dry_run"`
	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}
