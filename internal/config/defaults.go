package config

// Storage and index backend names.
const (
	StorageLocal  = "local"
	StorageRemote = "remote"
	IndexJSON     = "json"
	IndexSQLite   = "sqlite"
)

const (
	defaultConfigPath         = "~/.config/cardvault/config.toml"
	defaultDataDir            = "~/.local/share/cardvault"
	defaultLogDir             = "~/.local/share/cardvault/logs"
	defaultAPIBind            = "127.0.0.1:7488"
	defaultPublicPrefix       = "/files"
	defaultRequestTimeout     = 30
	defaultLockTimeout        = 10
	defaultRepositoryVersion  = "1.0.0"
	defaultAdminUsername      = "admin"
	defaultTokenTTL           = 24 * 60 * 60
	defaultMaxUploadBytes     = 10 << 20
	defaultWorkers            = 4
	defaultCharacterName      = "Unnamed"
	defaultCharacterAuthor    = "Unknown Author"
	defaultCharacterDesc      = "No description."
	defaultCharacterVersion   = "1.0"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultJSONIndexFileName  = "index.json"
	defaultSQLiteIndexFile    = "index.db"
	defaultLocalStorageSubdir = "files"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Storage: Storage{
			Backend:        StorageLocal,
			PublicPrefix:   defaultPublicPrefix,
			RequestTimeout: defaultRequestTimeout,
		},
		Index: Index{
			Backend:           IndexJSON,
			LockTimeout:       defaultLockTimeout,
			RepositoryVersion: defaultRepositoryVersion,
		},
		Auth: Auth{
			AdminUsername: defaultAdminUsername,
			TokenTTL:      defaultTokenTTL,
		},
		Library: Library{
			MaxUploadBytes:     defaultMaxUploadBytes,
			Workers:            defaultWorkers,
			DefaultName:        defaultCharacterName,
			DefaultAuthor:      defaultCharacterAuthor,
			DefaultDescription: defaultCharacterDesc,
			DefaultVersion:     defaultCharacterVersion,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
