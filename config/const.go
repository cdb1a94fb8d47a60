package config

import "strings"

// AppVersion is the version of the service.
var AppVersion = "0.1.0" // Overridden with -ldflags "-X .../config.AppVersion=..."

// AppName is the name of the service.
const AppName = "Framer"

// LogWinSubDir is the sub directory for the log files on windows.
var LogWinSubDir = AppName

// LogSubDir is the sub directory for the log files.
var LogSubDir = "." + strings.ToLower(AppName)

// LogExt is the extension for the log files.
var LogExt = ".log"

// KeyringService is the keyring service name the API key is stored under.
const KeyringService = AppName

// KeyringUser is the keyring account name the API key is stored under.
const KeyringUser = "gemini_api_key"

// Default values for the configuration.
const (
	DefaultListenAddr        = "127.0.0.1:49460"
	DefaultImageModel        = "imagen-4.0-generate-001"
	DefaultEditModel         = "gemini-2.5-flash-image"
	DefaultTextModel         = "gemini-2.5-flash"
	DefaultAspectRatio       = "1:1"
	DefaultFit               = "pad"
	DefaultMaxUploadBytes    = 20 << 20 // 20MB
	DefaultMaxConnections    = 64
	DefaultRequestsPerMinute = 10
)
