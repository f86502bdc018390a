package config

import "strings"

// AppVersion is the version of the application, injected at build time via -ldflags.
var AppVersion = "0.1.0"

// AppName is the name of the application.
const AppName = "Wallify"

// UserAgent identifies Wallify to image providers and image hosts.
const UserAgent = AppName + "-App"

// LogWinSubDir is the sub directory for the log files on windows.
var LogWinSubDir = AppName

// LogSubDir is the sub directory for the log files.
var LogSubDir = "." + strings.ToLower(AppName)

// LogExt is the extension for the log files.
var LogExt = ".log"

// PrefsFileName is the name of the preference store file inside the data directory.
const PrefsFileName = "preferences.json"

// DefaultAPIAddr is the loopback address the local API server listens on.
const DefaultAPIAddr = "127.0.0.1:49461"
