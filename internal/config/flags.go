package config

import (
	"github.com/spf13/pflag"
)

// Flags are the command-line overrides. Only flags that were set on the
// command line replace file values.
type Flags struct {
	set *pflag.FlagSet

	ConfigPath string
	DBPath     string
	LogFile    string
	Backend    string
	User       string
	Role       string
	Ephemeral   bool
	WriteConfig bool
	Version     bool
	Help        bool
}

// BindFlags registers the flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{set: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "path to config.yaml (default: <user config dir>/jobtimer/config.yaml)")
	fs.StringVar(&f.DBPath, "db", "", "path to the SQLite database")
	fs.StringVar(&f.LogFile, "log-file", "", "write logs to this file")
	fs.StringVar(&f.Backend, "backend", "", "backend API base URL (empty keeps logs local)")
	fs.StringVar(&f.User, "user", "", "user id time is logged for")
	fs.StringVar(&f.Role, "role", "", "session role: admin, client or freelancer")
	fs.BoolVar(&f.Ephemeral, "ephemeral", false, "keep the running timer in memory only")
	fs.BoolVar(&f.WriteConfig, "write-config", false, "write the effective config to the config path and exit")
	fs.BoolVar(&f.Version, "version", false, "print version and exit")
	fs.BoolVarP(&f.Help, "help", "h", false, "show help")
	return f
}

// Apply copies the flags that were given onto cfg.
func (f *Flags) Apply(cfg *Config) {
	changed := func(name string) bool { return f.set.Changed(name) }

	if changed("db") {
		cfg.Storage.Path = f.DBPath
	}
	if changed("log-file") {
		cfg.Log.File = f.LogFile
	}
	if changed("backend") {
		cfg.Backend.URL = f.Backend
	}
	if changed("user") {
		cfg.User.ID = f.User
	}
	if changed("role") {
		cfg.User.Role = f.Role
	}
	if changed("ephemeral") {
		cfg.Storage.Ephemeral = f.Ephemeral
	}
}
