package main

import "github.com/my-player/modelbak/config"

// Source, destination and catalog paths default to the deployment layout
// of the original backup script but can be overridden per invocation via
// flags or environment, so a zero-argument `modelbak backup` still works.
type Command struct {
	Version struct{} `cmd:"" help:"Print version information."`
	Backup  struct {
		Source            string              `help:"source directory path" short:"s" env:"MODELBAK_SOURCE" default:"my_player/ai/models"`
		Dest              string              `help:"destination directory path, created if absent" short:"D" env:"MODELBAK_DEST" default:"backups"`
		ArchivePrefix     string              `help:"archive name prefix" default:"models"`
		Database          string              `help:"catalog database path" short:"d" env:"MODELBAK_DB" default:"modelbak.db"`
		MaxFileSize       config.SizeArgument `help:"skip files larger than this size"`
		IncludeLargeFiles bool                `help:"include files larger than max-file-size, will be skipped otherwise"`
		DryRun            bool                `help:"don't write any files, just print the output"`
	} `cmd:"" help:"Snapshot a directory into a timestamped tar.gz archive."`
	List struct {
		Source   string `help:"only list archives of this source directory" short:"s"`
		Database string `help:"catalog database path" short:"d" env:"MODELBAK_DB" default:"modelbak.db"`
	} `cmd:"" help:"List cataloged backup archives."`
	Prune struct {
		Source   string `help:"only prune archives of this source directory" short:"s"`
		Database string `help:"catalog database path" short:"d" env:"MODELBAK_DB" default:"modelbak.db"`
		KeepLast int    `help:"number of newest archives to keep per source" default:"5"`
		DryRun   bool   `help:"don't delete any files, just print the output"`
	} `cmd:"" help:"Delete all but the newest backup archives."`
	Daemon struct {
		Config   string `help:"config file path" short:"c" required:""`
		Database string `help:"catalog database path" short:"d" env:"MODELBAK_DB" default:"modelbak.db"`
		DryRun   bool   `help:"don't write any files, just print the output"`
	} `cmd:"" help:"Run the scheduled backup service."`
}
