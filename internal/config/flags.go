package config

import (
	"time"

	"github.com/spf13/pflag"
)

// RegisterRunFlags adds the flags shared by every command that runs or plans
// a batch. Their defaults mirror setDefaults; values only override the
// configuration when set explicitly.
func RegisterRunFlags(fs *pflag.FlagSet) {
	fs.String("theme", "", "Theme substituted for {theme} in the template file")
	fs.String("template", "phrases.txt", "Template file with {theme} placeholders")
	fs.String("phrases-file", "", "Text file with one seed phrase per line")
	fs.String("seed-bucket", "", "Bucket holding the seed object")
	fs.String("seed-object", "", "Bucket object with one seed phrase per line")

	fs.Int64("min-search", 1000, "Minimum average monthly searches")
	fs.Int("min-words", 0, "Minimum words per keyword (0 disables)")
	fs.Int("limit", 100, "Maximum seed phrases processed per run")
	fs.Int("max-results", 0, "Maximum keyword rows written per run (0 disables)")

	fs.String("layout", "full", "Results layout: full or bids")
	fs.String("results", "results.csv", "Local results CSV file")
	fs.String("bucket", "", "Bucket to upload the results file to")
	fs.String("upload-key", "", "Object key for the uploaded results file")
	fs.String("sheet", "", "Spreadsheet name to append results to")
	fs.String("sheet-id", "", "Spreadsheet ID to append results to")
	fs.String("worksheet", "", "Worksheet title (default: first worksheet)")

	fs.String("log-backend", "file", "Processed log backend: file, sqlite or redis")
	fs.String("log-path", "last_run.log", "Processed log file or SQLite database path")
	fs.String("redis-addr", "", "Redis address for the redis processed log")
	fs.Bool("dedup-log", false, "Skip phrases already in the processed log when committing")
	fs.Duration("interval", time.Second, "Pause between keyword API calls")
}

// RegisterServerFlags adds the trigger server flags
func RegisterServerFlags(fs *pflag.FlagSet) {
	fs.String("host", "0.0.0.0", "Listen host")
	fs.Int("port", 8080, "Listen port")
	fs.String("schedule", "", `Cron schedule for automatic runs, e.g. "0 3 * * *" or "@every 6h"`)
}

// RegisterLoggingFlags adds log level and format flags
func RegisterLoggingFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("log-format", "auto", "Log format: json, console or auto")
}
