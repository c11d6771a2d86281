package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/onetimesecret/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   database DSN ("inmemory", "sqlite:<path>", "postgres://...")
//	-t int      default secret TTL, minutes (0 = no default expiry)
//	-r int      reaper interval, seconds (0 = sweep disabled)
//	-k string   lookup key format ("uuid" or "token")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and converted to time.Duration.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t", "-r", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	defaultSecretTTL := fs.Int("t", int(config.DefaultSecretTTL.Minutes()), "default secret TTL (in minutes)")
	reaperInterval := fs.Int("r", int(config.ReaperInterval.Seconds()), "expired-record sweep interval (in seconds)")

	fs.StringVar(&config.KeyFormat, "k", config.KeyFormat, "lookup key format (uuid|token)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.DefaultSecretTTL = time.Duration(*defaultSecretTTL) * time.Minute
	config.ReaperInterval = time.Duration(*reaperInterval) * time.Second
}
