package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/devhabit/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-i string   JWT issuer
//	-n string   JWT audience
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-k int      identity cache sliding expiration, minutes
//	-R string   Redis address for the identity cache
//
// Only the flags above are picked out of args (see flagx.FilterArgs) so the
// -c/-config flag and unknown flags do not break parsing. Durations are
// whole minutes and only override when present.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-i", "-n", "-t", "-r", "-k", "-R"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.Issuer, "i", config.Issuer, "access token issuer")
	fs.StringVar(&config.Audience, "n", config.Audience, "access token audience")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")
	userCacheDuration := fs.Int("k", int(config.UserCacheDuration.Minutes()), "user id cache sliding expiration (in minutes)")

	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address for the user id cache")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Minute
		case "k":
			config.UserCacheDuration = time.Duration(*userCacheDuration) * time.Minute
		}
	})
}
