/*
Phgend starts a phrasegen server and begins listening for new connections.

Usage:

	phgend [flags]
	phgend [flags] -l [[ADDRESS]:PORT]

Once started, the phrasegen server will listen for HTTP requests and respond
to them using REST protocol. By default, it will listen on localhost:8080.
This can be changed with the --listen/-l flag (or config via environment
var). The flag argument must be either a full address with port, such as
"192.168.0.2:6001", or just the port preceeded by a colon, such as ":6001".

If a JWT token secret is not given, one will be automatically generated and
seeded with cryptographically random bytes. As a consequence, in this mode of
operation all tokens are rendered invalid as soon as the server shuts down.
This is suitable for testing, but must be given via CLI flag, environment
variable, or config file if running in production.

The flags are:

	-v, --version
		Give the current version of the phrasegen server and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, defaults to the value of environment variable
		PHRASEGEN_LISTEN_ADDRESS, and if that is not given, defaults to
		localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are less
		than 32 bytes in the secret, it will be repeated until it is. The
		maximum size is 64 bytes. If not given, defaults to the value of
		environment variable PHRASEGEN_TOKEN_SECRET. If no secret is
		specified or an empty secret is given, a random secret is
		automatically generated. Note that any tokens issued with a random
		secret become invalid as soon as the server shuts down.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of the
		following: inmem, sqlite. inmem has no further params. sqlite needs
		the path to the data directory, such as sqlite:path/to/db_dir. If not
		given, defaults to the value of environment variable
		PHRASEGEN_DATABASE. If no DB driver is specified or an empty one is
		given, an in-memory database is automatically selected.

	-c, --config FILE
		Load additional settings from the given TOML config file. Values
		given on the command line or in environment variables take
		precedence over values in the file.
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/phrasegen/internal/version"
	"github.com/dekarrin/phrasegen/server"
	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/phrasegen/server/serr"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "PHRASEGEN_LISTEN_ADDRESS"
	EnvSecret = "PHRASEGEN_TOKEN_SECRET"
	EnvDB     = "PHRASEGEN_DATABASE"
)

// fileConfig is the shape of the optional TOML config file given via
// -c/--config. Any field left unset in the file falls through to the
// corresponding flag, environment variable, or built-in default.
type fileConfig struct {
	Listen string `toml:"listen"`
	Secret string `toml:"secret"`
	DB     string `toml:"db"`
}

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the phrasegen server and then exit.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
	flagConfig  = pflag.StringP("config", "c", "", "Load additional settings from the given TOML config file.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (phrasegen engine v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	args := pflag.Args()
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	var fileCfg fileConfig
	if *flagConfig != "" {
		if _, err := toml.DecodeFile(*flagConfig, &fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Could not read config file: %s\n", err.Error())
			os.Exit(1)
		}
	}

	// get address info: flags > env > file > default
	port := 0
	addr := ""
	listenAddr := fileCfg.Listen
	if envVal := os.Getenv(EnvListen); envVal != "" {
		listenAddr = envVal
	}
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr != "" {
		bindParts := strings.SplitN(listenAddr, ":", 2)
		if len(bindParts) != 2 {
			fmt.Fprintf(os.Stderr, "Listen address is not in ADDRESS:PORT or :PORT format.\nDo -h for help.\n")
			os.Exit(1)
		}

		var err error
		addr = bindParts[0]
		port, err = strconv.Atoi(bindParts[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%q is not a valid port number.\nDo -h for help.\n", bindParts[1])
			os.Exit(1)
		}
	}
	if port == 0 {
		addr, port = "localhost", 8080
	}

	// assemble server config, flags > env > file > default
	var cfg server.Config

	dbConnStr := fileCfg.DB
	if envVal := os.Getenv(EnvDB); envVal != "" {
		dbConnStr = envVal
	}
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}
	if dbConnStr == "" {
		dbConnStr = "inmem"
	}

	dbCfg, err := server.ParseDBConnString(dbConnStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}
	cfg.DB = dbCfg

	tokSecStr := fileCfg.Secret
	if envVal := os.Getenv(EnvSecret); envVal != "" {
		tokSecStr = envVal
	}
	if pflag.Lookup("secret").Changed {
		tokSecStr = *flagSecret
	}

	var tokSecret []byte
	if tokSecStr != "" {
		tokSecret = []byte(tokSecStr)

		for len(tokSecret) < server.MinSecretSize {
			doubled := make([]byte, len(tokSecret)*2)
			copy(doubled, tokSecret)
			copy(doubled[len(tokSecret):], tokSecret)
			tokSecret = doubled
		}

		if len(tokSecret) > server.MaxSecretSize {
			fmt.Fprintf(os.Stderr, "Token secret is %d bytes, but it must be <= %d bytes\nDo -h for help.\n", len(tokSecret), server.MaxSecretSize)
			os.Exit(1)
		}
	} else {
		tokSecret = make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(tokSecret); err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err.Error())
			os.Exit(1)
		}

		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	}
	cfg.TokenSecret = tokSecret
	cfg = cfg.FillDefaults()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err.Error())
		os.Exit(1)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	defer srv.Close()
	log.Printf("DEBUG Server initialized")

	// immediately create the admin user so there is someone to log in as.
	_, err = srv.Backend().CreateUser(context.Background(), "admin", "password", dao.Admin)
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("ERROR could not create initial admin user: %v", err)
		os.Exit(2)
	}
	if err == nil {
		log.Printf("INFO  Added initial admin user with password 'password'...")
	}

	log.Printf("INFO  Starting phrasegen server %s...", version.ServerCurrent)
	if err := srv.ServeForever(addr, port); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}
