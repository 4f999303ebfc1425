package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gophfiles/internal/flagx"
)

var serverFlags = []string{
	"-a", "-f", "-m", "-l", "-o", "-d", "-k", "-x", "-t",
	"-u", "-p", "-b", "-g", "-e", "-r",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-f string     data directory
//	-m string     metadata backend: json, bolt, postgres
//	-l string     request log backend: json, postgres
//	-o string     content backend: local, s3
//	-d string     PostgreSQL DSN
//	-k int        bcrypt cost
//	-x int        max request body, bytes
//	-t duration   graceful shutdown timeout (e.g. "10s")
//	-u string     S3 root user
//	-p string     S3 root password
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-r string     S3 key prefix
//
// os.Args is filtered with flagx.FilterArgs first so -c/-config and test
// runner flags do not reach the flag set.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DataDir, "f", config.DataDir, "data directory")
	fs.StringVar(&config.MetadataBackend, "m", config.MetadataBackend, "metadata backend (json, bolt, postgres)")
	fs.StringVar(&config.RequestLogBackend, "l", config.RequestLogBackend, "request log backend (json, postgres)")
	fs.StringVar(&config.ContentBackend, "o", config.ContentBackend, "content backend (local, s3)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.Int64Var(&config.MaxBodyBytes, "x", config.MaxBodyBytes, "max request body size in bytes")
	fs.DurationVar(&config.ShutdownTimeout, "t", config.ShutdownTimeout, "graceful shutdown timeout")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Prefix, "r", config.S3Prefix, "S3 key prefix")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
