// Package cli implements the one-shot gophfiles command line:
//
//	client [-a url] [-c config.json] list
//	client get <filename>
//	client create <filename> <path|->
//	client update <filename> <path|->
//	client delete <filename>
//
// Passwords are prompted on the terminal without echo, or taken from the
// GOPHFILES_PASSWORD environment variable when set.
package cli
