// Package cli implements gbcli, the GophBlog command-line client.
//
// Execute builds a cobra command tree. Every command loads the configuration,
// opens the local database and creates one session.Manager that the account,
// profile and article services share. Without a subcommand gbcli starts an
// interactive shell: the stored session is restored in the background while
// the prompt shows "(loading)", and commands that depend on the login wait
// for it to settle.
//
// One-shot subcommands (login, logout, whoami, register, articles, article,
// publish) restore the session synchronously before running.
package cli
