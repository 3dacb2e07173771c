package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kraciasty/titlecss/internal/logging"
)

var version = "dev"

const usage = "usage: titlecss [serve|sanitize|adduser|set-css|render|version] [flags]"

func main() {
	logging.Setup(os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "sanitize":
		err = runSanitize(os.Stdin, os.Stdout, os.Stderr)
	case "adduser":
		err = runAddUser(os.Args[2:], os.Stdout)
	case "set-css":
		err = runSetCSS(os.Args[2:], os.Stdout)
	case "render":
		err = runRender(os.Args[2:], os.Stdout)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
