package main

import (
	"fmt"
	"os"

	"github.com/tillberg/autorestart"

	"github.com/soyeahso/zoebot/internal/cli"
)

func main() {
	go autorestart.RestartOnChange()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "zoebot:", err)
		os.Exit(1)
	}
}
