package main

import (
	"os"

	"github.com/bnema/weibo-autopilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
