// Package main is the entry point for plugtest.
package main

import (
	"github.com/plugtest/plugtest/cmd"
	"github.com/plugtest/plugtest/config"
	"github.com/plugtest/plugtest/internal/cache"
	"github.com/plugtest/plugtest/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	// expired http_tls responses are dropped in the background
	go cache.CollectGarbage()

	cmd.Execute()
}
