// Package main implements the node of the course marketplace.
//
// Unix example:
//
//	# Start a node with its configuration in ~/.coursemarket
//	coursemarket start --network ganache
//
//	# Purchase a course with the node identity
//	coursemarket course purchase --id intro --proof 0x01...01 --value 10
//
//	# Purchase a course with another identity
//	coursemarket key new --save buyer.key
//	coursemarket course purchase --id intro --proof 0x01...01 --key buyer.key
//
//	# Serve the read endpoints and the metrics
//	coursemarket proxy start --clientaddr 127.0.0.1:8080
//	coursemarket course proxy
//	coursemarket proxy prom
package main

import (
	"fmt"
	"io"
	"os"

	"go.dedis.ch/coursemarket/cli/node"
	course "go.dedis.ch/coursemarket/contracts/course/controller"
	ordering "go.dedis.ch/coursemarket/core/ordering/serial/controller"
	db "go.dedis.ch/coursemarket/core/store/kv/controller"
	signed "go.dedis.ch/coursemarket/core/txn/signed/controller"
	key "go.dedis.ch/coursemarket/crypto/ed25519/command"
	proxy "go.dedis.ch/coursemarket/proxy/http/controller"
)

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

type config struct {
	Channel chan os.Signal
	Writer  io.Writer
}

func run(args []string) error {
	return runWithCfg(args, config{})
}

func runWithCfg(args []string, cfg config) error {
	builder := node.NewBuilderWithCfg(
		cfg.Channel,
		cfg.Writer,
		db.NewController(),
		ordering.NewMinimal(),
		signed.NewManagerController(),
		course.NewController(),
		proxy.NewController(),
		key.NewInitializer(),
	)

	app := builder.Build()

	return app.Run(args)
}
