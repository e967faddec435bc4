// Package main is the entry point for the chartbridge API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/chartbridge/pkg/api"
	"github.com/james-see/chartbridge/pkg/logging"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	log := logging.New(*verbose)
	defer func() { _ = log.Sync() }()

	fmt.Printf("Starting chartbridge API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port, log); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
