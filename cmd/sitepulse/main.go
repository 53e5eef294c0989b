package main

import (
	"log"

	"github.com/MrSnakeDoc/sitepulse/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("❌ sitepulse: %v", err)
	}
}
