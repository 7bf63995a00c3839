package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	_ "github.com/dropDatabas3/incidentauth/internal/store/memory"
	_ "github.com/dropDatabas3/incidentauth/internal/store/pg"
)

func main() {
	_ = godotenv.Load()

	root := newRootCmd(openFromConfig)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
