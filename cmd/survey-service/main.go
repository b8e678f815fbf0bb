package main

import (
	"fmt"
	"os"

	"github.com/mintsurvey/survey-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "survey-service:", err)
		os.Exit(1)
	}
}
