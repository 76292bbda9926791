package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/phillip-england/turntime/internal/turntimecli"
)

func main() {
	if err := turntimecli.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, turntimecli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr)
			turntimecli.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
