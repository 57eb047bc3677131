package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"owatch_service/internal/contract"

	"github.com/spf13/pflag"
)

func main() {
	root := pflag.StringP("root", "r", ".", "project root containing contracts/, test/ and scripts/")
	asJSON := pflag.Bool("json", false, "print the report as JSON")
	pflag.Parse()

	rep, err := contract.Validate(*root)
	if err != nil {
		if errors.Is(err, contract.ErrContractNotFound) {
			fmt.Fprintf(os.Stderr, "Contract file not found: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "contract validation error: %v\n", err)
		}
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
	} else {
		rep.Write(os.Stdout)
	}

	if !rep.OK() {
		os.Exit(1)
	}
}
