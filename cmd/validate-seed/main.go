package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/helpdesk-webhooks/seed"
	"github.com/marcelsud/helpdesk-webhooks/webhook"
)

/* validate-seed - Standalone CLI tool to validate a seed file
 * Usage: go run ./cmd/validate-seed [seed.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	seedFile := "seed.yaml"
	if len(os.Args) > 1 {
		seedFile = os.Args[1]
	}

	fmt.Printf("Validating seed file: %s\n", seedFile)
	fmt.Println(strings.Repeat("-", 50))

	loader := seed.NewLoader()
	if err := loader.Load(seedFile); err != nil {
		fmt.Fprintf(os.Stderr, "VALIDATION FAILED\n\nError: %v\n", err)
		os.Exit(1)
	}

	catalog := webhook.NewCatalog()
	if err := loader.RegisterEvents(catalog); err != nil {
		fmt.Fprintf(os.Stderr, "VALIDATION FAILED\n\nError: %v\n", err)
		os.Exit(1)
	}
	events := catalog.Freeze()

	subs := loader.Subscriptions()
	fmt.Printf("VALIDATION PASSED\n\n")
	if extra := loader.Events(); len(extra) > 0 {
		fmt.Printf("Extra events: %s\n", strings.Join(extra, ", "))
	}
	fmt.Printf("Loaded %d subscription(s):\n", len(subs))

	unknown := 0
	for i, s := range subs {
		names, _ := webhook.ParseEvents(s.Events)
		accepted, rejected := events.Filter(names)
		unknown += len(rejected)

		fmt.Printf("\n%d. URL: %s\n", i+1, s.URL)
		fmt.Printf("   Branch:    %s\n", webhook.BranchFor(s.URL))
		fmt.Printf("   Events:    %s\n", strings.Join(accepted, ", "))
		if len(rejected) > 0 {
			fmt.Printf("   Ignored:   %s (unknown)\n", strings.Join(rejected, ", "))
		}
		if len(s.Mailboxes) > 0 {
			fmt.Printf("   Mailboxes: %v\n", s.Mailboxes)
		}
	}

	if unknown > 0 {
		fmt.Printf("\n%d unknown event name(s) will be dropped when seeding\n", unknown)
	}
	os.Exit(0)
}
