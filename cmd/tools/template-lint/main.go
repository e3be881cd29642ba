// cmd/tools/template-lint/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"streamnotify/internal/email"
	"streamnotify/internal/models"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "configs/templates.json", "Path to template registry file")

	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	showPath := showCmd.String("path", "", "Optional registry file layered over the defaults")
	showType := showCmd.String("type", "", "Notification type (e.g. COMMENT_TO_PERSONAL_POST)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		data, err := os.ReadFile(*validatePath)
		if err != nil {
			fmt.Printf("Error reading registry: %v\n", err)
			os.Exit(1)
		}
		if err := email.ValidateRegistryBytes(data); err != nil {
			fmt.Printf("Registry is invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry is valid: %s\n", *validatePath)

	case "show":
		showCmd.Parse(os.Args[2:])
		if *showType == "" {
			fmt.Println("Error: type is required for show.")
			showCmd.Usage()
			os.Exit(1)
		}
		registry := email.DefaultRegistry()
		if *showPath != "" {
			var err error
			registry, err = email.LoadRegistry(*showPath)
			if err != nil {
				fmt.Printf("Error loading registry: %v\n", err)
				os.Exit(1)
			}
		}
		tmpl, err := registry.ForNotification(models.NotificationType(*showType))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Subject:   %s\n", tmpl.Subject)
		fmt.Printf("Text body: %s\n", tmpl.TextBody)
		fmt.Printf("HTML body: %s\n", tmpl.HTMLBody)

	default:
		help()
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: template-lint <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  validate -path <file>          Validate a template registry file")
	fmt.Println("  show -type <t> [-path <file>]  Print the effective template for a notification type")
}
