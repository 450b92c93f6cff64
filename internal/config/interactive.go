package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var (
	inputFile = os.Stdin
)

func guidedInitialization(config *Config) error {
	scanner := bufio.NewScanner(inputFile)

	input, err := ask(scanner, fmt.Sprintf("Enter source tree path [default: %s]", config.SourceDir))
	if err != nil {
		return err
	}
	if input != "" {
		config.SourceDir = input
	}

	input, err = ask(scanner, fmt.Sprintf("Enter board mount path [default: %s]", config.TargetDir))
	if err != nil {
		return err
	}
	if input != "" {
		config.TargetDir = input
	}

	return nil
}

func ask(scanner *bufio.Scanner, prompt string) (string, error) {
	fmt.Printf("%s: ", prompt)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("could not read user input: %w", err)
		}
		return "", nil // EOF or closed input
	}
	return strings.TrimSpace(scanner.Text()), nil
}
