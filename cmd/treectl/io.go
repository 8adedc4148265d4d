package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/treedecide/internal/tree"
)

// readInput reads path, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadConfiguration returns the configuration of the envelope at path, or an empty one
// when path is empty.
func loadConfiguration(path string) (tree.Configuration, error) {
	if path == "" {
		return tree.Configuration{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return tree.Configuration{}, fmt.Errorf("read %s: %w", path, err)
	}
	env, err := tree.Parse(data)
	if err != nil {
		return tree.Configuration{}, err
	}
	return env.Configuration, nil
}
