package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"lasertag/server"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "protocol.schema.json", "path to write the JSON schema")
	flag.Parse()

	if err := run(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(outPath string) error {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(server.WireProtocol))
	schema.Title = "Laser Tag Wire Protocol"
	schema.Description = "Every message exchanged over a match websocket connection"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create schema directory: %w", err)
		}
	}

	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	return nil
}
