package mcpserver

import (
	"encoding/json"
	"strings"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	repositoryURL  = "https://github.com/panbanda/cdensity"
	imageName      = "ghcr.io/panbanda/cdensity"
)

// Manifest is the registry description of the server (server.json).
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	WebsiteURL  string      `json:"websiteUrl,omitempty"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the source code.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package is one way to install and start the server.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []Environment `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

// Argument is a command-line argument passed to the package.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Environment documents an environment variable the server reads.
type Environment struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
	Format      string `json:"format,omitempty"`
}

// Transport is the protocol transport of a package.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest renders the server manifest for release version.
// Development builds are published as 0.0.0.
func GenerateManifest(version string) ([]byte, error) {
	version = strings.TrimPrefix(version, "v")
	if version == "" || version == "dev" {
		version = "0.0.0"
	}

	m := Manifest{
		Schema:      manifestSchema,
		Name:        "io.github.panbanda/cdensity",
		Title:       "cdensity",
		Description: "Classifies PHP comments, finds declarations missing docblocks and scores comment density",
		Version:     version,
		WebsiteURL:  repositoryURL,
		Repository:  &Repository{URL: repositoryURL, Source: "github"},
		Packages: []Package{{
			RegistryType:     "oci",
			Identifier:       imageName + ":" + version,
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []Environment{{
				Name:        "CDENSITY_CONFIG",
				Description: "Path to a cdensity.toml, .yaml or .json configuration file",
				Format:      "filepath",
			}},
			Transport: Transport{Type: "stdio"},
		}},
	}
	return json.MarshalIndent(m, "", "  ")
}
