package mockapi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clientflow/clientflow/internal/clients"
)

// Seed is the initial state of a mock server.
type Seed struct {
	Clients     []clients.Client   `yaml:"clients"`
	PostalCodes map[string]Address `yaml:"postal_codes"`
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: seed path comes from the command line
	if err != nil {
		return Seed{}, fmt.Errorf("reading seed: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parsing seed %s: %w", path, err)
	}
	return seed, nil
}

// DefaultSeed is used when no seed file is given.
func DefaultSeed() Seed {
	return Seed{
		Clients: []clients.Client{
			{
				ID:      "1",
				Name:    "Ana Souza",
				Email:   "ana@example.com",
				Phone:   "(11) 98765-4321",
				Address: "Avenida Paulista",
				City:    "São Paulo",
				State:   "SP",
				Zip:     "01310930",
				Country: "br",
			},
		},
		PostalCodes: map[string]Address{
			"01310930": {Street: "Avenida Paulista", Neighborhood: "Bela Vista", City: "São Paulo", State: "SP"},
			"20040020": {Street: "Avenida Rio Branco", Neighborhood: "Centro", City: "Rio de Janeiro", State: "RJ"},
			"70040010": {Street: "Esplanada dos Ministérios", Neighborhood: "Zona Cívico-Administrativa", City: "Brasília", State: "DF"},
		},
	}
}
