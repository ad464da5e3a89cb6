package scenario

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultScenario []byte

// Load reads and validates a scenario file. Unknown fields are rejected:
// a typoed key in a world definition should fail loudly at startup, not
// silently fall back to a default.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Default returns the built-in two-settlement world.
func Default() (*Scenario, error) {
	s, err := parse(defaultScenario)
	if err != nil {
		return nil, fmt.Errorf("built-in scenario: %w", err)
	}
	return s, nil
}

func parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks cross-references: every name a definition mentions must
// resolve, and the monetary settings must be usable by a market.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(s.Goods) == 0 {
		return fmt.Errorf("scenario defines no goods")
	}
	if len(s.Locations) == 0 {
		return fmt.Errorf("scenario defines no locations")
	}
	if s.CreditLimit < 0 {
		return fmt.Errorf("credit limit %d is negative", s.CreditLimit)
	}

	reg, err := s.Registry()
	if err != nil {
		return err
	}
	if _, ok := reg.Get(s.LegalTender); !ok {
		return fmt.Errorf("legal tender %q is not in the goods catalogue", s.LegalTender)
	}

	needs, err := s.BuildNeeds(reg)
	if err != nil {
		return err
	}

	seenLoc := make(map[string]bool, len(s.Locations))
	for _, loc := range s.Locations {
		if loc.Name == "" {
			return fmt.Errorf("location without a name")
		}
		if seenLoc[loc.Name] {
			return fmt.Errorf("location %q defined twice", loc.Name)
		}
		seenLoc[loc.Name] = true

		if loc.Money < 0 {
			return fmt.Errorf("location %q: negative starting money", loc.Name)
		}
		for _, item := range loc.Stock {
			if _, ok := reg.Get(item.Name); !ok {
				return fmt.Errorf("location %q: stocked good %q not in catalogue", loc.Name, item.Name)
			}
			if item.Amount < 0 {
				return fmt.Errorf("location %q: negative stock of %q", loc.Name, item.Name)
			}
		}

		for _, pop := range loc.Populations {
			if pop.Name == "" {
				return fmt.Errorf("location %q: population without a name", loc.Name)
			}
			if pop.Size <= 0 {
				return fmt.Errorf("population %q at %q: size %d not positive", pop.Name, loc.Name, pop.Size)
			}
			if pop.Money < 0 {
				return fmt.Errorf("population %q at %q: negative starting money", pop.Name, loc.Name)
			}
			if pop.Need != "" {
				if _, ok := needs[pop.Need]; !ok {
					return fmt.Errorf("population %q at %q: unknown need %q", pop.Name, loc.Name, pop.Need)
				}
			}
			for _, pr := range pop.Produces {
				if _, ok := reg.Get(pr.Good); !ok {
					return fmt.Errorf("population %q at %q: produces unknown good %q", pop.Name, loc.Name, pr.Good)
				}
				if pr.Output <= 0 {
					return fmt.Errorf("population %q at %q: output of %q not positive", pop.Name, loc.Name, pr.Good)
				}
			}
		}
	}
	return nil
}
