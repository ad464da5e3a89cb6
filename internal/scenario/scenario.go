// Package scenario loads world definitions: the goods catalogue, the
// consumption needs, and the starting locations with their populations.
// A scenario is validated once at load; everything downstream assumes a
// well-formed world. See design doc Section 6.
package scenario

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/ashvale/tradewinds/internal/consume"
	"github.com/ashvale/tradewinds/internal/goods"
)

// Units is a decimal quantity in a scenario file ("2.5" means two and a
// half units), stored internally in micro-units.
type Units goods.Amount

func (u *Units) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err != nil {
		return err
	}
	if math.IsNaN(f) || math.Abs(f) > float64(math.MaxInt64/goods.Unit) {
		return fmt.Errorf("quantity %v out of range", value.Value)
	}
	*u = Units(math.Round(f * float64(goods.Unit)))
	return nil
}

func (u Units) MarshalYAML() (any, error) {
	return float64(u) / float64(goods.Unit), nil
}

// Amount converts to the engine's fixed-point representation.
func (u Units) Amount() goods.Amount { return goods.Amount(u) }

// GoodDef declares one good of the catalogue.
type GoodDef struct {
	Name      string `yaml:"name"`
	Bulk      Units  `yaml:"bulk"`
	Weight    Units  `yaml:"weight"`
	DecayRate Units  `yaml:"decay_rate"`
	Transport string `yaml:"transport"` // none, land or sea
}

// NeedGood is one substitutable good inside a need.
type NeedGood struct {
	Name     string `yaml:"name"`
	Crossing Units  `yaml:"crossing"`
	Floor    Units  `yaml:"floor"`
}

// BasketItem is a named quantity, used for capital requirements and
// starting stock.
type BasketItem struct {
	Name   string `yaml:"name"`
	Amount Units  `yaml:"amount"`
}

// NeedDef declares one consumption need in scenario terms.
type NeedDef struct {
	Name    string       `yaml:"name"`
	Goods   []NeedGood   `yaml:"goods"`
	Capital []BasketItem `yaml:"capital"`
	Offset  Units        `yaml:"offset"`
	Target  Units        `yaml:"target"`
}

// ProducerDef is a per-member output of a population.
type ProducerDef struct {
	Good   string `yaml:"good"`
	Output Units  `yaml:"output"` // per member per turn at richness 1.0
}

// PopulationDef declares one group of identical actors at a location.
type PopulationDef struct {
	Name     string        `yaml:"name"`
	Size     int           `yaml:"size"`
	Money    Units         `yaml:"money"` // starting tender per group
	Need     string        `yaml:"need"`
	Produces []ProducerDef `yaml:"produces"`
}

// LocationDef declares one settlement and its starting state.
type LocationDef struct {
	Name        string          `yaml:"name"`
	Coastal     bool            `yaml:"coastal"`
	Money       Units           `yaml:"money"` // warehouse starting tender
	Stock       []BasketItem    `yaml:"stock"`
	Populations []PopulationDef `yaml:"populations"`
}

// Scenario is a complete world definition.
type Scenario struct {
	Name        string        `yaml:"name"`
	Seed        int64         `yaml:"seed"`
	LegalTender string        `yaml:"legal_tender"`
	CreditLimit Units         `yaml:"credit_limit"`
	Goods       []GoodDef     `yaml:"goods"`
	Needs       []NeedDef     `yaml:"needs"`
	Locations   []LocationDef `yaml:"locations"`
}

// Registry builds the goods catalogue from the scenario's definitions.
func (s *Scenario) Registry() (*goods.Registry, error) {
	reg := goods.NewRegistry()
	for _, gd := range s.Goods {
		transport, err := parseTransport(gd.Transport)
		if err != nil {
			return nil, fmt.Errorf("good %q: %w", gd.Name, err)
		}
		g := goods.Good{
			Name:      gd.Name,
			Bulk:      gd.Bulk.Amount(),
			Weight:    gd.Weight.Amount(),
			DecayRate: gd.DecayRate.Amount(),
			Transport: transport,
		}
		if err := reg.Register(g); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// BuildNeeds converts the scenario's need definitions into validated
// solver configurations, keyed by name.
func (s *Scenario) BuildNeeds(reg *goods.Registry) (map[string]*consume.Substitutes, error) {
	needs := make(map[string]*consume.Substitutes, len(s.Needs))
	for _, nd := range s.Needs {
		if _, dup := needs[nd.Name]; dup {
			return nil, fmt.Errorf("need %q defined twice", nd.Name)
		}
		sub := &consume.Substitutes{
			Name:            nd.Name,
			Offset:          nd.Offset.Amount(),
			MinAmountSquare: nd.Target.Amount(),
		}
		for _, ng := range nd.Goods {
			sub.Consumed = append(sub.Consumed, consume.ConsumedGood{
				Name:      ng.Name,
				Crossing:  ng.Crossing.Amount(),
				MinAmount: ng.Floor.Amount(),
			})
		}
		for _, item := range nd.Capital {
			sub.Capital = append(sub.Capital, goods.Quantity{
				Name:   item.Name,
				Amount: item.Amount.Amount(),
			})
		}
		if err := sub.Validate(reg); err != nil {
			return nil, err
		}
		needs[nd.Name] = sub
	}
	return needs, nil
}

func parseTransport(s string) (goods.TransportType, error) {
	switch s {
	case "", "none":
		return goods.TransportNone, nil
	case "land":
		return goods.TransportLand, nil
	case "sea":
		return goods.TransportSea, nil
	}
	return 0, fmt.Errorf("unknown transport %q", s)
}
