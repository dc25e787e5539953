package content

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// VendorItem is one line of a vendor's inventory. In YAML it may be written
// as a bare item id or as a mapping with stocking details; both decode into
// the same struct, with a bare id meaning unlimited stock.
type VendorItem struct {
	Item         uint32 `yaml:"item"`
	MaxCount     uint32 `yaml:"max_count"`
	Restock      uint32 `yaml:"restock"`
	ExtendedCost uint32 `yaml:"extended_cost"`
}

// UnmarshalYAML accepts either form of a vendor entry.
//
// Postcondition: A scalar node leaves every field but Item zero.
func (v *VendorItem) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var item uint32
		if err := value.Decode(&item); err != nil {
			return fmt.Errorf("vendor item: %w", err)
		}
		*v = VendorItem{Item: item}
		return nil
	}
	type plain VendorItem
	var p plain
	if err := value.Decode(&p); err != nil {
		return fmt.Errorf("vendor item: %w", err)
	}
	*v = VendorItem(p)
	return nil
}

// Validate checks the vendor line's invariants.
func (v *VendorItem) Validate() error {
	if v.Item == 0 {
		return fmt.Errorf("vendor item: item id must not be zero")
	}
	if v.MaxCount > 0 && v.Restock == 0 {
		return fmt.Errorf("vendor item %d: limited stock requires a restock delay", v.Item)
	}
	if v.MaxCount == 0 && v.Restock > 0 {
		return fmt.Errorf("vendor item %d: restock delay without a stock limit", v.Item)
	}
	return nil
}

// TrainerSpell is one teachable entry of a class or profession trainer.
type TrainerSpell struct {
	Spell    uint32 `yaml:"spell"`
	Cost     uint32 `yaml:"cost"`
	ReqLevel uint32 `yaml:"req_level"`
}

// Validate checks the trainer line's invariants.
func (t *TrainerSpell) Validate() error {
	if t.Spell == 0 {
		return fmt.Errorf("trainer spell: spell id must not be zero")
	}
	return nil
}
