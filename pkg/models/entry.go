package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// A named value to be written to the config store
type Entry struct {
	Name  string     `json:"name,omitempty"`
	Value EntryValue `json:"value,omitempty"`
}

type EntryValue struct {
	String   string `json:"string,omitempty"`
	Provider string `json:"-"`
	ID       string `json:"-"`
}

func (v *EntryValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = EntryValue{Provider: "string", ID: node.Value}
		return nil
	case yaml.MappingNode:
		var o map[string]string
		if err := node.Decode(&o); err != nil {
			return err
		}
		if len(o) > 1 {
			return fmt.Errorf("only one value provider can be specified")
		}
		for provider, id := range o {
			*v = EntryValue{
				Provider: provider,
				ID:       id,
			}
			return nil
		}
		return nil
	}
	return fmt.Errorf("invalid node kind: %v", node.Kind)
}

func (v *EntryValue) UnmarshalJSON(data []byte) error {
	type alias EntryValue
	var o alias
	err := json.Unmarshal(data, &o)
	if err != nil {
		err := json.Unmarshal(data, &o.String)
		if err != nil {
			return err
		}
	}
	*v = EntryValue(o)
	return nil
}

func (e Entry) Resolve(value string) Entry {
	e.Value.String = value
	e.Value.Provider = ""
	e.Value.ID = ""
	return e
}
