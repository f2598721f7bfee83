// Package model contains the domain types shared across ports and adapters.
package model

import (
	"encoding/json"
	"fmt"
)

// AccessorySpec is the service's description of one registered camera.
// The typed fields cover what the client navigates by; Raw retains the
// complete server object so a metadata refresh never drops fields the
// client does not model.
type AccessorySpec struct {
	AccessoryID string
	NodeID      string
	Name        string
	Raw         map[string]json.RawMessage
}

// UnmarshalJSON decodes the server object, extracting the navigation
// fields while keeping every field in Raw.
func (s *AccessorySpec) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	spec := AccessorySpec{Raw: raw}
	for key, dst := range map[string]*string{
		"accessoryId": &spec.AccessoryID,
		"nodeId":      &spec.NodeID,
		"name":        &spec.Name,
	} {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("accessory field %q: %w", key, err)
			}
		}
	}

	*s = spec
	return nil
}

// ActivityEvent is one recorded activity as returned by the service.
// Events are opaque to the client and passed through undecoded, in the
// server's relevance/time order.
type ActivityEvent = json.RawMessage
