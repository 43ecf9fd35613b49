package store

// InstanceState is the persisted form of a Store. Hosts encode it verbatim.
type InstanceState struct {
	DeveloperToolsConfigurations []DeveloperToolConfigurationState `toml:"developerToolsConfigurations" json:"developerToolsConfigurations"`
	LastSelectedContentNodeID    *string                           `toml:"lastSelectedContentNodeId,omitempty" json:"lastSelectedContentNodeId,omitempty"`
	ExpandedGroupNodeIDs         []string                          `toml:"expandedGroupNodeIds,omitempty" json:"expandedGroupNodeIds,omitempty"`
}

// DeveloperToolConfigurationState is one persisted tool configuration. All
// fields are required; a block missing any of them is skipped on load.
type DeveloperToolConfigurationState struct {
	DeveloperToolID *string         `toml:"developerToolId" json:"developerToolId"`
	ID              *string         `toml:"id" json:"id"`
	Name            *string         `toml:"name" json:"name"`
	Properties      []PropertyState `toml:"properties" json:"properties"`
}

// PropertyState is one persisted property. Value has the form
// "<typeName>|<serializedValue>"; Type is the save policy name.
type PropertyState struct {
	Key   string `toml:"key" json:"key"`
	Value string `toml:"value" json:"value"`
	Type  string `toml:"type" json:"type"`
}

// Empty reports whether the state carries nothing worth writing.
func (s *InstanceState) Empty() bool {
	return s == nil ||
		(len(s.DeveloperToolsConfigurations) == 0 && s.LastSelectedContentNodeID == nil && len(s.ExpandedGroupNodeIDs) == 0)
}

func ptr[T any](v T) *T {
	return &v
}
