package importer

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ignite/channel-attribution/internal/domain"
)

// Document is a channel directory as exported by the dashboard or written
// by hand.
type Document struct {
	Channels []ChannelEntry `yaml:"channels" json:"channels"`
}

// ChannelEntry is one parent channel and its rules.
type ChannelEntry struct {
	ID          string             `yaml:"id" json:"id"`
	Name        string             `yaml:"name" json:"name"`
	Kind        domain.ChannelKind `yaml:"kind" json:"kind"`
	SubChannels []SubChannelEntry  `yaml:"sub_channels" json:"sub_channels"`
}

// SubChannelEntry is one rule in a document.
type SubChannelEntry struct {
	Name         string              `yaml:"name" json:"name"`
	UTMSource    string              `yaml:"utm_source" json:"utm_source"`
	UTMMedium    string              `yaml:"utm_medium" json:"utm_medium"`
	MatchingType domain.MatchingType `yaml:"matching_type" json:"matching_type"`
}

// ParseDocument decodes data as JSON when location ends in .json and as
// YAML otherwise.
func ParseDocument(location string, data []byte) (*Document, error) {
	var doc Document
	if strings.EqualFold(path.Ext(location), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", location, err)
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", location, err)
	}

	for i, c := range doc.Channels {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("decode %s: channel %d has no id", location, i)
		}
		if c.Name == "" {
			doc.Channels[i].Name = c.ID
		}
		if c.Kind == "" {
			doc.Channels[i].Kind = domain.ChannelOther
		}
	}
	return &doc, nil
}

// SubChannels flattens the document into directory rows. IDs are derived
// from the channel and position since documents carry none.
func (d *Document) SubChannels() []domain.SubChannel {
	var out []domain.SubChannel
	for _, ch := range d.Channels {
		for i, sc := range ch.SubChannels {
			out = append(out, domain.SubChannel{
				ID:              fmt.Sprintf("%s#%d", ch.ID, i+1),
				ParentChannelID: ch.ID,
				Name:            sc.Name,
				UTMSource:       sc.UTMSource,
				UTMMedium:       sc.UTMMedium,
				MatchingType:    sc.MatchingType,
			})
		}
	}
	return out
}
