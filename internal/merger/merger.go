package merger

import (
	"fmt"
	"log"

	"github.com/rm-hull/heat-metadata-collector/internal/models"
)

const DEFAULT_GROUP = "Heat::Ungrouped"

// Deployments in these groups are handed to os-apply-config style consumers;
// anything else belongs to a different hook and is left out of the list.
var mergeableGroups = map[string]bool{
	DEFAULT_GROUP:     true,
	"os-apply-config": true,
}

// orderedEntries behaves like an insertion-ordered map: setting an existing
// key replaces its value but keeps its original position.
type orderedEntries struct {
	entries []models.Entry
	index   map[string]int
}

func (o *orderedEntries) set(key string, value any) {
	if i, ok := o.index[key]; ok {
		o.entries[i].Value = value
		return
	}
	o.index[key] = len(o.entries)
	o.entries = append(o.entries, models.Entry{Key: key, Value: value})
}

// MergedListFromContent returns the collector's whole document as the first
// entry, followed by one (name, config) entry per mergeable deployment found
// under any of the deployment keys. A deployment whose name is already present
// (including the collector name) replaces that entry's value in place.
func MergedListFromContent(content any, deploymentKeys []string, collectorName string) ([]models.Entry, error) {
	merged := &orderedEntries{index: make(map[string]int)}
	merged.set(collectorName, content)

	doc, ok := content.(map[string]any)
	if !ok {
		return merged.entries, nil
	}

	for _, key := range deploymentKeys {
		value, found := doc[key]
		if !found {
			continue
		}

		deployments, ok := value.([]any)
		if !ok {
			log.Printf("WARNING: deployment-key %s was found but does not contain a list", key)
			continue
		}
		log.Printf("deployment found for %s", key)

		for _, d := range deployments {
			deployment, ok := d.(map[string]any)
			if !ok {
				log.Printf("WARNING: skipping non-object deployment under %s", key)
				continue
			}

			name, ok := deployment["name"].(string)
			if !ok {
				log.Printf("WARNING: no name found for a deployment under %s", key)
				continue
			}

			group := DEFAULT_GROUP
			if g, ok := deployment["group"].(string); ok {
				group = g
			}
			if !mergeableGroups[group] {
				continue
			}

			config, ok := deployment["config"]
			if !ok {
				return nil, fmt.Errorf("deployment %s under %s has no config", name, key)
			}
			merged.set(name, config)
		}
	}

	return merged.entries, nil
}
