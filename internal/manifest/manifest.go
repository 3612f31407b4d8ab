// Package manifest persists the whole FreyaFS mount state — path
// structure, stat metadata, and macroblock CID lists — to the
// encrypted `.freyafs` file, ported from
// original_source/utils/persist.py.
package manifest

import (
	"encoding/json"

	"github.com/freyafs/freyafs/internal/metadata"
	"github.com/freyafs/freyafs/internal/structure"
)

// Manifest is the top-level JSON shape spec.md §6 defines: structure,
// per-path_id stat metadata, and per-path_id macroblock CID lists.
type Manifest struct {
	Structure *structure.PathStructure
	Metadata  *metadata.Metadata
	Cids      map[string][]string
}

type onDisk struct {
	Structure interface{}        `json:"structure"`
	Metadata  interface{}        `json:"metadata"`
	Cids      map[string][]string `json:"cids"`
}

// Marshal renders m as the manifest JSON document.
func Marshal(m *Manifest) ([]byte, error) {
	return json.Marshal(onDisk{
		Structure: m.Structure.ToDict(),
		Metadata:  m.Metadata.ToDict(),
		Cids:      m.Cids,
	})
}

// Unmarshal parses the manifest JSON document produced by Marshal.
func Unmarshal(data []byte) (*Manifest, error) {
	var raw struct {
		Structure map[string]interface{}        `json:"structure"`
		Metadata  map[string]interface{}        `json:"metadata"`
		Cids      map[string][]string `json:"cids"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	st, err := structure.FromDict(raw.Structure)
	if err != nil {
		return nil, err
	}

	md := metadata.FromDict(raw.Metadata)

	cids := raw.Cids
	if cids == nil {
		cids = make(map[string][]string)
	}

	return &Manifest{Structure: st, Metadata: md, Cids: cids}, nil
}

// Empty returns a fresh, newly-initialized Manifest for a mount with
// no prior state.
func Empty() *Manifest {
	return &Manifest{
		Structure: structure.New(),
		Metadata:  metadata.New(),
		Cids:      make(map[string][]string),
	}
}
