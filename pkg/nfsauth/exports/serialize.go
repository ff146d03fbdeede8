package exports

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// yamlDir is the debug-dump shape used only by Serialize/Deserialize —
// never the on-disk exports-file format (spec §6 fixes that format
// separately and bit-exactly; see Parse). It exists so tests can assert
// the round-trip law in spec.md §8 property 6 without re-deriving the
// original line grammar.
type yamlDir struct {
	Path       string            `yaml:"path"`
	Netgroups  map[string]string `yaml:"netgroups,omitempty"`
	Hosts      map[string]string `yaml:"hosts,omitempty"`
	SubdirAuth []string          `yaml:"subdir_auth,omitempty"`
	VolumeID   string            `yaml:"volume_id,omitempty"`
}

// Serialize renders f as YAML, one document entry per directory, each
// option set flattened to its comma-separated string form.
func (f *File) Serialize() ([]byte, error) {
	dirs := make([]yamlDir, 0, len(f.byPath))
	for _, d := range f.byPath {
		yd := yamlDir{Path: d.Path}
		if len(d.Netgroups) > 0 {
			yd.Netgroups = make(map[string]string, len(d.Netgroups))
			for name, item := range d.Netgroups {
				yd.Netgroups[name] = item.Options.Serialize()
			}
		}
		if len(d.Hosts) > 0 {
			yd.Hosts = make(map[string]string, len(d.Hosts))
			for name, item := range d.Hosts {
				yd.Hosts[name] = item.Options.Serialize()
			}
		}
		for _, spec := range d.SubdirAuth {
			yd.SubdirAuth = append(yd.SubdirAuth, fmt.Sprintf("%s/%d", spec.Address, spec.PrefixLen))
		}
		if d.VolumeID != (uuid.UUID{}) {
			yd.VolumeID = d.VolumeID.String()
		}
		dirs = append(dirs, yd)
	}

	return yaml.Marshal(dirs)
}

// Deserialize parses data produced by Serialize back into a File. This
// is the inverse half of spec.md §8 property 6
// ("Parse(Serialize(exports-model)) = exports-model modulo option
// ordering and whitespace") — modulo is exact here because Options
// carries no ordering information to lose in the first place.
func Deserialize(filename string, data []byte) (*File, error) {
	var dirs []yamlDir
	if err := yaml.Unmarshal(data, &dirs); err != nil {
		return nil, fmt.Errorf("unmarshal exports debug dump: %w", err)
	}

	ef := newFile(filename)
	for _, yd := range dirs {
		d := newDir(yd.Path)
		for name, opts := range yd.Netgroups {
			d.Netgroups[name] = &Item{Name: name, Options: ParseOptions(opts)}
		}
		for name, opts := range yd.Hosts {
			d.Hosts[name] = &Item{Name: name, Options: ParseOptions(opts)}
		}
		for _, s := range yd.SubdirAuth {
			spec, err := ParseHostAuthSpec(s)
			if err != nil {
				return nil, fmt.Errorf("subdir auth spec %q: %w", s, err)
			}
			d.SubdirAuth = append(d.SubdirAuth, spec)
		}
		if yd.VolumeID != "" {
			id, err := uuid.Parse(yd.VolumeID)
			if err != nil {
				return nil, fmt.Errorf("volume id %q: %w", yd.VolumeID, err)
			}
			d.VolumeID = id
		}
		ef.Insert(d)
	}

	return ef, nil
}
