package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/exports"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/lineparser"
)

// ApplyVolumeExportDirs augments ef with the per-volume
// nfs3.<vol>.export-dir entries (SUPPLEMENTED FEATURE #5): a
// comma-separated list of abspath(host|cidr|...) tokens, one per
// subdirectory export, each optionally restricted to a pipe-separated
// host/CIDR list (spec §6).
//
// Reuses the same tokenizer the flat exports file uses
// (lineparser.Entry) rather than re-splitting on commas by hand — the
// character class it matches on already excludes ',', so a
// comma-joined token list is as tokenizable as a whitespace-joined
// one. Reuses exports.ParseHostAuthSpec for each "|"-joined host spec,
// exactly as the flat file's hostspec-scoped subdirectory restriction
// list does (SUPPLEMENTED FEATURE #1).
func ApplyVolumeExportDirs(ef *exports.File, volumes map[string]VolumeConfig) error {
	for volName, vol := range volumes {
		if vol.ExportDir == "" {
			continue
		}
		if err := applyOneVolume(ef, volName, vol); err != nil {
			return fmt.Errorf("nfs3.%s.export_dir: %w", volName, err)
		}
	}
	return nil
}

func applyOneVolume(ef *exports.File, volName string, vol VolumeConfig) error {
	var volUUID uuid.UUID
	if vol.VolumeID != "" {
		id, err := uuid.Parse(vol.VolumeID)
		if err != nil {
			return fmt.Errorf("volume_id: %w", err)
		}
		volUUID = id
	}

	c := lineparser.Entry.Cursor(vol.ExportDir)
	for {
		tok, ok := c.Next()
		if !ok {
			break
		}

		path, specStr, hasSpec := strings.Cut(tok, "(")
		specStr = strings.TrimSuffix(specStr, ")")
		if path == "" {
			return fmt.Errorf("empty export-dir path in %q", tok)
		}

		dir, existing := ef.Lookup(path)
		if !existing {
			dir = &exports.Dir{
				Path:      path,
				Netgroups: make(map[string]*exports.Item),
				Hosts:     make(map[string]*exports.Item),
			}
		}
		if volUUID != (uuid.UUID{}) {
			dir.VolumeID = volUUID
		}

		if hasSpec && specStr != "" {
			for _, specTok := range strings.Split(specStr, "|") {
				spec, err := exports.ParseHostAuthSpec(specTok)
				if err != nil {
					return fmt.Errorf("export-dir hostspec %q: %w", specTok, err)
				}
				dir.SubdirAuth = append(dir.SubdirAuth, spec)
			}
		}

		ef.Insert(dir)
	}

	return nil
}
