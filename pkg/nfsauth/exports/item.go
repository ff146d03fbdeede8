package exports

// Item is one export-item record (spec §3): the netgroup name with its
// leading '@' stripped, or the host/CIDR/hostname literal, plus the
// options that apply when this item grants access. Unique within its
// parent ExportDir's Netgroups or Hosts map, keyed by Name.
type Item struct {
	Name    string
	Options Options
}
