package document

// DefaultLastModifiedBy is the sentinel written to _stats.lastModifiedBy
// so exports from different authors and machines stay byte-identical.
// Sixteen characters, the host application's id width.
const DefaultLastModifiedBy = "grimhollowbuild0"

// Options control how Normalize rewrites a document.
type Options struct {
	// Ownership is the access level kept on the single default entry
	// when an ownership map is present. 0 means no access.
	Ownership int

	// KeepProvenance preserves _stats.compendiumSource and
	// flags.core.sourceId. It is forced on for embedded items and
	// effects regardless of the top-level setting.
	KeepProvenance bool

	// LastModifiedBy overrides the sentinel actor id. Empty selects
	// DefaultLastModifiedBy.
	LastModifiedBy string
}

// Normalize rewrites d in place so that volatile, environment-specific
// state never reaches a pack or a source file:
//
//   - a present ownership map is reduced to one default entry
//   - provenance markers (compendium source, core sourceId flag) are
//     dropped unless KeepProvenance is set
//   - transient importSource/exportSource flag namespaces are dropped
//     unconditionally
//   - a present _stats.lastModifiedBy is pinned to the sentinel
//   - empty flag namespaces are pruned and flags is guaranteed to exist
//   - effects, then items, are normalized recursively with provenance
//     kept (their transient markers are still cleared)
//   - name, label, and system.description.value text is canonicalized
//
// The rules are independent, so Normalize is idempotent. Absent fields
// are skipped; malformed shapes are ignored, never an error.
func Normalize(d *Document, opts Options) {
	if d == nil {
		return
	}
	if opts.LastModifiedBy == "" {
		opts.LastModifiedBy = DefaultLastModifiedBy
	}

	if d.Ownership != nil {
		d.Ownership = map[string]int{"default": opts.Ownership}
	}

	if !opts.KeepProvenance {
		if d.Stats != nil {
			delete(d.Stats, "compendiumSource")
		}
		if core, ok := d.Flags["core"].(map[string]any); ok {
			delete(core, "sourceId")
		}
	}

	if d.Flags != nil {
		delete(d.Flags, "importSource")
		delete(d.Flags, "exportSource")
	}

	if d.Stats != nil {
		if _, ok := d.Stats["lastModifiedBy"]; ok {
			d.Stats["lastModifiedBy"] = opts.LastModifiedBy
		}
	}

	if d.Flags == nil {
		d.Flags = make(map[string]any)
	}
	for ns, v := range d.Flags {
		if sub, ok := v.(map[string]any); ok && len(sub) == 0 {
			delete(d.Flags, ns)
		}
	}

	nested := opts
	nested.KeepProvenance = true
	for _, e := range d.Effects {
		Normalize(e, nested)
	}
	for _, i := range d.Items {
		Normalize(i, nested)
	}

	if desc, ok := d.System["description"].(map[string]any); ok {
		if v, ok := desc["value"].(string); ok {
			desc["value"] = CanonicalText(v)
		}
	}
	d.Label = CanonicalText(d.Label)
	d.Name = CanonicalText(d.Name)
}
