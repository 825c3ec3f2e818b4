package benchmark

import (
	"fmt"
	"strings"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
)

var rarities = []string{"common", "uncommon", "rare", "veryRare", "legendary"}

// GenerateDocuments builds a deterministic synthetic pack: folder
// documents first, then top-level documents spread round-robin across
// the folders, each carrying embedded items and an effect. The same
// configuration always yields the same documents, so repeated runs
// measure the codec rather than the data.
func GenerateDocuments(cfg Config) []*document.Document {
	docs := make([]*document.Document, 0, cfg.Folders+cfg.Documents)

	folderIDs := make([]string, cfg.Folders)
	for i := 0; i < cfg.Folders; i++ {
		id := fmt.Sprintf("fold%012d", i)
		folderIDs[i] = id
		docs = append(docs, &document.Document{
			ID:   id,
			Key:  document.FolderKeyPrefix + id,
			Name: fmt.Sprintf("Folder %02d", i),
			Extra: map[string]any{
				"type":    "Item",
				"sorting": "a",
			},
		})
	}

	description := strings.Repeat("The arcane surge rolls outward and settles into the stones. ", 8)
	for i := 0; i < cfg.Documents; i++ {
		id := fmt.Sprintf("bench%011d", i)
		doc := &document.Document{
			ID:   id,
			Key:  "!items!" + id,
			Name: fmt.Sprintf("Benchmark Document %04d", i),
			System: map[string]any{
				"description": map[string]any{"value": description},
				"level":       i%9 + 1,
				"rarity":      rarities[i%len(rarities)],
				"price":       map[string]any{"value": i * 25, "denomination": "gp"},
			},
		}
		if cfg.Folders > 0 {
			doc.Folder = folderIDs[i%cfg.Folders]
		}
		for j := 0; j < cfg.Embedded; j++ {
			doc.Items = append(doc.Items, &document.Document{
				ID:   fmt.Sprintf("embed%07d%04d", i, j),
				Name: fmt.Sprintf("Embedded Item %d", j),
				System: map[string]any{
					"quantity": j + 1,
				},
			})
		}
		doc.Effects = append(doc.Effects, &document.Document{
			ID:   fmt.Sprintf("efct%08d0000", i),
			Name: "Residual Glow",
			Extra: map[string]any{
				"changes": []any{
					map[string]any{"key": "system.attributes.glow", "mode": 2, "value": "1"},
				},
			},
		})
		docs = append(docs, doc)
	}
	return docs
}
