package pipeline

import (
	"fmt"
	"path/filepath"
)

// folderInfo is what the discovery pass records about each folder
// document: its directory name and its parent folder id.
type folderInfo struct {
	slug   string
	parent string
}

// resolveFolderPaths computes the source-tree directory for every
// folder: the slugs of its ancestors joined root-down, ending with the
// folder's own slug. A parent id that is not a known folder ends the
// walk, leaving the chain rooted at the pack source directory. A
// parent cycle is reported as ErrFolderCycle before anything touches
// the disk.
func resolveFolderPaths(folders map[string]folderInfo) (map[string]string, error) {
	paths := make(map[string]string, len(folders))
	for id := range folders {
		path, err := folderPath(folders, id)
		if err != nil {
			return nil, err
		}
		paths[id] = path
	}
	return paths, nil
}

// folderPath walks the parent chain of one folder, collecting slugs
// leaf-first and reversing at the end.
func folderPath(folders map[string]folderInfo, id string) (string, error) {
	var segments []string
	visited := make(map[string]bool)

	for current := id; current != ""; {
		if visited[current] {
			return "", fmt.Errorf("%w: folder %s is its own ancestor", ErrFolderCycle, current)
		}
		visited[current] = true

		info, ok := folders[current]
		if !ok {
			break
		}
		segments = append(segments, info.slug)
		current = info.parent
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return filepath.Join(segments...), nil
}
