// Package search locates input event files for the trawl CLI command.
package search

import (
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// trawl recursively lists every file under uri whose basename matches
// pattern, descending into subdirectories via VFS.List so the search works
// transparently against local paths or an object store.
func trawl(vfs *tiledb.VFS, pattern string, uri string, items []string) []string {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		panic(err)
	}

	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			panic(err)
		}
		if match {
			items = append(items, file)
		}
	}

	for _, dir := range dirs {
		items = trawl(vfs, pattern, dir, items)
	}

	return items
}

// FindInputs recursively searches uri for files matching pattern (e.g.
// "*.simtel.gz", "*.dl1.json"), using configURI to build a TileDB config for
// the search when non-empty.
func FindInputs(uri, pattern, configURI string) []string {
	var (
		config *tiledb.Config
		err    error
	)

	if configURI == "" {
		config, err = tiledb.NewConfig()
		if err != nil {
			panic(err)
		}
	} else {
		config, err = tiledb.LoadConfig(configURI)
		if err != nil {
			panic(err)
		}
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		panic(err)
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		panic(err)
	}
	defer vfs.Free()

	items := make([]string, 0)
	return trawl(vfs, pattern, uri, items)
}
