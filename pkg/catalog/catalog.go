// Package catalog wires concrete catalog collections (albums, artists,
// playlists) into the coalescing loader and the full-collection fetcher.
package catalog

import (
	"github.com/Sternrassler/catalog-pager/pkg/coalesce"
	"github.com/Sternrassler/catalog-pager/pkg/paging"
	"github.com/Sternrassler/catalog-pager/pkg/pagination"
)

// Config holds per-source tuning shared by every entity.
type Config struct {
	Coalesce coalesce.Config
	Full     pagination.Config
}

// DefaultConfig returns the default catalog configuration.
func DefaultConfig() Config {
	return Config{
		Coalesce: coalesce.DefaultConfig(),
		Full:     pagination.DefaultConfig(),
	}
}

// Backend supplies the fetch function for each collection.
type Backend struct {
	Albums    paging.FetchFunc[Album]
	Artists   paging.FetchFunc[Artist]
	Playlists paging.FetchFunc[Playlist]
}

// Catalog groups the sources of all collections.
type Catalog struct {
	Albums    *Source[Album]
	Artists   *Source[Artist]
	Playlists *Source[Playlist]
}

// New builds a catalog over backend.
func New(backend Backend, cfg Config) *Catalog {
	return &Catalog{
		Albums:    NewSource(EntityAlbums, backend.Albums, cfg),
		Artists:   NewSource(EntityArtists, backend.Artists, cfg),
		Playlists: NewSource(EntityPlaylists, backend.Playlists, cfg),
	}
}
