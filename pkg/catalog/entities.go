package catalog

import "time"

// Entity names a catalog collection.
type Entity string

const (
	// EntityAlbums is the album collection.
	EntityAlbums Entity = "albums"

	// EntityArtists is the artist collection.
	EntityArtists Entity = "artists"

	// EntityPlaylists is the playlist collection.
	EntityPlaylists Entity = "playlists"
)

// Entities lists every collection the catalog exposes.
var Entities = []Entity{EntityAlbums, EntityArtists, EntityPlaylists}

// Album is a catalog album entry.
type Album struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ArtistID   string `json:"artist_id"`
	ArtistName string `json:"artist_name"`
	Year       int    `json:"year,omitempty"`
	TrackCount int    `json:"track_count"`
	CoverArtID string `json:"cover_art_id,omitempty"`
}

// Artist is a catalog artist entry.
type Artist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AlbumCount int    `json:"album_count"`
	ImageURL   string `json:"image_url,omitempty"`
}

// Playlist is a catalog playlist entry.
type Playlist struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Owner      string        `json:"owner"`
	SongCount  int           `json:"song_count"`
	Duration   time.Duration `json:"duration"`
	Public     bool          `json:"public"`
	ModifiedAt time.Time     `json:"modified_at"`
}
