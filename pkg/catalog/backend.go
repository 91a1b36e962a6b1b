package catalog

import (
	"github.com/Sternrassler/catalog-pager/pkg/redislist"
	"github.com/Sternrassler/catalog-pager/pkg/upstream"
)

// HTTPBackend reads every collection from an upstream catalog API, one
// path per entity ("/albums", "/artists", "/playlists").
func HTTPBackend(client *upstream.Client) Backend {
	return Backend{
		Albums:    upstream.Fetch[Album](client, "/"+string(EntityAlbums)),
		Artists:   upstream.Fetch[Artist](client, "/"+string(EntityArtists)),
		Playlists: upstream.Fetch[Playlist](client, "/"+string(EntityPlaylists)),
	}
}

// RedisBackend reads every collection from Redis lists under scope.
func RedisBackend(store *redislist.Store, scope map[string]string) Backend {
	return Backend{
		Albums:    redislist.Fetch[Album](store, RedisKey(EntityAlbums, scope)),
		Artists:   redislist.Fetch[Artist](store, RedisKey(EntityArtists, scope)),
		Playlists: redislist.Fetch[Playlist](store, RedisKey(EntityPlaylists, scope)),
	}
}

// RedisKey returns the list key holding entity under scope.
func RedisKey(entity Entity, scope map[string]string) redislist.Key {
	return redislist.Key{Entity: string(entity), Scope: scope}
}
