package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/catalog-pager/internal/testutil"
	"github.com/Sternrassler/catalog-pager/pkg/coalesce"
	"github.com/Sternrassler/catalog-pager/pkg/pagination"
	"github.com/Sternrassler/catalog-pager/pkg/redislist"
	"github.com/Sternrassler/catalog-pager/pkg/upstream"
)

func albums(n int) []Album {
	out := make([]Album, n)
	for i := range out {
		out[i] = Album{
			ID:         fmt.Sprintf("al-%04d", i),
			Title:      fmt.Sprintf("Album %d", i),
			ArtistID:   fmt.Sprintf("ar-%03d", i%37),
			TrackCount: 8 + i%9,
		}
	}
	return out
}

func artists(n int) []Artist {
	out := make([]Artist, n)
	for i := range out {
		out[i] = Artist{ID: fmt.Sprintf("ar-%03d", i), Name: fmt.Sprintf("Artist %d", i), AlbumCount: i % 5}
	}
	return out
}

func testConfig() Config {
	return Config{
		Coalesce: coalesce.Config{Window: 20 * time.Millisecond},
		Full:     pagination.Config{PageSize: 25, Parallelism: 3},
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Coalesce.Window != 75*time.Millisecond {
		t.Errorf("Coalesce.Window = %v, want 75ms", cfg.Coalesce.Window)
	}
	if cfg.Full.PageSize != 200 || cfg.Full.Parallelism != 3 {
		t.Errorf("Full = %+v, want page size 200 and parallelism 3", cfg.Full)
	}
}

func TestSource_LoadPageAndLoadAll(t *testing.T) {
	all := albums(260)
	coll := testutil.NewCollection(all)
	src := NewSource(EntityAlbums, coll.Fetch, testConfig())
	ctx := context.Background()

	if src.Entity() != EntityAlbums {
		t.Errorf("Entity() = %q, want %q", src.Entity(), EntityAlbums)
	}

	page, err := src.LoadPage(ctx, 250, 20)
	if err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if diff := cmp.Diff(all[250:], page.Data); diff != "" {
		t.Errorf("LoadPage() mismatch (-want +got):\n%s", diff)
	}
	if page.NextKey != nil {
		t.Errorf("NextKey = %d, want nil at the end", *page.NextKey)
	}

	got, err := src.LoadAll(ctx, 0)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if diff := cmp.Diff(all, got); diff != "" {
		t.Errorf("LoadAll() mismatch (-want +got):\n%s", diff)
	}
}

// progressRecorder keeps the last value reported to a progress callback.
type progressRecorder struct {
	mu    sync.Mutex
	calls int
	last  int64
}

func (p *progressRecorder) report(loaded int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.last = loaded
}

func TestSource_LoadAllWithProgress_ConcurrentCallsIndependent(t *testing.T) {
	all := albums(260)
	src := NewSource(EntityAlbums, testutil.NewCollection(all).Fetch, testConfig())
	ctx := context.Background()

	tests := []struct {
		start int
		want  int
	}{
		{0, 260},
		{200, 60},
		{120, 140},
	}

	recorders := make([]*progressRecorder, len(tests))
	results := make([][]Album, len(tests))
	errs := make([]error, len(tests))

	var wg sync.WaitGroup
	for i, tt := range tests {
		recorders[i] = &progressRecorder{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = src.LoadAllWithProgress(ctx, tt.start, recorders[i].report)
		}()
	}
	wg.Wait()

	for i, tt := range tests {
		if errs[i] != nil {
			t.Fatalf("LoadAllWithProgress(%d) error = %v", tt.start, errs[i])
		}
		if diff := cmp.Diff(all[tt.start:], results[i]); diff != "" {
			t.Errorf("LoadAllWithProgress(%d) mismatch (-want +got):\n%s", tt.start, diff)
		}
		if recorders[i].last != int64(tt.want) {
			t.Errorf("LoadAllWithProgress(%d) final progress = %d, want %d", tt.start, recorders[i].last, tt.want)
		}
	}
}

// The collection shrinks mid-walk: the page at 30 comes back short after
// later pages were already fetched, so those pages are dropped.
func TestSource_LoadAllWithProgress_FinalReportMatchesResult(t *testing.T) {
	fetch := func(ctx context.Context, offset, limit int) ([]int, error) {
		switch {
		case offset == 30:
			time.Sleep(30 * time.Millisecond)
			return testutil.Ints(35)[30:], nil
		case offset >= 60:
			return []int{}, nil
		}
		out := make([]int, limit)
		for i := range out {
			out[i] = offset + i
		}
		return out, nil
	}

	src := NewSource(EntityAlbums, fetch, Config{
		Coalesce: coalesce.Config{Window: 20 * time.Millisecond},
		Full:     pagination.Config{PageSize: 10, Parallelism: 5},
	})

	rec := &progressRecorder{}
	got, err := src.LoadAllWithProgress(context.Background(), 0, rec.report)
	if err != nil {
		t.Fatalf("LoadAllWithProgress() error = %v", err)
	}
	if diff := cmp.Diff(testutil.Ints(35), got); diff != "" {
		t.Errorf("LoadAllWithProgress() mismatch (-want +got):\n%s", diff)
	}
	if rec.last != int64(len(got)) {
		t.Errorf("final progress = %d, want %d", rec.last, len(got))
	}
	if rec.calls < 2 {
		t.Errorf("progress calls = %d, want running reports plus a final one", rec.calls)
	}
}

func TestSource_LoadAllFailure(t *testing.T) {
	errUpstream := errors.New("catalog offline")
	coll := testutil.NewCollection(albums(100))
	coll.Fail = func(offset, _ int) error {
		if offset >= 50 {
			return errUpstream
		}
		return nil
	}
	src := NewSource(EntityAlbums, coll.Fetch, testConfig())

	got, err := src.LoadAll(context.Background(), 0)
	if !errors.Is(err, errUpstream) {
		t.Fatalf("LoadAll() error = %v, want %v", err, errUpstream)
	}
	if got != nil {
		t.Errorf("LoadAll() = %d items, want nil", len(got))
	}
}

func TestCatalog_HTTPBackend(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	allAlbums := albums(130)
	allArtists := artists(37)
	if err := mock.SetCollection("/albums", allAlbums); err != nil {
		t.Fatalf("SetCollection() error = %v", err)
	}
	if err := mock.SetCollection("/artists", allArtists); err != nil {
		t.Fatalf("SetCollection() error = %v", err)
	}
	if err := mock.SetCollection("/playlists", []Playlist{}); err != nil {
		t.Fatalf("SetCollection() error = %v", err)
	}

	client, err := upstream.New(upstream.DefaultConfig(mock.URL(), "CatalogTest/1.0"))
	if err != nil {
		t.Fatalf("upstream.New() error = %v", err)
	}
	cat := New(HTTPBackend(client), testConfig())
	ctx := context.Background()

	gotAlbums, err := cat.Albums.LoadAll(ctx, 0)
	if err != nil {
		t.Fatalf("Albums.LoadAll() error = %v", err)
	}
	if diff := cmp.Diff(allAlbums, gotAlbums); diff != "" {
		t.Errorf("Albums.LoadAll() mismatch (-want +got):\n%s", diff)
	}

	page, err := cat.Artists.LoadPage(ctx, 30, 10)
	if err != nil {
		t.Fatalf("Artists.LoadPage() error = %v", err)
	}
	if diff := cmp.Diff(allArtists[30:], page.Data); diff != "" {
		t.Errorf("Artists.LoadPage() mismatch (-want +got):\n%s", diff)
	}

	playlists, err := cat.Playlists.LoadAll(ctx, 0)
	if err != nil {
		t.Fatalf("Playlists.LoadAll() error = %v", err)
	}
	if len(playlists) != 0 {
		t.Errorf("Playlists.LoadAll() = %d items, want 0", len(playlists))
	}
}

func TestCatalog_RedisBackend(t *testing.T) {
	server := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	store := redislist.NewStore(redisClient)
	scope := map[string]string{"library": "test"}
	ctx := context.Background()

	allAlbums := albums(333)
	if err := redislist.Append(ctx, store, RedisKey(EntityAlbums, scope), allAlbums...); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	cat := New(RedisBackend(store, scope), testConfig())

	got, err := cat.Albums.LoadAll(ctx, 100)
	if err != nil {
		t.Fatalf("Albums.LoadAll() error = %v", err)
	}
	if diff := cmp.Diff(allAlbums[100:], got); diff != "" {
		t.Errorf("Albums.LoadAll() mismatch (-want +got):\n%s", diff)
	}

	page, err := cat.Albums.LoadPage(ctx, 0, 40)
	if err != nil {
		t.Fatalf("Albums.LoadPage() error = %v", err)
	}
	if diff := cmp.Diff(allAlbums[:40], page.Data); diff != "" {
		t.Errorf("Albums.LoadPage() mismatch (-want +got):\n%s", diff)
	}
	if page.PrevKey != nil || page.NextKey == nil || *page.NextKey != 40 {
		t.Errorf("cursors = (%v, %v), want (nil, 40)", page.PrevKey, page.NextKey)
	}

	if key := RedisKey(EntityArtists, scope).String(); key != "catalog:artists:library=test" {
		t.Errorf("RedisKey() = %q", key)
	}
}
