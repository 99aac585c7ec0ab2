package pathformat

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/media-organizer/internal/model"
)

func audioRecord() *model.Record {
	f := model.NewFields(model.CategoryAudio)
	f.Set("artist", "Daft Punk")
	f.Set("album", "Discovery")
	f.Set("title", "One More Time")
	return &model.Record{
		Path:     "/music/in/one_more_time.mp3",
		Category: model.CategoryAudio,
		Fields:   f,
		Size:     4096,
		Created:  time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
	}
}

func join(parts ...string) string {
	return filepath.Join(parts...)
}

func TestRender_Scenarios(t *testing.T) {
	video := &model.Record{
		Path:     "/in/holiday.mp4",
		Category: model.CategoryVideo,
		Fields:   model.NewFields(model.CategoryVideo),
	}
	video.Fields.Set("title", "Holiday")

	tests := []struct {
		name     string
		template string
		rec      *model.Record
		want     string
	}{
		{"artist album", "{file_type}/{artist}/{album}/{filename}", audioRecord(), join("audio", "Daft Punk", "Discovery", "one_more_time.mp3")},
		{"missing year", "{year}/{title}", video, join("Unknown", "Holiday.mp4")},
		{"creation fields", "{creation_year}/{creation_month_name}/{filename}", audioRecord(), join("2024", "March", "one_more_time.mp3")},
		{"extension placeholder", "{filename}.{extension}", audioRecord(), "one_more_time.mp3"},
		{"empty template", "", audioRecord(), "one_more_time.mp3"},
		{"backslash separator", `{artist}\{filename}`, audioRecord(), join("Daft Punk", "one_more_time.mp3")},
		{"repeated separators", "/{artist}//{filename}/", audioRecord(), join("Daft Punk", "one_more_time.mp3")},
		{"unresolved token", "{nonsense}/{filename}", audioRecord(), join("Unknown", "one_more_time.mp3")},
		{"empty token", "{}/{filename}", audioRecord(), join("Unknown", "one_more_time.mp3")},
		{"token case and spaces", "{ Artist }/{filename}", audioRecord(), join("Daft Punk", "one_more_time.mp3")},
		{"unbalanced braces", "{artist}}{/{filename}", audioRecord(), join("Daft Punk}{", "one_more_time.mp3")},
		{"unclosed brace", "{artist/{filename}", audioRecord(), join("{artist", "one_more_time.mp3")},
		{"dot segments", "../{filename}", audioRecord(), join("Unknown", "one_more_time.mp3")},
		{"title as file name", "{artist}/{title}", audioRecord(), join("Daft Punk", "One More Time.mp3")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.template, tt.rec, Options{}))
		})
	}
}

func TestRender_SanitizesValues(t *testing.T) {
	rec := audioRecord()
	rec.Fields.Set("artist", "AC/DC")
	rec.Fields.Set("album", `What? "Now" <Live>`)
	rec.Fields.Set("genre", "../../etc")

	got := Render("{artist}/{album}/{genre}/{filename}", rec, Options{})
	parts := strings.Split(got, string(filepath.Separator))
	require.Len(t, parts, 4)

	assert.Equal(t, "AC_DC", parts[0])
	assert.Equal(t, "What_ _Now_ _Live_", parts[1])
	for _, p := range parts {
		assert.NotEqual(t, "..", p)
		assert.NotEqual(t, ".", p)
		assert.NotContains(t, p, "/")
		assert.NotContains(t, p, `\`)
		assert.False(t, strings.ContainsAny(p, `<>:"|?*`), p)
	}
	assert.False(t, filepath.IsAbs(got))
}

func TestRender_ExcludeUnknown(t *testing.T) {
	image := &model.Record{
		Path:     "/in/cover.jpg",
		Category: model.CategoryImage,
		Fields:   model.NewFields(model.CategoryImage),
	}

	assert.Equal(t, join("image", "cover.jpg"), Render("{camera_make}/{camera_model}", image, Options{ExcludeUnknown: true}))
	assert.Equal(t, join("Unknown", "Unknown.jpg"), Render("{camera_make}/{camera_model}", image, Options{}))

	rec := audioRecord()
	assert.Equal(t, join("Daft Punk", "one_more_time.mp3"),
		Render("{artist}/{genre}/{filename}", rec, Options{ExcludeUnknown: true}))
	assert.Equal(t, "one_more_time.mp3", Render("{filename}", rec, Options{ExcludeUnknown: true}))
}

func TestRender_Idempotent(t *testing.T) {
	rec := audioRecord()
	for _, tmpl := range []string{"{file_type}/{artist}/{album}/{filename}", "{year}/{title}", "{{}}/x"} {
		first := Render(tmpl, rec, Options{ExcludeUnknown: true})
		assert.Equal(t, first, Render(tmpl, rec, Options{ExcludeUnknown: true}), tmpl)
	}
}

func TestRender_LongSegments(t *testing.T) {
	rec := audioRecord()
	rec.Fields.Set("album", strings.Repeat("ä", 200))
	rec.Fields.Set("title", strings.Repeat("t", 400))

	got := Render("{album}/{title}", rec, Options{})
	parts := strings.Split(got, string(filepath.Separator))
	require.Len(t, parts, 2)

	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 255)
		assert.True(t, strings.ToValidUTF8(p, "") == p)
	}
	assert.True(t, strings.HasSuffix(parts[1], ".mp3"))
}

func TestRender_CommonFieldsNeverEmpty(t *testing.T) {
	rec := audioRecord()
	for _, name := range model.CommonFieldNames {
		got := Render("{"+name+"}/x", rec, Options{})
		dir := strings.Split(got, string(filepath.Separator))[0]
		assert.NotEmpty(t, dir, name)
		assert.NotEqual(t, model.Unknown, dir, name)
	}
}

func TestAllocator_CollisionLaw(t *testing.T) {
	a := newAllocator(func(string) bool { return false })
	want := join("out", "a.mp3")

	got, n := a.Claim(want)
	assert.Equal(t, want, got)
	assert.Equal(t, 0, n)

	got, n = a.Claim(want)
	assert.Equal(t, join("out", "a (1).mp3"), got)
	assert.Equal(t, 1, n)

	got, n = a.Claim(want)
	assert.Equal(t, join("out", "a (2).mp3"), got)
	assert.Equal(t, 2, n)

	assert.Equal(t, 3, a.Claimed())
}

func TestAllocator_SkipsExistingFiles(t *testing.T) {
	onDisk := map[string]bool{
		join("out", "a.mp3"):     true,
		join("out", "a (1).mp3"): true,
	}
	a := newAllocator(func(p string) bool { return onDisk[p] })

	got, n := a.Claim(join("out", "a.mp3"))
	assert.Equal(t, join("out", "a (2).mp3"), got)
	assert.Equal(t, 2, n)
}

func TestAllocator_NeverReusesNames(t *testing.T) {
	a := newAllocator(func(string) bool { return false })

	// "a (1).mp3" wanted directly, then reached as a suffix of "a.mp3".
	first, _ := a.Claim(join("out", "a (1).mp3"))
	a.Claim(join("out", "a.mp3"))
	second, n := a.Claim(join("out", "a.mp3"))

	assert.Equal(t, join("out", "a (1).mp3"), first)
	assert.Equal(t, join("out", "a (2).mp3"), second)
	assert.Equal(t, 2, n)
}

func TestAllocator_NoExtension(t *testing.T) {
	a := newAllocator(func(string) bool { return false })
	a.Claim("README")
	got, _ := a.Claim("README")
	assert.Equal(t, "README (1)", got)
}

func TestAllocator_LongNames(t *testing.T) {
	a := newAllocator(func(string) bool { return false })
	long := strings.Repeat("x", 251) + ".mp3"
	a.Claim(long)

	got, n := a.Claim(long)
	assert.Equal(t, 1, n)
	assert.LessOrEqual(t, len(got), 255)
	assert.True(t, strings.HasSuffix(got, " (1).mp3"))
}

func TestAllocator_Concurrent(t *testing.T) {
	a := newAllocator(func(string) bool { return false })

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _ := a.Claim("same.jpg")
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[got], got)
			seen[got] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

func TestNewAllocator_ChecksDisk(t *testing.T) {
	dir := t.TempDir()
	taken := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(taken, []byte("x"), 0644))

	got, n := NewAllocator().Claim(taken)
	assert.Equal(t, filepath.Join(dir, "photo (1).jpg"), got)
	assert.Equal(t, 1, n)
}
