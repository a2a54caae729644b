package jsonl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
)

func newLog(t *testing.T) *AuditLog {
	t.Helper()
	l, err := NewAuditLog(filepath.Join(t.TempDir(), "nested", "download.log"))
	require.NoError(t, err)
	return l
}

func record(i int) entity.ProgressEvent {
	return entity.ProgressEvent{
		Type:         "day ranking",
		Number:       fmt.Sprintf("P1_%d", i),
		ImageName:    fmt.Sprintf("image_day_p1_%d_1.jpg", i),
		Destination:  "/tmp/out",
		ImageURL:     "https://i.pximg.net/img-original/x.jpg",
		Author:       "a",
		Title:        "t",
		Attempts:     1,
		DownloadTime: "2026-01-01 10:00:00",
	}
}

func TestAppendWritesOneLinePerRecord(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, record(1)))
	require.NoError(t, l.Append(ctx, record(2)))

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"number":"P1_1"`)
	assert.Contains(t, lines[1], `"DownloadTime":"2026-01-01 10:00:00"`)
}

func TestAppendConcurrent(t *testing.T) {
	l := newLog(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Append(context.Background(), record(i)))
		}(i)
	}
	wg.Wait()

	page, err := l.ReadPage(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 50, page.TotalItems)
}

func TestAppendFailureIsAuditWrite(t *testing.T) {
	l := newLog(t)
	require.NoError(t, os.Remove(l.Path()))
	require.NoError(t, os.Mkdir(l.Path(), 0o755))

	err := l.Append(context.Background(), record(1))
	assert.ErrorIs(t, err, entity.ErrAuditWrite)
}

func TestReadPage(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, l.Append(ctx, record(i)))
	}

	page, err := l.ReadPage(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "P1_3", page.Items[0]["number"])
	assert.Equal(t, "P1_4", page.Items[1]["number"])

	page, err = l.ReadPage(ctx, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestReadPageEmptyLog(t *testing.T) {
	page, err := newLog(t).ReadPage(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.TotalItems)
	assert.Zero(t, page.TotalPages)
	assert.NotNil(t, page.Items)
}

func TestDeleteRecord(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, l.Append(ctx, record(i)))
	}

	page, err := l.ReadPage(ctx, 1, 10)
	require.NoError(t, err)
	target := page.Items[1]

	removed, err := l.DeleteRecord(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	page, err = l.ReadPage(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "P1_1", page.Items[0]["number"])
	assert.Equal(t, "P1_3", page.Items[1]["number"])

	removed, err = l.DeleteRecord(ctx, target)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestReadPageDefaults(t *testing.T) {
	l := newLog(t)
	require.NoError(t, l.Append(context.Background(), record(1)))

	page, err := l.ReadPage(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Items, 1)
}

func TestDeleteImage(t *testing.T) {
	ctx := context.Background()
	l := newLog(t)
	dir := t.TempDir()
	img := filepath.Join(dir, "image_day_p1_1_1.jpg")
	other := filepath.Join(dir, "image_day_p1_2_2.jpg")
	for _, p := range []string{img, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	err := l.DeleteImage(ctx, img)
	assert.ErrorIs(t, err, repository.ErrUntrackedImage)
	assert.FileExists(t, img)

	require.NoError(t, l.Append(ctx, entity.ProgressEvent{Destination: dir, ImageName: filepath.Base(img)}))
	require.NoError(t, l.Append(ctx, entity.ProgressEvent{DestinationPath: other}))

	require.NoError(t, l.DeleteImage(ctx, filepath.Join(dir, "sub", "..", filepath.Base(img))))
	assert.NoFileExists(t, img)
	require.NoError(t, l.DeleteImage(ctx, other))
	assert.NoFileExists(t, other)

	err = l.DeleteImage(ctx, img)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrUntrackedImage)
}

func TestDeleteImageRefusesFilesOutsideRecords(t *testing.T) {
	ctx := context.Background()
	l := newLog(t)
	dir := t.TempDir()
	require.NoError(t, l.Append(ctx, entity.ProgressEvent{Destination: dir, ImageName: "image_day_p1_1_1.jpg"}))

	secret := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(secret, []byte("keep"), 0o644))

	for _, p := range []string{secret, dir, filepath.Join(dir, "image_day_p1_9_9.jpg"), l.Path()} {
		assert.ErrorIs(t, l.DeleteImage(ctx, p), repository.ErrUntrackedImage, p)
	}
	assert.FileExists(t, secret)
	assert.FileExists(t, l.Path())
}
