package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-rec-go/internal/index"
	"movie-rec-go/internal/model"
)

var genrePool = []string{"Action, Adventure", "Drama, Romance", "Comedy", "Horror, Thriller"}

// writeDataset 生成 n 行的 TMDB 风格数据集，人气随行号递增。
func writeDataset(t *testing.T, n int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("id,title,genres,keywords,overview,original_language,popularity\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d,Movie %d,\"%s\",keyword%d,An overview about topic%d,en,%d\n",
			i+1, i, genrePool[i%len(genrePool)], i%3, i%5, i)
	}
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

type fakeRuns struct {
	mu   sync.Mutex
	runs []model.TrainingRun
	err  error
}

func (f *fakeRuns) Create(_ context.Context, run *model.TrainingRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return f.err
}

func (f *fakeRuns) ListRecent(context.Context, int) ([]model.TrainingRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TrainingRun(nil), f.runs...), nil
}

func testOptions() Options {
	return Options{MinRows: 10, Index: index.DefaultOptions()}
}

func TestBuild_RespectsLimit(t *testing.T) {
	path := writeDataset(t, 40)
	runs := &fakeRuns{}
	b := NewBuilder(LocalSource{Path: path}, testOptions(), runs)

	snap, err := b.Build(context.Background(), model.TierQuickStart, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Size())
	assert.Equal(t, model.TierQuickStart, snap.Tier)
	assert.Equal(t, []string{"genres", "keywords", "overview", "original_language"}, snap.FeatureColumns)

	_, recs, err := snap.Recommend("Movie 0", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	assert.True(t, run.Success)
	assert.Equal(t, snap.ID, run.SnapshotID)
	assert.Equal(t, "quick_start", run.Tier)
	assert.Equal(t, 20, run.RowLimit)
	assert.Equal(t, 20, run.Movies)
	assert.Equal(t, snap.Index.VocabularySize(), run.VocabularySize)
	assert.Equal(t, "genres,keywords,overview,original_language", run.FeatureColumns)
}

func TestBuild_SamplesByPopularity(t *testing.T) {
	path := writeDataset(t, 40)
	opts := testOptions()
	opts.SampleSize = 12
	b := NewBuilder(LocalSource{Path: path}, opts, nil)

	snap, err := b.Build(context.Background(), model.TierFull, 0)
	require.NoError(t, err)
	require.Equal(t, 12, snap.Size())
	// 人气最高的是最后一行
	assert.Equal(t, "Movie 39", snap.Corpus.At(0).Title)
}

func TestBuild_LoadFailureIsRecorded(t *testing.T) {
	runs := &fakeRuns{err: errors.New("db down")}
	b := NewBuilder(LocalSource{Path: filepath.Join(t.TempDir(), "missing.csv")}, testOptions(), runs)

	snap, err := b.Build(context.Background(), model.TierFull, 0)
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.True(t, errors.Is(err, model.ErrLoad))

	require.Len(t, runs.runs, 1)
	assert.False(t, runs.runs[0].Success)
	assert.Equal(t, "full", runs.runs[0].Tier)
	assert.NotEmpty(t, runs.runs[0].Error)
}

func TestBuild_TruncatedDataset(t *testing.T) {
	path := writeDataset(t, 5)
	b := NewBuilder(LocalSource{Path: path}, testOptions(), nil)
	_, err := b.Build(context.Background(), model.TierFull, 0)
	assert.True(t, errors.Is(err, model.ErrLoad))
}

func TestBuild_EmptyVocabulary(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("title,genres\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "Blank %d,\n", i)
	}
	path := filepath.Join(t.TempDir(), "blank.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))

	b := NewBuilder(LocalSource{Path: path}, testOptions(), nil)
	_, err := b.Build(context.Background(), model.TierQuickStart, 0)
	assert.True(t, errors.Is(err, model.ErrTrain))
}

type fakeFetcher struct {
	calls   int
	content string
	err     error
}

func (f *fakeFetcher) FGetObject(_ context.Context, _, _, filePath string, _ minio.GetObjectOptions) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(filePath, []byte(f.content), 0o644)
}

func TestMinIOSource_DownloadsWhenMissing(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "data", "movies.csv")
	f := &fakeFetcher{content: "title\nA\n"}
	src := &MinIOSource{Client: f, Bucket: "datasets", Object: "tmdb.csv", Path: dest}

	path, err := src.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dest, path)
	assert.FileExists(t, dest)

	_, err = src.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestMinIOSource_SkipsExistingFile(t *testing.T) {
	dest := writeDataset(t, 3)
	f := &fakeFetcher{}
	src := &MinIOSource{Client: f, Bucket: "datasets", Object: "tmdb.csv", Path: dest}

	_, err := src.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, f.calls)

	refresh := &MinIOSource{Client: f, Bucket: "datasets", Object: "tmdb.csv", Path: dest, Refresh: true}
	_, err = refresh.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestMinIOSource_FetchError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("access denied")}
	src := &MinIOSource{Client: f, Bucket: "datasets", Object: "tmdb.csv", Path: filepath.Join(t.TempDir(), "m.csv")}
	_, err := src.Prepare(context.Background())
	assert.True(t, errors.Is(err, model.ErrLoad))
}
