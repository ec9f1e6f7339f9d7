package feature

import (
	"testing"

	"movie-rec-go/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestCompose_WeightsAndOrder(t *testing.T) {
	m := &model.MovieRecord{
		Title:            "Avatar",
		Genres:           "Action",
		Keywords:         "space",
		Tagline:          "ignored",
		Overview:         "marine on pandora",
		OriginalLanguage: "en",
	}
	assert.Equal(t, "Action Action Action Action space space marine on pandora en", Compose(m))
}

func TestCompose_EmptyFieldsKeepSeparators(t *testing.T) {
	m := &model.MovieRecord{Title: "Blank", Genres: "Drama"}
	assert.Equal(t, "Drama Drama Drama Drama    ", Compose(m))
	assert.Equal(t, "       ", Compose(&model.MovieRecord{Title: "Nothing"}))
}

func TestCompose_Deterministic(t *testing.T) {
	m := &model.MovieRecord{Genres: "Comedy", Keywords: "dog", Overview: "fun", OriginalLanguage: "fr"}
	assert.Equal(t, Compose(m), Compose(m))
}

func TestGenreTokens(t *testing.T) {
	tests := []struct {
		name   string
		genres string
		want   []string
	}{
		{name: "comma separated", genres: "Action, Science Fiction", want: []string{"Action", "Science Fiction"}},
		{name: "whitespace separated", genres: "Action Adventure", want: []string{"Action", "Adventure"}},
		{name: "blank entries dropped", genres: "Drama,, ,Crime", want: []string{"Drama", "Crime"}},
		{name: "empty", genres: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenreTokens(tt.genres)
			assert.Len(t, got, len(tt.want))
			for _, g := range tt.want {
				assert.Contains(t, got, g)
			}
		})
	}
}

func TestOverlap(t *testing.T) {
	a := GenreTokens("Action,Adventure,Fantasy")
	b := GenreTokens("Adventure,Fantasy,Romance,Drama")
	assert.Equal(t, 2, Overlap(a, b))
	assert.Equal(t, 2, Overlap(b, a))
	assert.Equal(t, 0, Overlap(a, GenreTokens("")))
}
