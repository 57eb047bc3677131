package repository

import (
	"strings"
	"testing"

	"owatch_service/internal/catalog/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(videos []domain.Video) []int {
	out := make([]int, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.ID)
	}
	return out
}

func TestSeedVideosIsACopy(t *testing.T) {
	a := SeedVideos()
	a[0].Progress = 50
	b := SeedVideos()
	assert.Equal(t, 0.0, b[0].Progress)
	assert.Len(t, b, 6)
	for _, v := range b {
		_, err := v.TotalSeconds()
		assert.NoError(t, err, v.Title)
	}
}

func TestSearchVideos(t *testing.T) {
	repo := NewVideoRepo(SeedVideos())

	t.Run("分類篩選", func(t *testing.T) {
		assert.Equal(t, []int{3}, ids(repo.SearchVideos("finance", "")))
		assert.Equal(t, []int{3}, ids(repo.SearchVideos("FINANCE", "")))
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids(repo.SearchVideos(domain.AllCategories, "")))
		assert.Empty(t, repo.SearchVideos("cooking", ""))
	})

	t.Run("關鍵字搜尋", func(t *testing.T) {
		assert.Equal(t, []int{1, 2}, ids(repo.SearchVideos("all", "BLOCKCHAIN")))
		// description only
		assert.Equal(t, []int{3}, ids(repo.SearchVideos("all", "decentralized")))
		assert.Equal(t, []int{6}, ids(repo.SearchVideos("development", "contract")))
		assert.Empty(t, repo.SearchVideos("finance", "nft"))
	})

	t.Run("property: every result satisfies both predicates and nothing is missed", func(t *testing.T) {
		for _, cat := range repo.Categories() {
			for _, term := range []string{"", "a", "the", "nft", "Web3", "xyz"} {
				got := ids(repo.SearchVideos(cat, term))
				var want []int
				for _, v := range repo.List() {
					catOK := cat == "all" || strings.EqualFold(v.Category, cat)
					termOK := strings.Contains(strings.ToLower(v.Title), strings.ToLower(term)) ||
						strings.Contains(strings.ToLower(v.Description), strings.ToLower(term))
					if catOK && termOK {
						want = append(want, v.ID)
					}
				}
				if want == nil {
					want = []int{}
				}
				assert.Equal(t, want, got, "%s/%s", cat, term)
			}
		}
	})
}

func TestCategories(t *testing.T) {
	repo := NewVideoRepo(append(SeedVideos(), domain.Video{ID: 7, Duration: "1:00", Category: "education"}))
	assert.Equal(t,
		[]string{"all", "education", "technology", "finance", "nft", "trading", "development"},
		repo.Categories())
}

func TestUpdateProgressAndWatched(t *testing.T) {
	repo := NewVideoRepo(SeedVideos())

	require.NoError(t, repo.UpdateProgress(2, 42.5))
	v, err := repo.GetByID(2)
	require.NoError(t, err)
	assert.Equal(t, 42.5, v.Progress)

	require.NoError(t, repo.UpdateProgress(2, 150))
	v, _ = repo.GetByID(2)
	assert.Equal(t, 100.0, v.Progress)

	require.NoError(t, repo.MarkWatched(2))
	v, _ = repo.GetByID(2)
	assert.True(t, v.Watched)

	assert.ErrorIs(t, repo.UpdateProgress(99, 1), domain.ErrVideoNotFound)
	assert.ErrorIs(t, repo.MarkWatched(99), domain.ErrVideoNotFound)
	_, err = repo.GetByID(99)
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)

	// List 回傳的是複本
	list := repo.List()
	list[0].Title = "changed"
	v, _ = repo.GetByID(1)
	assert.NotEqual(t, "changed", v.Title)
}
