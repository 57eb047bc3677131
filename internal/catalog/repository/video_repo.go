package repository

import (
	"fmt"
	"strings"
	"sync"

	"owatch_service/internal/catalog/domain"
)

// VideoRepo definition get video info
type VideoRepo interface {
	List() []domain.Video
	GetByID(id int) (domain.Video, error)
	SearchVideos(category, keyword string) []domain.Video
	Categories() []string
	UpdateProgress(id int, progress float64) error
	MarkWatched(id int) error
}

// videoRepo 每個 dashboard session 持有一份影片清單
type videoRepo struct {
	mu     sync.RWMutex
	videos []domain.Video
}

// NewVideoRepo create VideoRepo over a private copy of videos
func NewVideoRepo(videos []domain.Video) VideoRepo {
	own := make([]domain.Video, len(videos))
	copy(own, videos)
	return &videoRepo{videos: own}
}

// List returns every video in catalog order
func (r *videoRepo) List() []domain.Video {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Video, len(r.videos))
	copy(out, r.videos)
	return out
}

// GetByID get Video by id
func (r *videoRepo) GetByID(id int) (domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return domain.Video{}, fmt.Errorf("videoID[%d]: %w", id, domain.ErrVideoNotFound)
	}
	return r.videos[i], nil
}

// SearchVideos 篩選分類並以關鍵字模糊搜尋標題或描述（不分大小寫）.
// Evaluated on every call, nothing is cached.
func (r *videoRepo) SearchVideos(category, keyword string) []domain.Video {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Video, 0, len(r.videos))
	for _, v := range r.videos {
		if v.MatchesCategory(category) && v.MatchesTerm(keyword) {
			out = append(out, v)
		}
	}
	return out
}

// Categories returns "all" followed by the distinct lower-cased categories in catalog order
func (r *videoRepo) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]bool{}
	out := []string{domain.AllCategories}
	for _, v := range r.videos {
		c := strings.ToLower(v.Category)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// UpdateProgress writes the watch percentage back to the catalog entry, clamped to [0, 100]
func (r *videoRepo) UpdateProgress(id int, progress float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("videoID[%d]: %w", id, domain.ErrVideoNotFound)
	}
	switch {
	case progress < 0:
		progress = 0
	case progress > 100:
		progress = 100
	}
	r.videos[i].Progress = progress
	return nil
}

// MarkWatched flags the video as claimed/watched
func (r *videoRepo) MarkWatched(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("videoID[%d]: %w", id, domain.ErrVideoNotFound)
	}
	r.videos[i].Watched = true
	return nil
}

func (r *videoRepo) indexOf(id int) int {
	for i := range r.videos {
		if r.videos[i].ID == id {
			return i
		}
	}
	return -1
}
