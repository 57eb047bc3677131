package repository

import "owatch_service/internal/catalog/domain"

const placeholderThumbnail = "/api/placeholder/400/225"

var seedVideos = []domain.Video{
	{
		ID:          1,
		Title:       "Introduction to Web3 & Blockchain",
		Duration:    "5:30",
		Reward:      10,
		Thumbnail:   placeholderThumbnail,
		Category:    "Education",
		Description: "Learn the basics of Web3 technology and how blockchain works",
	},
	{
		ID:          2,
		Title:       "Base Blockchain Deep Dive",
		Duration:    "8:15",
		Reward:      15,
		Thumbnail:   placeholderThumbnail,
		Category:    "Technology",
		Description: "Explore Base's high-performance blockchain architecture",
	},
	{
		ID:          3,
		Title:       "DeFi Fundamentals",
		Duration:    "6:45",
		Reward:      12,
		Thumbnail:   placeholderThumbnail,
		Category:    "Finance",
		Description: "Understanding Decentralized Finance and its applications",
	},
	{
		ID:          4,
		Title:       "NFT Marketplace Guide",
		Duration:    "7:20",
		Reward:      14,
		Thumbnail:   placeholderThumbnail,
		Category:    "NFT",
		Description: "Complete guide to buying, selling, and creating NFTs",
	},
	{
		ID:          5,
		Title:       "Crypto Trading Strategies",
		Duration:    "9:10",
		Reward:      18,
		Thumbnail:   placeholderThumbnail,
		Category:    "Trading",
		Description: "Advanced trading strategies for cryptocurrency markets",
	},
	{
		ID:          6,
		Title:       "Smart Contracts Explained",
		Duration:    "11:25",
		Reward:      20,
		Thumbnail:   placeholderThumbnail,
		Category:    "Development",
		Description: "How smart contracts work and their real-world applications",
	},
}

// SeedVideos returns a fresh copy of the static catalog
func SeedVideos() []domain.Video {
	out := make([]domain.Video, len(seedVideos))
	copy(out, seedVideos)
	return out
}
