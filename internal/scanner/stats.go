package scanner

// Add folds one entry into the totals. Directories only bump the folder count.
func (s *ScanStats) Add(e Entry) {
	if e.IsDirectory {
		s.TotalFolders++
		return
	}
	s.TotalFiles++
	s.TotalSize += e.Size
	switch e.Category {
	case CategoryDocument:
		s.DocumentCount++
	case CategoryImage:
		s.ImageCount++
	case CategoryVideo:
		s.VideoCount++
	case CategoryAudio:
		s.AudioCount++
	default:
		s.OtherCount++
	}
}

// CategoryCounts returns the per-category counts, with folders under CategoryFolder.
func (s ScanStats) CategoryCounts() map[Category]int64 {
	return map[Category]int64{
		CategoryDocument: s.DocumentCount,
		CategoryImage:    s.ImageCount,
		CategoryVideo:    s.VideoCount,
		CategoryAudio:    s.AudioCount,
		CategoryOther:    s.OtherCount,
		CategoryFolder:   s.TotalFolders,
	}
}
