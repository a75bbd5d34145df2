package store

import (
	"context"
	"fmt"

	"toolroom-console/internal/model"
)

// RecordScan appends one entry to the station journal.
func (s *gormStore) RecordScan(ctx context.Context, entry *model.ScanJournalEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	return nil
}

// RecentScans returns the newest journal entries first.
func (s *gormStore) RecentScans(ctx context.Context, limit int) ([]model.ScanJournalEntry, error) {
	var entries []model.ScanJournalEntry
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent scans: %w", err)
	}
	return entries, nil
}
