package generator

import (
	"context"
	"errors"
	"strings"

	"aigateway/internal/generator/models"
)

type rawAnnouncement struct {
	Title    models.FlexString `json:"title"`
	Content  models.FlexString `json:"content"`
	Priority models.FlexString `json:"priority"`
}

func (s *Service) GenerateAnnouncement(ctx context.Context, req *models.AnnouncementRequest) (*models.Announcement, error) {
	return generate(ctx, s, models.KindAnnouncement, req, func(raw rawAnnouncement) (*models.Announcement, error) {
		return normalizeAnnouncement(raw, req)
	})
}

func normalizeAnnouncement(raw rawAnnouncement, req *models.AnnouncementRequest) (*models.Announcement, error) {
	a := &models.Announcement{
		Title:    raw.Title.String(),
		Content:  raw.Content.String(),
		Priority: strings.ToLower(raw.Priority.String()),
	}
	if a.Title == "" || a.Content == "" {
		return nil, errors.New("announcement is missing title or content")
	}
	switch models.Urgency(a.Priority) {
	case models.UrgencyLow, models.UrgencyNormal, models.UrgencyHigh:
	default:
		a.Priority = string(req.Urgency)
	}
	return a, nil
}
