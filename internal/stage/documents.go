package stage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/models"
)

// MaxDocumentSize caps a single upload.
const MaxDocumentSize = 5 << 20

// DataURLUploader embeds the file itself as a data URL, so a preview needs
// nothing but the stored record.
type DataURLUploader struct{}

func (DataURLUploader) Upload(_ context.Context, _ string, contentType string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return "", err
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

type Upload struct {
	Slot        string
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

type DocumentsView struct {
	Slots     []models.DocumentSlot      `json:"slots"`
	Status    map[string]bool            `json:"status"`
	Documents map[string]models.Document `json:"documents"`
	Complete  bool                       `json:"complete"`
}

func (svc *Service) Documents(sess *Session) (DocumentsView, error) {
	s, err := at(sess, models.StepDocs)
	if err != nil {
		return DocumentsView{}, err
	}

	return DocumentsView{
		Slots:     models.RequiredDocuments,
		Status:    s.UserData.DocsStatus,
		Documents: s.UserData.Documents,
		Complete:  s.DocumentsComplete(),
	}, nil
}

// UploadDocument stores a file for one slot and marks the slot uploaded.
// Uploading again replaces the previous file.
func (svc *Service) UploadDocument(ctx context.Context, sess *Session, up Upload) (models.OnboardingState, error) {
	s, err := at(sess, models.StepDocs)
	if err != nil {
		return s, err
	}

	if !knownSlot(up.Slot) {
		return s, &flow.ValidationError{Fields: map[string]string{"document": "Unknown document slot"}}
	}
	if up.Size <= 0 || up.Size > MaxDocumentSize {
		return s, &flow.ValidationError{Fields: map[string]string{"file": "File must be between 1 byte and 5 MB"}}
	}

	location, err := svc.uploader.Upload(ctx, up.Name, up.ContentType, io.LimitReader(up.Content, MaxDocumentSize))
	if err != nil {
		return s, fmt.Errorf("upload %s: %w", up.Slot, err)
	}

	svc.logger.Info("document uploaded", "device", sess.Flow.Device(), "slot", up.Slot, "size", up.Size)

	return sess.Flow.PersistAt(ctx, models.StepDocs, func(s models.OnboardingState) models.OnboardingState {
		s.UserData.DocsStatus[up.Slot] = true
		s.UserData.Documents[up.Slot] = models.Document{
			Name:        up.Name,
			ContentType: up.ContentType,
			Size:        up.Size,
			Location:    location,
		}
		return s
	})
}

func (svc *Service) FinishDocuments(ctx context.Context, sess *Session) (models.OnboardingState, error) {
	if err := sess.Flow.Advance(ctx, models.StepPlan); err != nil {
		return sess.Flow.State(), err
	}
	return sess.Flow.State(), nil
}

func knownSlot(id string) bool {
	for _, slot := range models.RequiredDocuments {
		if slot.ID == id {
			return true
		}
	}
	return false
}
