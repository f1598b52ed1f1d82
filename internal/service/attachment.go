package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moajmalnk/bugricer-sub002/config"
	"github.com/moajmalnk/bugricer-sub002/internal/model"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/blob"
	"github.com/moajmalnk/bugricer-sub002/internal/repository"
)

// IAttachmentService defines the interface for voice attachment uploads
type IAttachmentService interface {
	// StoreVoice validates and persists an uploaded voice recording.
	// clientDuration is the duration reported by the uploading client; it is
	// only trusted when the file itself cannot be parsed.
	StoreVoice(ctx context.Context, uploaderID, filename string, data []byte, clientDuration float64) (*model.VoiceAttachment, error)

	// GetAttachment returns attachment metadata by ID.
	GetAttachment(ctx context.Context, id string) (*model.VoiceAttachment, error)
}

// AttachmentService implements the IAttachmentService interface
type AttachmentService struct {
	attachmentRepo repository.IAttachmentRepository
	store          blob.Store
	logger         *zap.Logger
	cfg            *config.StorageConfig
}

// NewAttachmentService creates a new IAttachmentService instance
func NewAttachmentService(
	attachmentRepo repository.IAttachmentRepository,
	store blob.Store,
	logger *zap.Logger,
	cfg *config.StorageConfig,
) IAttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		store:          store,
		logger:         logger,
		cfg:            cfg,
	}
}

// StoreVoice writes the recording to blob storage under a fresh name and
// records its metadata. The duration stored is the one computed from the WAV
// header; the client-reported value is a fallback, never an override.
func (s *AttachmentService) StoreVoice(ctx context.Context, uploaderID, filename string, data []byte, clientDuration float64) (*model.VoiceAttachment, error) {
	if len(data) == 0 {
		return nil, ErrInvalidVoiceFile
	}
	if int64(len(data)) > s.cfg.MaxVoiceSizeByte {
		return nil, ErrVoiceFileTooLarge
	}

	duration, err := blob.WAVDuration(data)
	if err != nil {
		if !errors.Is(err, blob.ErrNotWAV) {
			return nil, fmt.Errorf("failed to parse voice file: %w", err)
		}
		if clientDuration <= 0 {
			return nil, ErrInvalidVoiceFile
		}
		s.logger.Warn("voice file not parseable, using client duration",
			zap.String("filename", filename), zap.Float64("client_duration", clientDuration))
		duration = clientDuration
	}

	name := uuid.New().String() + normalizeExt(filename)
	fileURL, filePath, err := s.store.Save(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store voice file: %w", err)
	}

	attachment := &model.VoiceAttachment{
		FileURL:    fileURL,
		FilePath:   filePath,
		FileType:   "audio/wav",
		FileSize:   int64(len(data)),
		Duration:   duration,
		UploadedBy: uploaderID,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		// Orphaned files are removed eagerly rather than left for a sweeper.
		if rmErr := s.store.Remove(ctx, filePath); rmErr != nil {
			s.logger.Warn("failed to remove orphaned voice file",
				zap.String("path", filePath), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}
	return attachment, nil
}

func (s *AttachmentService) GetAttachment(ctx context.Context, id string) (*model.VoiceAttachment, error) {
	attachment, err := s.attachmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find attachment: %w", err)
	}
	if attachment == nil {
		return nil, ErrAttachmentNotFound
	}
	return attachment, nil
}

func normalizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".wav" {
		return ".wav"
	}
	return ext
}
