package services

import (
	"context"
	"path/filepath"

	"github.com/dmitrijs2005/tipsync/internal/client/client"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/filex"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/netx"
)

// ImageService attaches pictures to tips. Uploaded images are referenced by
// URL; when the server cannot take the upload the local path is kept and
// the image can be attached again later.
type ImageService struct {
	client client.Client
	tips   *TipRepository
	http   netx.HTTPClient
	logger logging.Logger
}

func NewImageService(c client.Client, t *TipRepository, h netx.HTTPClient, l logging.Logger) *ImageService {
	if h == nil {
		h = netx.DefaultClient
	}
	return &ImageService{client: c, tips: t, http: h, logger: l.With("module", "images")}
}

// AttachImage sets the image of tip id and returns the stored reference.
func (s *ImageService) AttachImage(ctx context.Context, id, path string) (string, error) {
	t, err := s.tips.GetRecord(ctx, id)
	if err != nil {
		return "", err
	}
	if t.IsDeleted {
		return "", common.New(common.KindNotFound, "images.attach", "tip "+id+" not found")
	}

	img, err := filex.ReadImage(path)
	if err != nil {
		return "", common.Wrap(common.KindValidation, "images.attach", err)
	}

	ref, err := filepath.Abs(img.Path)
	if err != nil {
		ref = img.Path
	}
	if url, err := s.upload(ctx, id, img); err != nil {
		s.logger.Info(ctx, "image upload deferred, keeping local path", "id", id, "kind", common.KindOf(err), "error", err)
	} else {
		ref = url
	}

	f := t.Fields()
	f.ImageRef = ref
	if err := s.tips.UpdateRecord(ctx, id, f); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *ImageService) upload(ctx context.Context, id string, img *filex.Image) (string, error) {
	slot, err := s.client.PresignImageUpload(ctx, id, img.ContentType, img.Extension)
	if err != nil {
		return "", err
	}
	if err := netx.UploadToPresignedURL(ctx, s.http, slot.PutURL, img.Data, img.ContentType); err != nil {
		return "", common.Wrap(common.KindRemoteUnavailable, "images.upload", err)
	}
	return slot.GetURL, nil
}
